package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			out, err := cfg.Dump()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and report the agents it defines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				printStatus(cmd, "✗", err.Error(), color.FgRed)
				return err
			}
			printStatus(cmd, "✓", "Configuration is valid", color.FgGreen)
			for _, t := range cfg.AgentTypes() {
				d, _ := cfg.Agent(t)
				printStatus(cmd, "•", fmt.Sprintf("%s: %s, %d tool(s)", t, d.ModelClass, len(d.Tools)), color.FgCyan)
			}
			return nil
		},
	})
	return cmd
}
