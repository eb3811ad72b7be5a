package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linolazarous/cursorcode-ai/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	provider   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "cursorcode",
		Short: "Multi-agent software engineering pipeline",
		Long: `cursorcode turns a project prompt into a plan by running a fixed pipeline
of specialised agents (architect, frontend, backend, security, QA, DevOps).

Each agent call is routed to a model by the caller's plan tier and the task
complexity. Progress streams as events; usage is metered and audited.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default ./cursorcode.yaml)")
	root.PersistentFlags().StringVar(&g.provider, "provider", "", "Override provider.name (xai, openai, anthropic, ollama, scripted)")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newRunCmd(g))
	root.AddCommand(newRouteCmd(g))
	root.AddCommand(newConfigCmd(g))
	return root
}

// loadConfig reads settings and applies flag overrides before freezing them.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	s, err := config.LoadSettings(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.provider != "" {
		s.Provider.Name = g.provider
	}
	cfg, err := config.New(s)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func printStatus(cmd *cobra.Command, symbol, message string, attr color.Attribute) {
	c := color.New(attr)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Sprint(symbol), message)
}
