package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/router"
)

func newRouteCmd(g *globalFlags) *cobra.Command {
	var req router.Request
	var agentType, tier, complexity string
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Show which model an agent invocation is routed to",
		Example: `  cursorcode route --agent architect --tier starter
  cursorcode route --agent qa --complexity high`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			req.AgentType = core.AgentType(agentType)
			req.UserTier = core.Tier(tier)
			req.TaskComplexity = core.Complexity(complexity)
			if req.UserTier != "" && !req.UserTier.Valid() {
				return fmt.Errorf("unknown tier %q", tier)
			}
			if req.TaskComplexity != "" && !req.TaskComplexity.Valid() {
				return fmt.Errorf("unknown complexity %q", complexity)
			}

			d := router.New(cfg).Decide(req)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint("model:"), color.GreenString(d.Model))
			if d.Class != "" {
				fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint("class:"), d.Class)
			}
			fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint("reason:"), d.Reason)
			return nil
		},
	}
	cmd.Flags().StringVar(&agentType, "agent", "", "Agent type")
	cmd.Flags().StringVar(&tier, "tier", "", "Plan tier")
	cmd.Flags().StringVar(&complexity, "complexity", "", "Task complexity")
	cmd.Flags().StringVar(&req.ForceModel, "force", "", "Force a configured model id")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}
