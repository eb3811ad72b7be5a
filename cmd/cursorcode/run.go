package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linolazarous/cursorcode-ai/core"
	"github.com/linolazarous/cursorcode-ai/orchestrator"
)

type runFlags struct {
	project    string
	user       string
	org        string
	tier       string
	complexity string
	jsonOut    bool
	verbose    bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Run the agent pipeline for a prompt",
		Long: `Run every pipeline stage for one project prompt and print progress as
each stage finishes. Failed stages are reported and the run continues.

Examples:
  cursorcode run "Build a todo app with auth"
  cursorcode run --tier ultra --complexity high "Design a payments platform"
  cursorcode run --provider scripted --json "Smoke test"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var logOut io.Writer = io.Discard
			if f.verbose {
				logOut = cmd.ErrOrStderr()
			}
			a, err := buildApp(ctx, cfg, logOut)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			req := orchestrator.Request{
				ProjectID:      f.project,
				Prompt:         strings.Join(args, " "),
				UserID:         f.user,
				OrgID:          f.org,
				UserTier:       core.Tier(f.tier),
				TaskComplexity: core.Complexity(f.complexity),
			}
			if req.ProjectID == "" {
				req.ProjectID = core.NewID()
			}

			events, err := a.platform.Orchestrate(ctx, req)
			if err != nil {
				return err
			}
			done := a.logger.WithRun(req.ProjectID, "").StartTimer("orchestration")
			defer done()
			return printEvents(cmd, events, f.jsonOut)
		},
	}
	cmd.Flags().StringVar(&f.project, "project", "", "Project id (default: random)")
	cmd.Flags().StringVar(&f.user, "user", "cli", "User id recorded in audit and usage")
	cmd.Flags().StringVar(&f.org, "org", "", "Organization id")
	cmd.Flags().StringVar(&f.tier, "tier", string(core.DefaultTier), "Plan tier: starter, standard, pro, premier, ultra")
	cmd.Flags().StringVar(&f.complexity, "complexity", string(core.DefaultComplexity), "Task complexity: low, medium, high")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the final state as JSON")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Write structured logs to stderr")
	return cmd
}

func printEvents(cmd *cobra.Command, events <-chan orchestrator.Event, jsonOut bool) error {
	out := cmd.OutOrStdout()
	var final *core.State
	cancelled := false

	for ev := range events {
		switch ev.Kind {
		case orchestrator.KindStart:
			printStatus(cmd, "▶", ev.Message, color.FgCyan)
		case orchestrator.KindStage:
			if ev.Error != "" {
				printStatus(cmd, "⚠", fmt.Sprintf("%s (degraded: %s)", ev.Message, ev.Error), color.FgYellow)
				continue
			}
			printStatus(cmd, "✓", fmt.Sprintf("%s %s", ev.Message, color.New(color.Faint).Sprintf("[%d tokens]", ev.TotalTokens)), color.FgGreen)
		case orchestrator.KindComplete:
			printStatus(cmd, "✓", ev.Message, color.FgGreen)
			final = ev.State
		case orchestrator.KindCancelled:
			printStatus(cmd, "✗", ev.Message, color.FgRed)
			final = ev.State
			cancelled = true
		case orchestrator.KindFailed:
			printStatus(cmd, "✗", ev.Message, color.FgRed)
			return errors.New(ev.Error)
		}
	}

	if final == nil {
		return nil
	}
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(final); err != nil {
			return fmt.Errorf("encoding state: %w", err)
		}
	} else {
		fmt.Fprintf(out, "\nProject %s: %d tokens, %d degraded stage(s)\n",
			final.ProjectID, final.TotalTokensUsed, len(final.Errors))
	}
	if cancelled {
		return context.Canceled
	}
	return nil
}
