package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/assignflow/internal/config"
	"github.com/kingrea/assignflow/internal/workflow"
	"github.com/kingrea/assignflow/internal/workflow/revision"
	"github.com/kingrea/assignflow/internal/workflow/selector"
)

func initCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .assignflow/ and the assignments directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project := a.v.GetString("project")
			if err := config.InitDataDir(project); err != nil {
				return fmt.Errorf("init: %w", err)
			}
			cfg, err := config.Load(project)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.AssignmentsDir(), 0o755); err != nil {
				return fmt.Errorf("init: %w", err)
			}
			fmt.Fprintf(a.out, "Initialized %s\nAssignments live in %s\n", cfg.DataProjectDir, cfg.AssignmentsDir())
			return nil
		},
	}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [assignment]",
		Short: "Show the derived state of an assignment",
		Long:  "Show state, next action, progress, blockers and the artifacts on disk. Without an assignment the one resume would pick is shown.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				out, err := a.selectFor(ctx, e, "status", a.query(args))
				if err != nil {
					return err
				}
				report := statusReport{Outcome: out}
				if out.Selection != nil {
					inventory := e.detector.Inventory(workflow.NewAssignment(out.Selection.Path))
					report.Artifacts = artifactRows(inventory)
				}
				if a.v.GetBool("json") {
					if err := printJSON(a.out, report); err != nil {
						return err
					}
					return out.Err()
				}
				if out.Ambiguity != nil {
					renderAmbiguity(a.out, *out.Ambiguity, a.clock())
					return out.Err()
				}
				renderStatus(a.out, *out.Selection, report.Artifacts, a.clock())
				return nil
			})
		},
	}
}

func resumeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Pick the assignment to work on next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				out, err := a.selectFor(ctx, e, "resume", a.v.GetString("assignment"))
				if err != nil {
					return err
				}
				if a.v.GetBool("json") {
					if err := printJSON(a.out, out); err != nil {
						return err
					}
					return out.Err()
				}
				if out.Ambiguity != nil {
					renderAmbiguity(a.out, *out.Ambiguity, a.clock())
					return out.Err()
				}
				renderResume(a.out, *out.Selection)
				return nil
			})
		},
	}
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every assignment in resume order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				ranked, err := e.selector.Rank()
				if err != nil {
					return err
				}
				if a.v.GetBool("json") {
					return printJSON(a.out, ranked)
				}
				if len(ranked) == 0 {
					fmt.Fprintf(a.out, "No assignments in %s\n", e.cfg.AssignmentsDir())
					return nil
				}
				renderCandidates(a.out, ranked, a.clock())
				return nil
			})
		},
	}
}

func reviseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revise [assignment]",
		Short: "Record a new design revision in brainstorm/revision.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAssignment(cmd.Context(), "revise", args, func(e *env, target workflow.Assignment) error {
				record, err := revision.Bump(target, a.clock())
				if err != nil {
					return err
				}
				if a.v.GetBool("json") {
					return printJSON(a.out, record)
				}
				fmt.Fprintf(a.out, "%s: design is now at revision %d; regenerate the breakdown, then run `assignflow stamp %s`\n",
					target.Name, *record.Revision, target.Name)
				return nil
			})
		},
	}
}

func stampCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stamp [assignment]",
		Short: "Record that the breakdown matches the current design revision",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAssignment(cmd.Context(), "stamp", args, func(e *env, target workflow.Assignment) error {
				meta, err := revision.Stamp(target, a.clock())
				if err != nil {
					return err
				}
				if a.v.GetBool("json") {
					return printJSON(a.out, meta)
				}
				fmt.Fprintf(a.out, "%s: breakdown stamped against design revision %d\n",
					target.Name, *meta.BasedOnBrainstormRevision)
				return nil
			})
		},
	}
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [assignment]",
		Short: "Move legacy root-level files into their phase folders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAssignment(cmd.Context(), "migrate", args, func(e *env, target workflow.Assignment) error {
				report, err := workflow.MigrateLegacy(target)
				if err != nil {
					return err
				}
				if a.v.GetBool("json") {
					return printJSON(a.out, report)
				}
				renderMigration(a.out, target.Name, report)
				return nil
			})
		},
	}
}

func logCmd(a *app) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent selection decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				tail, total := e.book.Tail(lines)
				if a.v.GetBool("json") {
					return printJSON(a.out, map[string]any{"entries": tail, "total": total})
				}
				if total == 0 {
					fmt.Fprintln(a.out, "No selections recorded yet")
					return nil
				}
				for _, line := range tail {
					fmt.Fprintln(a.out, line)
				}
				if total > len(tail) {
					fmt.Fprintf(a.out, "(%d of %d entries)\n", len(tail), total)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "number of entries to show")
	return cmd
}

// selectFor runs the selector and journals the outcome.
func (a *app) selectFor(ctx context.Context, e *env, command, query string) (selector.Outcome, error) {
	out, err := e.selector.Select(ctx, selector.Request{Explicit: query})
	if err != nil {
		_ = e.book.Failure(command, err)
		return selector.Outcome{}, err
	}
	if _, err := e.book.Record(command, out); err != nil {
		e.logger.Zap().Warn("journal write failed", zap.Error(err))
	}
	return out, nil
}

// withAssignment resolves exactly one named assignment for commands that
// write into it.
func (a *app) withAssignment(ctx context.Context, command string, args []string, fn func(e *env, target workflow.Assignment) error) error {
	query := a.query(args)
	if query == "" {
		return fmt.Errorf("%s: name an assignment (argument or %s)", command, selector.AssignmentFlag)
	}
	return a.withEnv(ctx, func(ctx context.Context, e *env) error {
		out, err := a.selectFor(ctx, e, command, query)
		if err != nil {
			return err
		}
		if out.Ambiguity != nil {
			renderAmbiguity(a.out, *out.Ambiguity, a.clock())
			return out.Err()
		}
		return fn(e, workflow.NewAssignment(out.Selection.Path))
	})
}
