package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ContentCurator/internal/app"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/usecase"
)

// NewRunCommand starts the long-running scheduler.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run refreshes on the configured interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.Run(ctx)
			})
		},
	}
}

type refreshOutput struct {
	RunID          string                 `json:"run_id"`
	Inserted       int                    `json:"inserted"`
	Duplicates     int                    `json:"duplicates"`
	Filtered       int                    `json:"filtered"`
	Malformed      int                    `json:"malformed"`
	FailedAdapters []string               `json:"failed_adapters"`
	Outcomes       []domain.InsertOutcome `json:"outcomes"`
}

// NewRefreshCommand performs a single ingestion run.
func NewRefreshCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch every source once and store new items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				report, err := a.Refresh.RunRefresh(ctx)
				if err != nil {
					return WrapExitError(exitCodeFor(err), "refresh failed", err)
				}

				failed := report.FailedAdapters()
				if opts.Format == "json" {
					if failed == nil {
						failed = []string{}
					}
					return writeJSON(cmd.OutOrStdout(), refreshOutput{
						RunID:          report.RunID,
						Inserted:       report.Inserted,
						Duplicates:     report.Duplicates,
						Filtered:       report.Filtered,
						Malformed:      report.Malformed,
						FailedAdapters: failed,
						Outcomes:       report.Outcomes,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: inserted=%d duplicates=%d filtered=%d malformed=%d failed_adapters=%v\n",
					report.RunID, report.Inserted, report.Duplicates, report.Filtered, report.Malformed, failed)
				return nil
			})
		},
	}
}

type moderationOutput struct {
	ID     int64                   `json:"id"`
	Status domain.ComplianceStatus `json:"status,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// NewModerationCommand builds "approve" or "reject". Every id is processed; the command
// fails if any of them was refused.
func NewModerationCommand(opts *RootOptions, action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " ID...",
		Short: fmt.Sprintf("%s pending items", action),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				var results []usecase.BulkResult
				if action == "approve" {
					results = a.Curation.ApproveMany(ctx, ids)
				} else {
					results = a.Curation.RejectMany(ctx, ids)
				}

				out := make([]moderationOutput, 0, len(results))
				var firstErr error
				for _, r := range results {
					line := moderationOutput{ID: r.ID}
					if r.Err != nil {
						line.Error = r.Err.Error()
						if firstErr == nil {
							firstErr = r.Err
						}
					} else {
						line.Status = r.Item.ComplianceStatus
					}
					out = append(out, line)
				}

				if opts.Format == "json" {
					if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
						return err
					}
				} else {
					for _, line := range out {
						if line.Error != "" {
							fmt.Fprintf(cmd.OutOrStdout(), "#%d: %s\n", line.ID, line.Error)
							continue
						}
						fmt.Fprintf(cmd.OutOrStdout(), "#%d: %s\n", line.ID, line.Status)
					}
				}

				if firstErr != nil {
					return WrapExitError(exitCodeFor(firstErr), action+" failed", firstErr)
				}
				return nil
			})
		},
	}
}

// NewDeactivateCommand hides items from the public feed.
func NewDeactivateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate ID...",
		Short: "Hide items from retrieval",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				for _, id := range ids {
					if err := a.Curation.Deactivate(ctx, id); err != nil {
						return WrapExitError(exitCodeFor(err), "deactivate failed", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "#%d: deactivated\n", id)
				}
				return nil
			})
		},
	}
}

// NewPriorityCommand overrides an item's priority tier.
func NewPriorityCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "priority ID TIER",
		Short: "Set the priority tier (1 Breaking .. 5 Archive)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:1])
			if err != nil {
				return err
			}
			tier, err := strconv.Atoi(args[1])
			if err != nil || !domain.ValidPriority(tier) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid priority %q: must be 1..5", args[1]))
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				if err := a.Curation.SetPriority(ctx, ids[0], tier); err != nil {
					return WrapExitError(exitCodeFor(err), "priority failed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d: priority %d (%s)\n", ids[0], tier, domain.PriorityName(tier))
				return nil
			})
		},
	}
}

// NewFeatureCommand pins an item at the top of the feed, or unpins it with --off.
func NewFeatureCommand(opts *RootOptions) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "feature ID",
		Short: "Pin an item at the top of the latest feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				if err := a.Curation.Feature(ctx, ids[0], !off); err != nil {
					return WrapExitError(exitCodeFor(err), "feature failed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d: featured=%t\n", ids[0], !off)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "remove the featured flag instead")
	return cmd
}

// NewPendingCommand lists the review queue.
func NewPendingCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List items awaiting review, most important first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				items, err := a.Curation.Pending(ctx, limit)
				if err != nil {
					return WrapExitError(exitCodeFor(err), "pending failed", err)
				}
				if opts.Format == "json" {
					public := make([]usecase.PublicItem, 0, len(items))
					for _, item := range items {
						public = append(public, usecase.ToPublic(item))
					}
					return writeJSON(cmd.OutOrStdout(), public)
				}
				for _, item := range items {
					fmt.Fprintln(cmd.OutOrStdout(), itemLine(item))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of items")
	return cmd
}

type approvedOutput struct {
	usecase.PublicItem
	RelevanceScore    float64    `json:"relevance_score"`
	ApprovalTimestamp *time.Time `json:"approval_timestamp"`
}

// NewApprovedCommand lists what is currently live, for curators.
func NewApprovedCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "approved",
		Short: "List live approved items by priority, most recently approved first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				items, err := a.Curation.Approved(ctx, limit)
				if err != nil {
					return WrapExitError(exitCodeFor(err), "approved failed", err)
				}
				if opts.Format == "json" {
					out := make([]approvedOutput, 0, len(items))
					for _, item := range items {
						out = append(out, approvedOutput{
							PublicItem:        usecase.ToPublic(item),
							RelevanceScore:    item.EngagementMetrics.BusinessRelevanceScore,
							ApprovalTimestamp: item.ApprovalTimestamp,
						})
					}
					return writeJSON(cmd.OutOrStdout(), out)
				}
				for _, item := range items {
					fmt.Fprintln(cmd.OutOrStdout(), itemLine(item))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of items")
	return cmd
}

// NewPicksCommand prints approved items older than two days as JSON.
func NewPicksCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "picks",
		Short: "Print approved items published more than 48h ago, best tier first, as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				result, err := a.Retrieval.Picks(ctx, limit)
				if err != nil {
					return WrapExitError(exitCodeFor(err), "picks failed", err)
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of items (default 5, at most 100)")
	return cmd
}

// NewBannerCommand previews the banner entries.
func NewBannerCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "banner",
		Short: "Print the items the banner shows, as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				result, err := a.Retrieval.Banner(ctx)
				if err != nil {
					return WrapExitError(exitCodeFor(err), "banner failed", err)
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

// NewLatestCommand prints the public feed as JSON.
func NewLatestCommand(opts *RootOptions) *cobra.Command {
	var (
		category string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print approved items, newest first, as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				result, err := a.Retrieval.Latest(ctx, category, limit)
				if err != nil {
					return WrapExitError(exitCodeFor(err), "latest failed", err)
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only items of this category")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of items (default 20, at most 100)")
	return cmd
}
