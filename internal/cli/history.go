package cli

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/txsubmit/internal/control"
	"github.com/vietddude/txsubmit/internal/core/domain"
)

var (
	historyLimit   int
	historyReview  bool
	historyResolve string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent submissions",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of submissions to show")
	historyCmd.Flags().BoolVar(&historyReview, "review", false, "show only failures queued for review")
	historyCmd.Flags().StringVar(&historyResolve, "resolve", "", "remove a submission ID from the review queue")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := context.Background()

	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	if historyResolve != "" {
		if err := app.Service.Resolve(ctx, historyResolve); err != nil {
			return fmt.Errorf("failed to resolve submission %s: %w", historyResolve, err)
		}
		slog.Info("Resolved submission", "id", historyResolve)
		return nil
	}

	var recs []*domain.SubmissionRecord
	if historyReview {
		recs, err = app.Service.PendingReview(ctx)
	} else {
		recs, err = app.Service.Recent(ctx, historyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to query submissions: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tVERDICT\tATTEMPTS\tSIGNATURE\tCREATED")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Status, r.Verdict, r.Attempts, r.Signature, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
