package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/txsubmit/internal/control"
	"github.com/vietddude/txsubmit/internal/core/domain"
)

var (
	sendTx            string
	sendFile          string
	sendMaxRetries    int
	sendSkipPreflight bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a signed base64 transaction and wait for confirmation",
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendTx, "tx", "", "signed transaction, base64")
	sendCmd.Flags().StringVar(&sendFile, "file", "", "file holding the signed transaction, base64")
	sendCmd.Flags().IntVar(&sendMaxRetries, "max-retries", -1, "override submit.max_retries")
	sendCmd.Flags().BoolVar(&sendSkipPreflight, "skip-preflight", false, "skip preflight simulation")
	rootCmd.AddCommand(sendCmd)
}

// errSubmissionFailed marks a submission that ran but did not confirm; its
// message has already been printed.
var errSubmissionFailed = errors.New("submission failed")

func runSend(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	encoded := sendTx
	if sendFile != "" {
		data, err := os.ReadFile(sendFile)
		if err != nil {
			return fmt.Errorf("failed to read transaction file: %w", err)
		}
		encoded = string(data)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil || len(raw) == 0 {
		return errors.New("transaction must be non-empty base64")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	opts := app.Service.Defaults()
	if cmd.Flags().Changed("max-retries") {
		opts.MaxRetries = sendMaxRetries
	}
	opts.SendOptions.SkipPreflight = sendSkipPreflight

	rec, err := app.Service.SubmitRaw(ctx, raw, opts)
	if err != nil {
		return fmt.Errorf("submission could not start: %w", err)
	}

	if rec.Status == domain.SubmissionStatusConfirmed {
		fmt.Fprintln(cmd.OutOrStdout(), rec.Signature)
		return nil
	}

	fmt.Fprintln(cmd.ErrOrStderr(), rec.Message)
	slog.Debug("Submission failed", "id", rec.ID, "verdict", rec.Verdict, "attempts", rec.Attempts, "raw", rec.RawError)
	return errSubmissionFailed
}
