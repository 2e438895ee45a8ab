package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/txsubmit/internal/submit/classify"
)

var explainCmd = &cobra.Command{
	Use:   "explain [error message]",
	Short: "Show how an error message is classified and what a user would see",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		msg := strings.Join(args, " ")
		verdict := classify.ClassifyMessage(msg)
		fmt.Printf("verdict:   %s\n", verdict)
		fmt.Printf("retryable: %t\n", verdict.IsRetryable())
		fmt.Printf("message:   %s\n", classify.FormatMessage(msg))
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
