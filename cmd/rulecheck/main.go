// Package main is the rulecheck command line. It runs one document through
// the verification pipeline and prints the JSON response.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rulecheck",
	Short: "Check PDF documents against natural-language rules",
	Long: `rulecheck extracts the text of a PDF, asks Gemini to judge it against
each rule and prints one verdict per rule.

Configuration is read from the environment and an optional .env file
(GEMINI_API_KEY, GEN_MODEL, MAX_DOCUMENT_CHARS, TEMP_DIR, LOG_LEVEL).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "rulecheck:", err)
		stop()
		os.Exit(1)
	}
}
