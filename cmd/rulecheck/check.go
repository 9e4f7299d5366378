package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/rulecheck/internal/app"
	"github.com/markdave123-py/rulecheck/internal/config"
	"github.com/markdave123-py/rulecheck/internal/core/pipeline"
	"github.com/markdave123-py/rulecheck/internal/models"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify one PDF against a set of rules",
	Long: `check reads the PDF given by --file and evaluates every --rule and every
rule in --rules-file (a JSON array of strings). The response is printed as
JSON on stdout; failures print {"error": "..."} and exit non-zero.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("file", "", "path to the PDF document")
	checkCmd.Flags().StringArray("rule", nil, "rule to check (repeatable)")
	checkCmd.Flags().String("rules-file", "", "path to a JSON array of rules")
	_ = checkCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	flagRules, _ := cmd.Flags().GetStringArray("rule")
	rulesFile, _ := cmd.Flags().GetString("rules-file")

	rules, err := collectRules(flagRules, rulesFile)
	if err != nil {
		return err
	}
	document, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	cfg := config.LoadConfig()
	logger := app.NewLogger(cfg.LogLevel)

	p, llmProvider, err := app.NewPipeline(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer llmProvider.Close()

	results, err := p.Run(cmd.Context(), pipeline.Request{
		Document: document,
		Filename: filepath.Base(path),
		Rules:    rules,
	})
	return printResult(cmd.OutOrStdout(), results, err)
}

// collectRules merges --rule values with the contents of --rules-file.
// Blank entries are left for the pipeline to drop.
func collectRules(flagRules []string, rulesFile string) ([]string, error) {
	rules := append([]string(nil), flagRules...)
	if rulesFile == "" {
		return rules, nil
	}
	data, err := os.ReadFile(rulesFile)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	fromFile, err := pipeline.DecodeRules(string(data))
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", rulesFile, err)
	}
	return append(rules, fromFile...), nil
}

// printResult writes the same body the HTTP API would return. A pipeline
// error is returned after printing so the process exits non-zero.
func printResult(w io.Writer, results []models.VerdictRecord, runErr error) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if runErr != nil {
		if err := enc.Encode(models.ErrorResponse{Error: pipeline.PublicMessage(runErr)}); err != nil {
			return err
		}
		return runErr
	}
	return enc.Encode(models.CheckResponse{Success: true, Results: results})
}
