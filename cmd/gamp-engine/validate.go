// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gamp-engine/internal/decision"
	"github.com/pdiddy/gamp-engine/internal/evidence"
	"github.com/pdiddy/gamp-engine/internal/ingest"
	"github.com/pdiddy/gamp-engine/internal/scoring"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Score the engine against documents with declared categories",
	Long: `Validate runs evidence extraction, scoring, and the decision engine
over every document carrying a declared category in its metadata sidecar,
then reports agreement. Consultation is skipped and nothing is audited:
this is a dry read of the engine, not a categorization run.

Escalations count as neither agreement nor disagreement; they are the
engine saying it would have asked a human.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if dir, _ := cmd.Flags().GetString("documents-dir"); dir != "" {
		cfg.DocumentsDir = dir
	}

	extractor, err := evidence.New(cfg.Evidence)
	if err != nil {
		return err
	}
	scorer, err := scoring.New(cfg.Scoring)
	if err != nil {
		return err
	}
	engine, err := decision.New(cfg.Decision)
	if err != nil {
		return err
	}

	docs, err := ingest.LoadDir(cfg.DocumentsDir)
	if err != nil {
		return err
	}

	var agreed, disagreed, escalated, skipped int
	for _, doc := range docs {
		if doc.DeclaredCategory == nil {
			skipped++
			continue
		}

		findings, err := extractor.Extract(doc.ID, doc.Text)
		if err != nil {
			fmt.Fprintf(os.Stdout, "invalid    %s: %v\n", doc.ID, err)
			disagreed++
			continue
		}
		result := engine.Decide(doc.ID, scorer.Score(findings))

		switch {
		case result.Escalation != nil:
			escalated++
			fmt.Fprintf(os.Stdout, "escalated  %s: %s at %.2f (declared %s)\n",
				doc.ID, result.Decision.Category, result.Decision.Confidence, *doc.DeclaredCategory)
		case result.Decision.Category == *doc.DeclaredCategory:
			agreed++
			fmt.Fprintf(os.Stdout, "agreed     %s: %s at %.2f\n",
				doc.ID, result.Decision.Category, result.Decision.Confidence)
		default:
			disagreed++
			fmt.Fprintf(os.Stdout, "disagreed  %s: %s at %.2f (declared %s)\n",
				doc.ID, result.Decision.Category, result.Decision.Confidence, *doc.DeclaredCategory)
		}
	}

	total := agreed + disagreed + escalated
	if total == 0 {
		return fmt.Errorf("no documents with declared categories in %s", cfg.DocumentsDir)
	}

	fmt.Printf("\n%d documents: %d agreed, %d disagreed, %d escalated (%d without declared category)\n",
		total, agreed, disagreed, escalated, skipped)
	if disagreed > 0 {
		return fmt.Errorf("%d document(s) disagreed with their declared category", disagreed)
	}
	return nil
}

func init() {
	validateCmd.Flags().String("documents-dir", "", "base directory for input documents (default from config)")

	rootCmd.AddCommand(validateCmd)
}
