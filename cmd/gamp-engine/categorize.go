// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gamp-engine/internal/audit"
	"github.com/pdiddy/gamp-engine/internal/ingest"
	"github.com/pdiddy/gamp-engine/internal/pipeline"
	"github.com/pdiddy/gamp-engine/pkg/types"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize [file...]",
	Short: "Categorize requirements documents into GAMP 5 categories",
	Long: `Categorize runs requirements documents through evidence extraction,
scoring, and the decision engine. Documents whose top category clears its
confidence threshold are decided automatically; the rest open a
consultation request and block until a reviewer answers with
"gamp-engine consult resolve" or the consultation deadline expires.

With no arguments every .md and .txt file in the documents directory is
processed; file arguments restrict the run to those documents.`,
	RunE: runCategorize,
}

func runCategorize(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if dir, _ := cmd.Flags().GetString("documents-dir"); dir != "" {
		cfg.DocumentsDir = dir
	}
	if n, _ := cmd.Flags().GetInt("max-concurrent"); n > 0 {
		cfg.MaxConcurrent = n
	}
	if timeout, _ := cmd.Flags().GetDuration("consult-timeout"); timeout > 0 {
		cfg.Consultation.Timeout = timeout
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	docs, err := loadDocuments(cfg, args)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found in %s", cfg.DocumentsDir)
	}

	trail, err := audit.NewStore(cfg.Audit)
	if err != nil {
		return err
	}
	defer trail.Close()

	p, err := pipeline.New(cfg, trail, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := p.RunAll(ctx, docs, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("\n%d documents: %d engine, %d human, %d timed out, %d failed\n",
		summary.Total(), summary.Engine, summary.Human, summary.TimedOut, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) ended without a decision", summary.TimedOut+summary.Failed)
	}
	return nil
}

func loadDocuments(cfg types.PipelineConfig, args []string) ([]*types.RequirementsDocument, error) {
	if len(args) == 0 {
		return ingest.LoadDir(cfg.DocumentsDir)
	}
	docs := make([]*types.RequirementsDocument, 0, len(args))
	for _, path := range args {
		doc, err := ingest.Load(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func init() {
	categorizeCmd.Flags().String("documents-dir", "", "base directory for input documents (default from config)")
	categorizeCmd.Flags().Int("max-concurrent", 0, "maximum documents categorized in parallel (0 = config default)")
	categorizeCmd.Flags().Duration("consult-timeout", 0, "consultation deadline override, e.g. 30m (0 = config default)")
	categorizeCmd.Flags().Bool("verbose", false, "verbose logging")

	rootCmd.AddCommand(categorizeCmd)
}
