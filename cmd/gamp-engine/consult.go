// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gamp-engine/internal/audit"
	"github.com/pdiddy/gamp-engine/internal/consultation"
	"github.com/pdiddy/gamp-engine/pkg/types"
)

var consultCmd = &cobra.Command{
	Use:   "consult",
	Short: "List and resolve human consultation requests",
	Long: `Consult manages the human-review side of categorization. Escalated
documents appear here as pending requests; a reviewer resolves one by
naming the category and the rationale. A blocked categorize run picks the
resolution up immediately.`,
}

// --- list subcommand ---

var consultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List consultation requests",
	Long: `List shows every consultation request, pending and terminal. Request
files are never deleted, so this is the full escalation history.`,
	RunE: runConsultList,
}

func runConsultList(cmd *cobra.Command, args []string) error {
	mgr, cleanup, err := consultManager()
	if err != nil {
		return err
	}
	defer cleanup()

	requests, err := mgr.List()
	if err != nil {
		return err
	}

	pendingOnly, _ := cmd.Flags().GetBool("pending")
	if pendingOnly {
		var filtered []types.ConsultationRequest
		for _, r := range requests {
			if !r.Status.Terminal() {
				filtered = append(filtered, r)
			}
		}
		requests = filtered
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(requests)
	}

	if len(requests) == 0 {
		fmt.Println("No consultation requests.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-10s  %-10s  %-7s  %-10s  %s\n",
		"Request", "Document", "Candidate", "Confidence", "Urgency", "Status", "Deadline")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, r := range requests {
		docID := r.DocumentID
		if len(docID) > 20 {
			docID = docID[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-10s  %-10.2f  %-7s  %-10s  %s\n",
			r.ID, docID, r.Candidate, r.Confidence, r.Urgency, r.Status,
			r.CreatedAt.Add(r.Timeout).Format(time.RFC3339))
	}

	fmt.Fprintf(os.Stdout, "\n%d requests\n", len(requests))
	return nil
}

// --- resolve subcommand ---

var consultResolveCmd = &cobra.Command{
	Use:   "resolve [request-id]",
	Short: "Resolve a pending consultation request",
	Long: `Resolve records a reviewer's category for a pending request. The
category and a rationale are mandatory; a request that already reached a
terminal state is never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runConsultResolve,
}

func runConsultResolve(cmd *cobra.Command, args []string) error {
	categoryNum, _ := cmd.Flags().GetInt("category")
	rationale, _ := cmd.Flags().GetString("rationale")
	resolvedBy, _ := cmd.Flags().GetString("by")

	category, err := types.ParseCategory(categoryNum)
	if err != nil {
		return err
	}
	if resolvedBy == "" {
		resolvedBy = os.Getenv("USER")
	}

	mgr, cleanup, err := consultManager()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := mgr.Resolve(context.Background(), args[0], category, rationale, resolvedBy)
	if err != nil {
		return err
	}

	fmt.Printf("Resolved %s as %s\n", res.RequestID, res.Category)
	return nil
}

// consultManager builds a Manager over the configured directories. The
// audit store is needed because request creation and resolution pickup
// are audited; resolve itself only writes the resolution file.
func consultManager() (*consultation.Manager, func(), error) {
	cfg := loadConfig()

	trail, err := audit.NewStore(cfg.Audit)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(false)
	if err != nil {
		trail.Close()
		return nil, nil, err
	}

	mgr, err := consultation.NewManager(cfg.Consultation, trail, logger)
	if err != nil {
		trail.Close()
		return nil, nil, err
	}
	return mgr, func() { trail.Close() }, nil
}

func init() {
	consultListCmd.Flags().Bool("pending", false, "show only pending requests")
	consultListCmd.Flags().Bool("json", false, "output requests as JSON")

	consultResolveCmd.Flags().Int("category", 0, "GAMP category to assign: 1, 3, 4, or 5")
	consultResolveCmd.Flags().String("rationale", "", "reviewer rationale (required)")
	consultResolveCmd.Flags().String("by", "", "reviewer identifier (default: $USER)")
	consultResolveCmd.MarkFlagRequired("category")
	consultResolveCmd.MarkFlagRequired("rationale")

	consultCmd.AddCommand(consultListCmd)
	consultCmd.AddCommand(consultResolveCmd)

	rootCmd.AddCommand(consultCmd)
}
