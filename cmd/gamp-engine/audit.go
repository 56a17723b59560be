// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gamp-engine/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect, verify, and export the audit trail",
	Long: `Audit reads the append-only, hash-chained audit trail. Use show to
follow one document's run, verify to recompute the hash chain, and export
to write the trail to YAML or JSON.`,
}

// --- show subcommand ---

var auditShowCmd = &cobra.Command{
	Use:   "show [correlation-id]",
	Short: "Show the audit entries for one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditShow,
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	store, err := auditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Entries(context.Background(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%6d  %s  %-24s  %s\n",
			e.Seq, e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), e.EventType, e.Payload)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}

// --- verify subcommand ---

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recompute the hash chain over the full audit trail",
	Long: `Verify recomputes every entry hash from the genesis entry forward and
reports the first break, if any. A clean run proves the trail has not
been altered, reordered, or truncated in the middle.`,
	RunE: runAuditVerify,
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	store, err := auditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Verify(context.Background())
	if err != nil {
		return fmt.Errorf("%w (%d entries verified before the break)", err, n)
	}
	fmt.Printf("Audit chain intact: %d entries verified\n", n)
	return nil
}

// --- export subcommand ---

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the audit trail to YAML or JSON",
	RunE:  runAuditExport,
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	correlationID, _ := cmd.Flags().GetString("id")

	store, err := auditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := loadConfig()
	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), correlationID); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.yaml\n", cfg.Audit.Dir)
	case "json":
		if err := store.ExportJSON(context.Background(), correlationID); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.json\n", cfg.Audit.Dir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

func auditStore() (*audit.Store, error) {
	return audit.NewStore(loadConfig().Audit)
}

func init() {
	auditShowCmd.Flags().Bool("json", false, "output entries as JSON")

	auditExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	auditExportCmd.Flags().String("id", "", "restrict the export to one correlation id")

	auditCmd.AddCommand(auditShowCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditExportCmd)

	rootCmd.AddCommand(auditCmd)
}
