// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

// ExportYAML writes the audit trail to dir/export.yaml. An empty
// correlationID exports the full chain; otherwise only that document's
// entries (R3.3).
func (s *Store) ExportYAML(ctx context.Context, correlationID string) error {
	entries, err := s.exportEntries(ctx, correlationID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, "export.yaml"), data, 0o644)
}

// ExportJSON writes the audit trail to dir/export.json.
func (s *Store) ExportJSON(ctx context.Context, correlationID string) error {
	entries, err := s.exportEntries(ctx, correlationID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, "export.json"), data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, correlationID string) ([]types.AuditEntry, error) {
	if correlationID == "" {
		return s.All(ctx)
	}
	return s.Entries(ctx, correlationID)
}
