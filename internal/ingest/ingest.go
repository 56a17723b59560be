// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest loads requirements documents from the documents
// directory. A document is a .md or .txt file; its id is the filename
// without the extension. An optional metadata sidecar at
// documents/metadata/[id].yaml declares the expected category for
// validation-set documents. Implements: prd006-pipeline (R1).
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gamp-engine/pkg/types"
)

const metadataDir = "metadata"

// Load reads a single document file and its metadata sidecar, if present.
func Load(path string) (*types.RequirementsDocument, error) {
	ext := filepath.Ext(path)
	if ext != ".md" && ext != ".txt" {
		return nil, fmt.Errorf("unsupported document type %q (want .md or .txt)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	id := strings.TrimSuffix(filepath.Base(path), ext)
	doc := &types.RequirementsDocument{
		ID:         id,
		Text:       normalize(string(data)),
		IngestedAt: time.Now().UTC(),
	}

	meta, err := loadMetadata(filepath.Join(filepath.Dir(path), metadataDir, id+".yaml"))
	if err != nil {
		return nil, err
	}
	if meta != nil && meta.DeclaredCategory != 0 {
		cat, err := types.ParseCategory(meta.DeclaredCategory)
		if err != nil {
			return nil, fmt.Errorf("metadata for %s: %w", id, err)
		}
		doc.DeclaredCategory = &cat
	}
	return doc, nil
}

// LoadDir reads every document under dir, sorted by id so batch runs
// process documents in a stable order.
func LoadDir(dir string) ([]*types.RequirementsDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading documents directory %s: %w", dir, err)
	}

	var docs []*types.RequirementsDocument
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".md" && ext != ".txt" {
			continue
		}
		doc, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", entry.Name(), err)
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// loadMetadata returns nil without error when no sidecar exists.
func loadMetadata(path string) (*types.DocumentMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading metadata sidecar: %w", err)
	}
	var meta types.DocumentMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing metadata sidecar %s: %w", path, err)
	}
	return &meta, nil
}

// normalize unifies line endings and trims trailing whitespace so the
// signal cache key is stable across checkouts.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimRight(text, " \t\n")
}
