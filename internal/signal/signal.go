// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package signal queries an external suggestion service for candidate
// category indicators. Suggestions are advisory: every phrase returned here
// is re-verified against the document text before it can contribute
// evidence, and the service being unreachable never fails a
// categorization run. Implements: prd006-signal-assist (R1-R4).
package signal

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/gamp-engine/internal/evidence"
	"github.com/pdiddy/gamp-engine/internal/httputil"
	"github.com/pdiddy/gamp-engine/pkg/types"
)

// Client calls the suggestion endpoint with a content-addressed replay
// cache. Identical document text never triggers a second network call, so
// reruns of an already-processed corpus stay deterministic and offline.
type Client struct {
	cfg    types.SignalConfig
	client *http.Client
	logger *zap.Logger
}

// NewClient returns a Client. The cache directory is created eagerly so a
// misconfigured path fails at startup rather than mid-run.
func NewClient(cfg types.SignalConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Enabled && cfg.Endpoint == "" {
		return nil, fmt.Errorf("signal config: endpoint is required when enabled")
	}
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating signal cache directory: %w", err)
		}
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPConfig.Timeout},
		logger: logger,
	}, nil
}

// Enabled reports whether the client is configured to make calls.
func (c *Client) Enabled() bool { return c.cfg.Enabled }

// suggestRequest is the wire format sent to the suggestion service.
type suggestRequest struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

type suggestResponse struct {
	Suggestions []wireSuggestion `json:"suggestions"`
}

type wireSuggestion struct {
	Category int    `json:"category"`
	Phrase   string `json:"phrase"`
}

// Suggest returns candidate indicator phrases for the document text. A
// cache hit for identical text is served from disk (R3.1); otherwise the
// service is called and the response cached. Callers must pass the result
// through evidence.AdmitSuggestions before scoring.
func (c *Client) Suggest(ctx context.Context, docID, text string) ([]evidence.Suggestion, error) {
	if !c.cfg.Enabled {
		return nil, nil
	}

	key := contentKey(text)
	if cached, ok := c.readCache(key); ok {
		c.logger.Debug("signal cache hit",
			zap.String("document_id", docID),
			zap.String("content_key", key),
		)
		return cached, nil
	}

	body, err := json.Marshal(suggestRequest{DocumentID: docID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling suggestion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating suggestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("suggestion service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggestion service returned HTTP %d", resp.StatusCode)
	}

	var sr suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing suggestion response: %w", err)
	}

	suggestions := make([]evidence.Suggestion, 0, len(sr.Suggestions))
	for _, s := range sr.Suggestions {
		suggestions = append(suggestions, evidence.Suggestion{Category: s.Category, Phrase: s.Phrase})
	}

	c.writeCache(key, suggestions)
	return suggestions, nil
}

// contentKey is the hex SHA-256 of the document text; the cache is keyed
// on content, not document id, so renamed files still hit.
func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *Client) cachePath(key string) string {
	return filepath.Join(c.cfg.CacheDir, key+".json")
}

func (c *Client) readCache(key string) ([]evidence.Suggestion, bool) {
	if c.cfg.CacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		return nil, false
	}
	var suggestions []evidence.Suggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		c.logger.Warn("discarding corrupt signal cache entry",
			zap.String("content_key", key), zap.Error(err))
		os.Remove(c.cachePath(key))
		return nil, false
	}
	return suggestions, true
}

func (c *Client) writeCache(key string, suggestions []evidence.Suggestion) {
	if c.cfg.CacheDir == "" {
		return
	}
	data, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	tmp := c.cachePath(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		c.logger.Warn("failed to write signal cache entry", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, c.cachePath(key)); err != nil {
		c.logger.Warn("failed to publish signal cache entry", zap.Error(err))
	}
}
