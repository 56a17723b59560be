// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package consultation tracks pending human-review requests and enforces
// their wall-clock deadlines. The resolution channel is file-based: a
// reviewer (or the consult resolve subcommand) writes a resolution YAML
// into the resolved/ directory, and the waiting pipeline picks it up via
// file notifications with a poll fallback. A request that reaches its
// deadline transitions to timed_out and the wait fails — the manager never
// returns a default category. Implements: prd004-consultation (R1-R5).
package consultation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gamp-engine/internal/audit"
	"github.com/pdiddy/gamp-engine/pkg/types"
)

const (
	pendingDir  = "pending"
	resolvedDir = "resolved"
)

// ErrTimeout reports that a consultation deadline elapsed with no human
// response. Callers propagate this as a hard failure; it is never mapped to
// a category (R4.1).
var ErrTimeout = errors.New("consultation timed out before resolution")

// Manager owns the consultation request lifecycle.
type Manager struct {
	cfg    types.ConsultationConfig
	trail  *audit.Store
	logger *zap.Logger
}

// NewManager creates the channel directories and returns a Manager.
func NewManager(cfg types.ConsultationConfig, trail *audit.Store, logger *zap.Logger) (*Manager, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("consultation config: timeout must be positive")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	for _, dir := range []string{
		filepath.Join(cfg.Dir, pendingDir),
		filepath.Join(cfg.Dir, resolvedDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating consultation directory: %w", err)
		}
	}
	return &Manager{cfg: cfg, trail: trail, logger: logger}, nil
}

// RequestParams carries the escalation context for a new request.
type RequestParams struct {
	DocumentID string
	Candidate  types.Category
	Confidence float64
	Threshold  float64
	Reason     string
	Urgency    types.ConsultationUrgency
	Timeout    time.Duration // zero uses the configured default
}

// Request creates a pending consultation request, persists it to
// pending/[id].yaml, and appends an audit entry (R1.1-R1.3). Request files
// are never deleted; terminal transitions rewrite them in place.
func (m *Manager) Request(ctx context.Context, p RequestParams) (*types.ConsultationRequest, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = m.cfg.Timeout
	}
	urgency := p.Urgency
	if urgency == "" {
		urgency = types.UrgencyNormal
	}

	req := &types.ConsultationRequest{
		ID:            uuid.NewString(),
		DocumentID:    p.DocumentID,
		Candidate:     p.Candidate,
		Confidence:    p.Confidence,
		Threshold:     p.Threshold,
		Reason:        p.Reason,
		Urgency:       urgency,
		ExpertiseTags: m.cfg.ExpertiseTags,
		CreatedAt:     time.Now().UTC(),
		Timeout:       timeout,
		Status:        types.ConsultationPending,
	}

	if err := m.writeRequest(req); err != nil {
		return nil, err
	}

	if _, err := m.trail.Append(ctx, p.DocumentID, types.EventConsultationRequested, req); err != nil {
		return nil, fmt.Errorf("auditing consultation request: %w", err)
	}

	m.logger.Info("consultation requested",
		zap.String("request_id", req.ID),
		zap.String("document_id", req.DocumentID),
		zap.String("reason", req.Reason),
		zap.String("urgency", string(req.Urgency)),
		zap.Duration("timeout", req.Timeout),
	)
	return req, nil
}

// Await blocks until the request is resolved, its deadline passes, or ctx
// is cancelled. On resolution it transitions the request to resolved,
// appends an audit entry, and returns the human's answer. On deadline it
// transitions to timed_out, appends an audit entry explicitly marked as a
// failure requiring resolution, and returns ErrTimeout — never a default
// (R4.1-R4.3). Cancellation is likewise audited before propagating (R4.4).
func (m *Manager) Await(ctx context.Context, req *types.ConsultationRequest) (*types.Resolution, error) {
	deadline := req.CreatedAt.Add(req.Timeout)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating resolution watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Join(m.cfg.Dir, resolvedDir)); err != nil {
		return nil, fmt.Errorf("watching resolution directory: %w", err)
	}

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		res, ok, err := m.tryLoadResolution(req)
		if err != nil {
			return nil, err
		}
		if ok {
			return m.acceptResolution(ctx, req, res)
		}

		select {
		case <-ctx.Done():
			m.auditTermination(req, types.EventConsultationCancelled, time.Since(req.CreatedAt))
			return nil, ctx.Err()
		case <-timer.C:
			return nil, m.timeOut(req)
		case <-watcher.Events:
		case werr := <-watcher.Errors:
			m.logger.Warn("resolution watcher error", zap.Error(werr))
		case <-ticker.C:
		}
	}
}

// Resolve records a human answer for a pending request. It fails with
// AlreadyResolvedError when the request already reached a terminal state:
// a human decision is never overwritten (R3.4). The resolution file is
// written atomically so a concurrent Await never reads a partial file.
func (m *Manager) Resolve(ctx context.Context, requestID string, category types.Category, rationale, resolvedBy string) (*types.Resolution, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("resolve %s: invalid category %d", requestID, int(category))
	}
	if rationale == "" {
		return nil, fmt.Errorf("resolve %s: rationale is required", requestID)
	}

	req, err := m.Get(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, &types.AlreadyResolvedError{RequestID: requestID, Status: req.Status}
	}
	if _, err := os.Stat(m.resolutionPath(requestID)); err == nil {
		return nil, &types.AlreadyResolvedError{RequestID: requestID, Status: types.ConsultationResolved}
	}

	res := &types.Resolution{
		RequestID:  requestID,
		Category:   category,
		Rationale:  rationale,
		ResolvedBy: resolvedBy,
		ResolvedAt: time.Now().UTC(),
	}

	data, err := yaml.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshaling resolution: %w", err)
	}
	tmp := m.resolutionPath(requestID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing resolution: %w", err)
	}
	if err := os.Rename(tmp, m.resolutionPath(requestID)); err != nil {
		return nil, fmt.Errorf("publishing resolution: %w", err)
	}

	m.logger.Info("consultation resolution submitted",
		zap.String("request_id", requestID),
		zap.Int("category", int(category)),
		zap.String("resolved_by", resolvedBy),
	)
	return res, nil
}

// Get loads a request by id from the pending directory.
func (m *Manager) Get(requestID string) (*types.ConsultationRequest, error) {
	path := filepath.Join(m.cfg.Dir, pendingDir, requestID+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("unknown consultation request %q", requestID)
		}
		return nil, fmt.Errorf("reading request %s: %w", requestID, err)
	}
	var req types.ConsultationRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing request %s: %w", requestID, err)
	}
	return &req, nil
}

// List returns every known request, pending and terminal, sorted by
// creation time. Requests are never deleted, so this is the full history.
func (m *Manager) List() ([]types.ConsultationRequest, error) {
	dir := filepath.Join(m.cfg.Dir, pendingDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading consultation directory: %w", err)
	}

	var requests []types.ConsultationRequest
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			m.logger.Warn("unreadable consultation request", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		var req types.ConsultationRequest
		if err := yaml.Unmarshal(data, &req); err != nil {
			m.logger.Warn("unparsable consultation request", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		requests = append(requests, req)
	}

	for i := 1; i < len(requests); i++ {
		for j := i; j > 0 && requests[j].CreatedAt.Before(requests[j-1].CreatedAt); j-- {
			requests[j], requests[j-1] = requests[j-1], requests[j]
		}
	}
	return requests, nil
}

// tryLoadResolution checks for a valid resolution file for req. Invalid
// files are logged and skipped so a malformed submission cannot resolve a
// request (R3.2).
func (m *Manager) tryLoadResolution(req *types.ConsultationRequest) (*types.Resolution, bool, error) {
	data, err := os.ReadFile(m.resolutionPath(req.ID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading resolution for %s: %w", req.ID, err)
	}

	var res types.Resolution
	if err := yaml.Unmarshal(data, &res); err != nil {
		m.logger.Warn("ignoring unparsable resolution file",
			zap.String("request_id", req.ID), zap.Error(err))
		return nil, false, nil
	}
	if res.RequestID != req.ID || !res.Category.Valid() || res.Rationale == "" {
		m.logger.Warn("ignoring invalid resolution file",
			zap.String("request_id", req.ID),
			zap.String("resolution_request_id", res.RequestID),
			zap.Int("category", int(res.Category)),
		)
		return nil, false, nil
	}
	return &res, true, nil
}

func (m *Manager) acceptResolution(ctx context.Context, req *types.ConsultationRequest, res *types.Resolution) (*types.Resolution, error) {
	req.Status = types.ConsultationResolved
	if err := m.writeRequest(req); err != nil {
		return nil, err
	}
	if _, err := m.trail.Append(ctx, req.DocumentID, types.EventConsultationResolved, res); err != nil {
		return nil, fmt.Errorf("auditing consultation resolution: %w", err)
	}

	m.logger.Info("consultation resolved",
		zap.String("request_id", req.ID),
		zap.String("document_id", req.DocumentID),
		zap.Int("category", int(res.Category)),
		zap.String("resolved_by", res.ResolvedBy),
	)
	return res, nil
}

// timeOut transitions the request to timed_out and audits the failure. The
// audit payload is explicitly marked as requiring resolution so downstream
// consumers can never mistake it for a reviewed decision (R4.2, R5.2).
func (m *Manager) timeOut(req *types.ConsultationRequest) error {
	elapsed := time.Since(req.CreatedAt)

	req.Status = types.ConsultationTimedOut
	if err := m.writeRequest(req); err != nil {
		return err
	}
	m.auditTermination(req, types.EventConsultationTimedOut, elapsed)

	m.logger.Error("consultation timed out",
		zap.String("request_id", req.ID),
		zap.String("document_id", req.DocumentID),
		zap.Duration("elapsed", elapsed),
	)
	return fmt.Errorf("request %s for document %s after %v: %w",
		req.ID, req.DocumentID, elapsed.Round(time.Millisecond), ErrTimeout)
}

type terminationPayload struct {
	RequestID           string                   `json:"request_id"`
	DocumentID          string                   `json:"document_id"`
	Status              types.ConsultationStatus `json:"status"`
	Source              string                   `json:"source"`
	ElapsedMilliseconds int64                    `json:"elapsed_ms"`
	RequiresResolution  bool                     `json:"requires_resolution"`
}

func (m *Manager) auditTermination(req *types.ConsultationRequest, event types.AuditEventType, elapsed time.Duration) {
	payload := terminationPayload{
		RequestID:           req.ID,
		DocumentID:          req.DocumentID,
		Status:              types.ConsultationTimedOut,
		Source:              "timeout_failure",
		ElapsedMilliseconds: elapsed.Milliseconds(),
		RequiresResolution:  true,
	}
	if event == types.EventConsultationCancelled {
		payload.Status = types.ConsultationPending
		payload.Source = "cancelled"
	}

	// The owning context is typically already cancelled or past deadline;
	// the audit write must still land.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := m.trail.Append(ctx, req.DocumentID, event, payload); err != nil {
		m.logger.Error("failed to audit consultation termination",
			zap.String("request_id", req.ID), zap.Error(err))
	}
}

func (m *Manager) writeRequest(req *types.ConsultationRequest) error {
	data, err := yaml.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	path := filepath.Join(m.cfg.Dir, pendingDir, req.ID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing request: %w", err)
	}
	return nil
}

func (m *Manager) resolutionPath(requestID string) string {
	return filepath.Join(m.cfg.Dir, resolvedDir, requestID+".yaml")
}
