// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a document through extraction, scoring,
// decision, and consultation, recording every stage transition in the
// audit trail. A document either ends with a finalized decision or with
// an explicit failure; there is no path that substitutes a default
// category for a missing answer. Implements: prd006-pipeline (R2-R5).
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/gamp-engine/internal/audit"
	"github.com/pdiddy/gamp-engine/internal/consultation"
	"github.com/pdiddy/gamp-engine/internal/decision"
	"github.com/pdiddy/gamp-engine/internal/evidence"
	"github.com/pdiddy/gamp-engine/internal/scoring"
	"github.com/pdiddy/gamp-engine/internal/signal"
	"github.com/pdiddy/gamp-engine/pkg/types"
)

const defaultMaxConcurrent = 4

// Pipeline wires the categorization stages together. One Pipeline serves
// any number of documents; per-document state lives on the stack of
// Categorize.
type Pipeline struct {
	cfg       types.PipelineConfig
	extractor *evidence.Extractor
	scorer    *scoring.Scorer
	engine    *decision.Engine
	consult   *consultation.Manager
	signals   *signal.Client
	trail     *audit.Store
	logger    *zap.Logger
}

// New validates the configuration and constructs every stage. Any
// misconfiguration fails here, before the first document is touched.
func New(cfg types.PipelineConfig, trail *audit.Store, logger *zap.Logger) (*Pipeline, error) {
	extractor, err := evidence.New(cfg.Evidence)
	if err != nil {
		return nil, fmt.Errorf("evidence stage: %w", err)
	}
	scorer, err := scoring.New(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("scoring stage: %w", err)
	}
	engine, err := decision.New(cfg.Decision)
	if err != nil {
		return nil, fmt.Errorf("decision stage: %w", err)
	}
	consult, err := consultation.NewManager(cfg.Consultation, trail, logger)
	if err != nil {
		return nil, fmt.Errorf("consultation stage: %w", err)
	}
	signals, err := signal.NewClient(cfg.Signal, logger)
	if err != nil {
		return nil, fmt.Errorf("signal stage: %w", err)
	}
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		scorer:    scorer,
		engine:    engine,
		consult:   consult,
		signals:   signals,
		trail:     trail,
		logger:    logger,
	}, nil
}

// Consultations exposes the consultation manager for the CLI's consult
// subcommands.
func (p *Pipeline) Consultations() *consultation.Manager { return p.consult }

type ingestedPayload struct {
	DocumentID       string `json:"document_id"`
	TextSHA256       string `json:"text_sha256"`
	TextLength       int    `json:"text_length"`
	DeclaredCategory int    `json:"declared_category,omitempty"`
}

type evidencePayload struct {
	DocumentID   string                  `json:"document_id"`
	FindingCount int                     `json:"finding_count"`
	Findings     []types.EvidenceFinding `json:"findings"`
}

type scoresPayload struct {
	DocumentID string                                  `json:"document_id"`
	Scores     map[types.Category]types.CategoryScore `json:"scores"`
}

type failurePayload struct {
	DocumentID string `json:"document_id"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}

// Categorize runs one document through the full pipeline. The returned
// outcome is resolved on success and a timeout diagnostic when
// consultation expired; any other failure returns only an error. Every
// stage transition is audited under the document id (R2.1).
func (p *Pipeline) Categorize(ctx context.Context, doc *types.RequirementsDocument) (types.DecisionOutcome, error) {
	sum := sha256.Sum256([]byte(doc.Text))
	ingested := ingestedPayload{
		DocumentID: doc.ID,
		TextSHA256: hex.EncodeToString(sum[:]),
		TextLength: len(doc.Text),
	}
	if doc.DeclaredCategory != nil {
		ingested.DeclaredCategory = int(*doc.DeclaredCategory)
	}
	if _, err := p.trail.Append(ctx, doc.ID, types.EventDocumentIngested, ingested); err != nil {
		return types.DecisionOutcome{}, fmt.Errorf("auditing ingestion: %w", err)
	}

	findings, err := p.extractor.Extract(doc.ID, doc.Text)
	if err != nil {
		p.auditFailure(ctx, doc.ID, "evidence", err)
		return types.DecisionOutcome{}, err
	}

	if p.signals.Enabled() {
		suggestions, err := p.signals.Suggest(ctx, doc.ID, doc.Text)
		if err != nil {
			// Suggestions are advisory; curated evidence carries the run.
			p.logger.Warn("suggestion service unavailable, continuing with curated indicators",
				zap.String("document_id", doc.ID), zap.Error(err))
		} else {
			findings = p.extractor.AdmitSuggestions(doc.Text, findings, suggestions)
		}
	}

	if _, err := p.trail.Append(ctx, doc.ID, types.EventEvidenceExtracted, evidencePayload{
		DocumentID:   doc.ID,
		FindingCount: len(findings),
		Findings:     findings,
	}); err != nil {
		return types.DecisionOutcome{}, fmt.Errorf("auditing evidence: %w", err)
	}

	scores := p.scorer.Score(findings)
	if _, err := p.trail.Append(ctx, doc.ID, types.EventScoresComputed, scoresPayload{
		DocumentID: doc.ID,
		Scores:     scores,
	}); err != nil {
		return types.DecisionOutcome{}, fmt.Errorf("auditing scores: %w", err)
	}

	result := p.engine.Decide(doc.ID, scores)
	if _, err := p.trail.Append(ctx, doc.ID, types.EventDecisionMade, result.Decision); err != nil {
		return types.DecisionOutcome{}, fmt.Errorf("auditing decision: %w", err)
	}

	p.logger.Info("decision computed",
		zap.String("document_id", doc.ID),
		zap.Int("category", int(result.Decision.Category)),
		zap.Float64("confidence", result.Decision.Confidence),
		zap.Float64("threshold", result.Decision.Threshold),
		zap.Bool("requires_consultation", result.Decision.RequiresConsultation),
	)

	if result.Escalation == nil {
		if err := p.complete(ctx, doc.ID, result.Decision); err != nil {
			return types.DecisionOutcome{}, err
		}
		return types.ResolvedOutcome(result.Decision), nil
	}

	return p.escalate(ctx, doc, result, findings, scores)
}

// escalate routes a provisional decision through human consultation. A
// timeout is returned as both a tagged outcome and an error so no caller
// can miss it (R4.1).
func (p *Pipeline) escalate(
	ctx context.Context,
	doc *types.RequirementsDocument,
	result decision.Result,
	findings []types.EvidenceFinding,
	scores map[types.Category]types.CategoryScore,
) (types.DecisionOutcome, error) {
	req, err := p.consult.Request(ctx, consultation.RequestParams{
		DocumentID: doc.ID,
		Candidate:  result.Decision.Category,
		Confidence: result.Decision.Confidence,
		Threshold:  result.Decision.Threshold,
		Reason:     result.Escalation.Reason,
		Urgency:    result.Escalation.Urgency,
	})
	if err != nil {
		p.auditFailure(ctx, doc.ID, "consultation", err)
		return types.DecisionOutcome{}, err
	}

	res, err := p.consult.Await(ctx, req)
	if err != nil {
		if errors.Is(err, consultation.ErrTimeout) {
			timeoutErr := &types.ConsultationTimeoutError{
				DocumentID:   doc.ID,
				RequestID:    req.ID,
				Scores:       scores,
				FindingCount: len(findings),
				Candidate:    result.Decision.Category,
				Confidence:   result.Decision.Confidence,
				Threshold:    result.Decision.Threshold,
				Elapsed:      time.Since(req.CreatedAt),
			}
			p.auditFailure(ctx, doc.ID, "consultation", timeoutErr)
			return types.TimedOutOutcome(timeoutErr), timeoutErr
		}
		p.auditFailure(ctx, doc.ID, "consultation", err)
		return types.DecisionOutcome{}, err
	}

	final := decision.FromResolution(doc.ID, *res, scores, p.cfg.Decision)
	if _, err := p.trail.Append(ctx, doc.ID, types.EventDecisionMade, final); err != nil {
		return types.DecisionOutcome{}, fmt.Errorf("auditing final decision: %w", err)
	}
	if err := p.complete(ctx, doc.ID, final); err != nil {
		return types.DecisionOutcome{}, err
	}
	return types.ResolvedOutcome(final), nil
}

func (p *Pipeline) complete(ctx context.Context, docID string, d *types.CategorizationDecision) error {
	if _, err := p.trail.Append(ctx, docID, types.EventPipelineCompleted, d); err != nil {
		return fmt.Errorf("auditing completion: %w", err)
	}
	return nil
}

// auditFailure records a pipeline failure. The failure entry is
// best-effort: the original error is what propagates to the caller.
func (p *Pipeline) auditFailure(ctx context.Context, docID, stage string, cause error) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := p.trail.Append(auditCtx, docID, types.EventPipelineFailed, failurePayload{
		DocumentID: docID,
		Stage:      stage,
		Error:      cause.Error(),
	}); err != nil {
		p.logger.Error("failed to audit pipeline failure",
			zap.String("document_id", docID), zap.Error(err))
	}
}

// BatchSummary holds counts from a batch categorization run.
type BatchSummary struct {
	Engine   int // decided above threshold, no consultation
	Human    int // decided through consultation
	TimedOut int // consultation deadline expired
	Failed   int // any other failure
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Engine + s.Human + s.TimedOut + s.Failed
}

// HasFailures reports whether any document ended without a decision.
func (s BatchSummary) HasFailures() bool {
	return s.TimedOut > 0 || s.Failed > 0
}

// RunAll categorizes every document with bounded concurrency, writing
// one progress line per document to w. A failed document never aborts
// the batch; it is counted and reported in the summary (R5.1, R5.2).
func (p *Pipeline) RunAll(ctx context.Context, docs []*types.RequirementsDocument, w io.Writer) (BatchSummary, error) {
	limit := p.cfg.MaxConcurrent
	if limit <= 0 {
		limit = defaultMaxConcurrent
	}

	var mu sync.Mutex
	var summary BatchSummary

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			outcome, err := p.Categorize(gctx, doc)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				d, _ := outcome.Resolved()
				if d.Source == types.SourceHuman {
					summary.Human++
				} else {
					summary.Engine++
				}
				fmt.Fprintf(w, "decided   %s: %s (%.2f, %s)\n", doc.ID, d.Category, d.Confidence, d.Source)
			case isTimeout(outcome):
				summary.TimedOut++
				fmt.Fprintf(w, "timed_out %s: %v\n", doc.ID, err)
			default:
				summary.Failed++
				fmt.Fprintf(w, "failed    %s: %v\n", doc.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func isTimeout(outcome types.DecisionOutcome) bool {
	_, ok := outcome.TimedOut()
	return ok
}
