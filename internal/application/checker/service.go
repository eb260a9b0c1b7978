// Package checker drives the verification pipeline: single checks, paced
// sequential bulk runs, persistence of successes and the audit trail around
// them.
package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/token-check-api/internal/audit"
	"github.com/token-check-api/internal/domain"
	"github.com/token-check-api/internal/pkg/fingerprint"
	"github.com/token-check-api/internal/pkg/id"
	"github.com/token-check-api/internal/pkg/sanitize"
	"github.com/token-check-api/internal/pkg/validate"
)

const (
	defaultMaxBulkTokens = 100
	defaultCheckDelay    = 200 * time.Millisecond
)

// TokenVerifier performs one token check against the upstream identity API.
type TokenVerifier interface {
	Check(ctx context.Context, token string) domain.TokenResult
}

// TokenStore persists and queries verified-token records.
type TokenStore interface {
	Save(ctx context.Context, res domain.TokenResult) (*domain.SavedToken, error)
	GetAll(ctx context.Context) ([]domain.SavedToken, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.SavedToken, error)
}

// ReportArchive stores the serialized report of one bulk run.
type ReportArchive interface {
	Store(ctx context.Context, batchID string, report []byte) (string, error)
}

// pipelineMetrics is the slice of the metrics collector the service needs.
type pipelineMetrics interface {
	RecordCheck(valid bool)
	RecordBatch(size int, d time.Duration)
}

// Service is the single entry point callers use.
type Service interface {
	CheckOne(ctx context.Context, token string) (domain.TokenResult, error)
	CheckMany(ctx context.Context, rawTokens string) (*domain.BulkCheckResult, error)
	ListSaved(ctx context.Context) ([]domain.SavedToken, error)
	ListSavedByUser(ctx context.Context, userID string) ([]domain.SavedToken, error)
}

// ServiceDeps holds the collaborators and policy knobs of the pipeline.
// Archive and Metrics are optional.
type ServiceDeps struct {
	Verifier      TokenVerifier
	Store         TokenStore
	Audit         audit.Recorder
	Archive       ReportArchive
	Metrics       pipelineMetrics
	MaxBulkTokens int
	CheckDelay    time.Duration
}

type service struct {
	verifier TokenVerifier
	store    TokenStore
	audit    audit.Recorder
	archive  ReportArchive
	metrics  pipelineMetrics
	maxBulk  int
	delay    time.Duration
}

func NewService(deps ServiceDeps) Service {
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}
	if deps.MaxBulkTokens <= 0 {
		deps.MaxBulkTokens = defaultMaxBulkTokens
	}
	if deps.CheckDelay <= 0 {
		deps.CheckDelay = defaultCheckDelay
	}
	return &service{
		verifier: deps.Verifier,
		store:    deps.Store,
		audit:    deps.Audit,
		archive:  deps.Archive,
		metrics:  deps.Metrics,
		maxBulk:  deps.MaxBulkTokens,
		delay:    deps.CheckDelay,
	}
}

// CheckOne format-validates the token, verifies it upstream and persists a
// valid outcome. Format failures return before any network call is made.
func (s *service) CheckOne(ctx context.Context, token string) (domain.TokenResult, error) {
	if err := validate.Struct(&domain.CheckTokenRequest{Token: token}); err != nil {
		return domain.TokenResult{}, fmt.Errorf("invalid token format: %w", domain.ErrBadRequest)
	}

	res := s.checkToken(ctx, token)
	s.persist(ctx, res)
	return res, nil
}

// CheckMany splits the newline-delimited blob, truncates it to the bulk limit
// and verifies each token strictly in order with a pause after every check.
// One failed token never aborts the run.
func (s *service) CheckMany(ctx context.Context, rawTokens string) (*domain.BulkCheckResult, error) {
	tokens := splitTokens(rawTokens)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no valid tokens provided: %w", domain.ErrBadRequest)
	}

	truncated := len(tokens) > s.maxBulk
	if truncated {
		tokens = tokens[:s.maxBulk]
	}

	batchID := id.New()
	start := time.Now()
	results := make([]domain.TokenResult, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, s.checkToken(ctx, token))

		// Pacing between upstream calls keeps the pipeline under the
		// upstream rate limit. Sequential by contract, not by accident.
		if err := s.pause(ctx); err != nil {
			return nil, err
		}
	}

	count := domain.BatchCount{Total: len(results)}
	for i := range results {
		if results[i].Valid {
			count.Valid++
		} else {
			count.Invalid++
		}
	}

	for i := range results {
		s.persist(ctx, results[i])
	}

	if s.metrics != nil {
		s.metrics.RecordBatch(len(results), time.Since(start))
	}
	s.audit.Record(ctx, audit.Event{
		Kind:    audit.KindInfo,
		Message: fmt.Sprintf("bulk check %s completed", batchID),
		Data: map[string]interface{}{
			"batch_id": batchID,
			"total":    count.Total,
			"valid":    count.Valid,
			"invalid":  count.Invalid,
		},
	})

	result := &domain.BulkCheckResult{Results: results, Count: count, Truncated: truncated}
	s.archiveReport(ctx, batchID, result)
	return result, nil
}

func (s *service) ListSaved(ctx context.Context) ([]domain.SavedToken, error) {
	recs, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sortByTimestampDesc(recs)
	return recs, nil
}

func (s *service) ListSavedByUser(ctx context.Context, userID string) ([]domain.SavedToken, error) {
	recs, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortByTimestampDesc(recs)
	return recs, nil
}

// checkToken runs one verification plus its bookkeeping. The audit event
// carries a fingerprint, never the token itself.
func (s *service) checkToken(ctx context.Context, token string) domain.TokenResult {
	res := s.verifier.Check(ctx, token)
	if s.metrics != nil {
		s.metrics.RecordCheck(res.Valid)
	}
	s.audit.Record(ctx, audit.Event{
		Kind:    audit.KindTokenCheck,
		Message: fmt.Sprintf("token %s checked: valid=%t", fingerprint.Token(token), res.Valid),
		Data: map[string]interface{}{
			"fingerprint": fingerprint.Token(token),
			"valid":       res.Valid,
		},
	})
	return res
}

// persist writes a valid outcome to the store. A store fault does not
// downgrade the verification result; it is surfaced on the audit channel.
func (s *service) persist(ctx context.Context, res domain.TokenResult) {
	if !res.Valid || res.User == nil {
		return
	}
	if _, err := s.store.Save(ctx, res); err != nil {
		s.audit.Record(ctx, audit.Event{
			Kind:    audit.KindError,
			Message: fmt.Sprintf("failed to persist verified token for user %s: %v", res.User.ID, err),
			Data: map[string]interface{}{
				"user_id":     res.User.ID,
				"fingerprint": fingerprint.Token(res.Token),
			},
		})
	}
}

// archiveReport uploads the sanitized batch report. Best-effort: archive
// faults never affect the returned result.
func (s *service) archiveReport(ctx context.Context, batchID string, result *domain.BulkCheckResult) {
	if s.archive == nil {
		return
	}
	report := map[string]interface{}{
		"batch_id":  batchID,
		"count":     result.Count,
		"truncated": result.Truncated,
		"results":   result.Results,
	}
	raw, err := json.Marshal(sanitize.Data(report))
	if err != nil {
		return
	}
	if _, err := s.archive.Store(ctx, batchID, raw); err != nil {
		s.audit.Record(ctx, audit.Event{
			Kind:    audit.KindError,
			Message: fmt.Sprintf("failed to archive report for batch %s: %v", batchID, err),
			Data:    map[string]interface{}{"batch_id": batchID},
		})
	}
}

// pause sleeps the inter-check delay, honouring cancellation between items.
func (s *service) pause(ctx context.Context) error {
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// splitTokens turns the raw blob into trimmed, non-empty candidate tokens.
func splitTokens(raw string) []string {
	var tokens []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tokens = append(tokens, line)
		}
	}
	return tokens
}

func sortByTimestampDesc(recs []domain.SavedToken) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp > recs[j].Timestamp })
}
