/*
Copyright 2025 Finrecon Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package finrecon

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/raynanbulhoes22/finrecon/cache"
	"github.com/raynanbulhoes22/finrecon/config"
	"github.com/raynanbulhoes22/finrecon/internal/apierror"
	redlock "github.com/raynanbulhoes22/finrecon/internal/lock"
	"github.com/raynanbulhoes22/finrecon/model"
)

// Stale section names returned on EvaluationResult.Stale when a
// collaborator fetch fails mid-evaluation.
const (
	StaleCommitments  = "commitments"
	StaleTransactions = "transactions"
)

// EvaluationOptions controls a period evaluation.
type EvaluationOptions struct {
	// AutoReconcile persists high-confidence unambiguous matches without
	// user confirmation. Implies a cache bypass since it writes.
	AutoReconcile bool
}

// EvaluationResult is the full outcome of evaluating one user's period.
type EvaluationResult struct {
	UserID      string                        `json:"user_id"`
	Period      model.Period                  `json:"period"`
	Records     []*model.ReconciliationRecord `json:"records"`
	Suggestions []model.MatchCandidate        `json:"suggestions"`
	Stats       model.PeriodStats             `json:"stats"`
	// Stale names the sections served from a failed collaborator fetch;
	// empty means every section is fresh.
	Stale []string `json:"stale,omitempty"`
	// CachedAt is the computation time. Non-zero on a cache read, which is
	// how callers (and the cache layer's silent-miss Get) distinguish a
	// hit from an absent entry.
	CachedAt time.Time `json:"cached_at"`
}

// EvaluatePeriod projects the user's commitments into (month, year),
// synchronizes the reconciliation records, scores the period's
// transactions against every open event, and returns ranked suggestions
// plus completion stats. Evaluation is idempotent: with unchanged upstream
// data two calls return identical records and suggestions, order included.
//
// Collaborator fetch failures degrade rather than abort: the affected
// section is named in Stale and the rest of the result is served.
func (f *Finrecon) EvaluatePeriod(ctx context.Context, userID string, month, year int, opts EvaluationOptions) (*EvaluationResult, error) {
	if month < 1 || month > 12 {
		return nil, apierror.NewValidationError(fmt.Sprintf("month must be between 1 and 12, got %d", month))
	}
	if year < 1 {
		return nil, apierror.NewValidationError(fmt.Sprintf("year must be positive, got %d", year))
	}

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	if !opts.AutoReconcile {
		if cached := f.cachedEvaluation(ctx, userID, month, year); cached != nil {
			return cached, nil
		}
	}

	var stale []string
	commitmentsStale := false

	snapshot, err := f.datasource.GetActiveCommitments(ctx, userID)
	if err != nil {
		logrus.WithError(err).Warn("commitment fetch failed, serving stale section")
		stale = append(stale, StaleCommitments)
		commitmentsStale = true
		snapshot = &model.CommitmentSnapshot{}
	}

	events, err := ExpectedEvents(snapshot, month, year, cfg.Matching)
	if err != nil {
		return nil, err
	}

	var records []*model.ReconciliationRecord
	if commitmentsStale {
		// A stale snapshot says nothing about which commitments went
		// inactive, so the stored records are served as-is; dismissal only
		// runs against a fresh projection.
		records, err = f.datasource.GetReconciliationRecords(ctx, userID, month, year)
	} else {
		records, err = f.syncRecords(ctx, userID, month, year, events)
	}
	if err != nil {
		return nil, err
	}

	pool, err := f.datasource.GetTransactionsForPeriod(ctx, userID, month, year)
	if err != nil {
		logrus.WithError(err).Warn("transaction fetch failed, serving stale section")
		stale = append(stale, StaleTransactions)
		pool = nil
	}

	suggestions, relinked, err := f.matchEvents(ctx, events, records, pool, cfg.Matching, opts)
	if err != nil {
		return nil, err
	}
	if relinked {
		// Auto-accepts were written; re-read so records reflect them.
		records, err = f.datasource.GetReconciliationRecords(ctx, userID, month, year)
		if err != nil {
			return nil, err
		}
	}

	result := &EvaluationResult{
		UserID:      userID,
		Period:      model.Period{Month: month, Year: year},
		Records:     records,
		Suggestions: suggestions,
		Stats:       ComputeStats(records),
		Stale:       stale,
		CachedAt:    time.Now(),
	}

	if f.cache != nil && len(stale) == 0 {
		ttl := time.Duration(cfg.Matching.CacheTTLSeconds) * time.Second
		// The cache write runs off the request path; detach the context but
		// keep the span so the write still shows up in the trace.
		cacheCtx := trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx))
		go func() {
			if err := f.cache.Set(cacheCtx, cache.EvaluationKey(userID, month, year), result, ttl); err != nil {
				logrus.WithError(err).Warn("failed to cache evaluation result")
			}
		}()
	}

	return result, nil
}

func (f *Finrecon) cachedEvaluation(ctx context.Context, userID string, month, year int) *EvaluationResult {
	if f.cache == nil {
		return nil
	}
	var cached EvaluationResult
	if err := f.cache.Get(ctx, cache.EvaluationKey(userID, month, year), &cached); err != nil {
		logrus.WithError(err).Warn("evaluation cache read failed")
		return nil
	}
	if cached.CachedAt.IsZero() {
		return nil
	}
	return &cached
}

// syncRecords lazily creates or refreshes one record per projected event
// and dismisses records whose commitment is no longer projected. Returns
// the period's records after synchronization.
func (f *Finrecon) syncRecords(ctx context.Context, userID string, month, year int, events []model.ExpectedEvent) ([]*model.ReconciliationRecord, error) {
	now := time.Now()
	projected := make(map[string]bool, len(events))

	for _, event := range events {
		projected[eventKey(event.Kind, event.SourceID)] = true

		status := model.StatusPending
		if now.After(event.ExpectedDate) {
			status = model.StatusOverdue
		}
		_, err := f.datasource.UpsertReconciliationRecord(ctx, &model.ReconciliationRecord{
			RecordID:       model.GenerateUUIDWithSuffix("recon"),
			UserID:         userID,
			Month:          month,
			Year:           year,
			EventKind:      event.Kind,
			EventID:        event.SourceID,
			Status:         status,
			ExpectedAmount: event.ExpectedAmount,
			ExpectedDate:   event.ExpectedDate,
		})
		if err != nil {
			return nil, err
		}
	}

	records, err := f.datasource.GetReconciliationRecords(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	dismissed := false
	for _, rec := range records {
		if rec.Status == model.StatusNotApplicable || projected[eventKey(rec.EventKind, rec.EventID)] {
			continue
		}
		if _, err := f.datasource.MarkRecordNotApplicable(ctx, rec.RecordID); err != nil {
			return nil, err
		}
		dismissed = true
	}
	if dismissed {
		return f.datasource.GetReconciliationRecords(ctx, userID, month, year)
	}
	return records, nil
}

// matchEvents scores the candidate pool against every open event and,
// in auto-reconcile mode, persists unambiguous high-confidence matches.
// Returns the ranked suggestions and whether any link was written.
func (f *Finrecon) matchEvents(ctx context.Context, events []model.ExpectedEvent, records []*model.ReconciliationRecord, pool []*model.TransactionRecord, matching config.MatchingConfig, opts EvaluationOptions) ([]model.MatchCandidate, bool, error) {
	recordByKey := make(map[string]*model.ReconciliationRecord, len(records))
	linked := make(map[string]bool)
	for _, rec := range records {
		recordByKey[eventKey(rec.EventKind, rec.EventID)] = rec
		if rec.LinkedTransactionID != nil {
			linked[*rec.LinkedTransactionID] = true
		}
	}

	var suggestions []model.MatchCandidate
	wrote := false

	for _, event := range events {
		rec := recordByKey[eventKey(event.Kind, event.SourceID)]
		if rec == nil || rec.Status == model.StatusReconciled || rec.Status == model.StatusNotApplicable {
			// Confirmed records are never re-matched until cleared.
			continue
		}

		candidates := scorePool(event, pool, linked, matching)
		if len(candidates) == 0 {
			continue
		}

		if opts.AutoReconcile {
			accepted, err := f.tryAutoAccept(ctx, rec, candidates, pool, matching)
			if err != nil {
				return nil, wrote, err
			}
			if accepted != "" {
				linked[accepted] = true
				wrote = true
				continue
			}
		}

		suggestions = append(suggestions, candidates...)
	}

	if wrote {
		// A transaction accepted for a later event may already sit in an
		// earlier event's suggestions; drop it so suggestions never name a
		// transaction the records show as linked.
		kept := suggestions[:0]
		for _, s := range suggestions {
			if !linked[s.TransactionID] {
				kept = append(kept, s)
			}
		}
		suggestions = kept
	}

	return suggestions, wrote, nil
}

// scorePool scores every unlinked transaction against one event, drops
// below-floor candidates, and ranks the rest: score descending, then
// earlier date, then lower transaction ID. The tie-break makes ranking
// reproducible across runs.
func scorePool(event model.ExpectedEvent, pool []*model.TransactionRecord, linked map[string]bool, matching config.MatchingConfig) []model.MatchCandidate {
	txnByID := make(map[string]*model.TransactionRecord, len(pool))
	var candidates []model.MatchCandidate

	for _, txn := range pool {
		if linked[txn.TransactionID] {
			continue
		}
		score, rationale := ScoreCandidate(event, txn, matching)
		if score < matching.SuggestionFloor {
			continue
		}
		txnByID[txn.TransactionID] = txn
		candidates = append(candidates, model.MatchCandidate{
			TransactionID: txn.TransactionID,
			EventID:       event.SourceID,
			EventKind:     event.Kind,
			Score:         score,
			Rationale:     rationale,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		ti, tj := txnByID[candidates[i].TransactionID], txnByID[candidates[j].TransactionID]
		if !ti.Date.Equal(tj.Date) {
			return ti.Date.Before(tj.Date)
		}
		return candidates[i].TransactionID < candidates[j].TransactionID
	})

	return candidates
}

// tryAutoAccept links the top candidate when it alone clears the
// auto-accept threshold. Two candidates at or above the threshold trip the
// ambiguity guard: nothing is written and the caller falls back to
// suggestions. Returns the linked transaction ID, or "" when no link was
// written.
func (f *Finrecon) tryAutoAccept(ctx context.Context, rec *model.ReconciliationRecord, candidates []model.MatchCandidate, pool []*model.TransactionRecord, matching config.MatchingConfig) (string, error) {
	top := candidates[0]
	if top.Score < matching.AutoAcceptThreshold {
		return "", nil
	}
	if len(candidates) > 1 && candidates[1].Score >= matching.AutoAcceptThreshold {
		logrus.WithFields(logrus.Fields{
			"record_id": rec.RecordID,
			"top_score": top.Score,
		}).Info("ambiguous auto-accept, falling back to suggestions")
		return "", nil
	}

	var txn *model.TransactionRecord
	for _, t := range pool {
		if t.TransactionID == top.TransactionID {
			txn = t
			break
		}
	}
	if txn == nil {
		return "", nil
	}

	confidence := top.Score
	if confidence > model.MaxAutoConfidence {
		confidence = model.MaxAutoConfidence
	}
	_, err := f.datasource.LinkTransaction(ctx, rec.RecordID, txn, confidence, false)
	if err != nil {
		// A concurrent confirm claimed the transaction first; not fatal.
		if apierror.IsConflict(err) {
			logrus.WithError(err).Info("auto-accept lost race for transaction")
			return "", nil
		}
		return "", err
	}
	return txn.TransactionID, nil
}

// ConfirmMatch manually links a transaction to the record identified by
// the natural key (user, period, kind, event). Concurrent confirms for the
// same transaction in the same period are serialized on a Redis lock; the
// first writer wins and later ones receive a conflict. Manual confirms
// always carry confidence 100.
func (f *Finrecon) ConfirmMatch(ctx context.Context, userID string, kind model.EventKind, eventID, transactionID string, month, year int) (*model.ReconciliationRecord, error) {
	if month < 1 || month > 12 {
		return nil, apierror.NewValidationError(fmt.Sprintf("month must be between 1 and 12, got %d", month))
	}
	if !kind.Valid() {
		return nil, apierror.NewValidationError(fmt.Sprintf("unknown event kind '%s'", kind))
	}

	if f.redis != nil {
		lockKey := fmt.Sprintf("recon:confirm:%s:%04d-%02d:%s", userID, year, month, transactionID)
		locker := redlock.NewLocker(f.redis, lockKey, model.GenerateUUIDWithSuffix("loc"))
		if err := locker.WaitLock(ctx, 30*time.Second, 5*time.Second); err != nil {
			return nil, apierror.NewConflictError("Another confirmation for this transaction is in progress", err)
		}
		defer func() {
			if err := locker.Unlock(ctx); err != nil {
				logrus.WithError(err).Warn("failed to release confirm lock")
			}
		}()
	}

	txn, err := f.datasource.GetTransactionRecord(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", transactionID), nil)
	}

	rec, err := f.datasource.GetReconciliationRecordByKey(ctx, userID, month, year, kind, eventID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("No reconciliation record for event '%s' in %04d-%02d; evaluate the period first", eventID, year, month), nil)
	}

	updated, err := f.datasource.LinkTransaction(ctx, rec.RecordID, txn, 100, true)
	if err != nil {
		return nil, err
	}

	f.invalidateEvaluation(ctx, userID, month, year)
	return updated, nil
}

// ClearMatch reverts a reconciled record to pending, releasing its linked
// transaction for future matching.
func (f *Finrecon) ClearMatch(ctx context.Context, userID, recordID string) (*model.ReconciliationRecord, error) {
	rec, err := f.datasource.GetReconciliationRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Reconciliation record with ID '%s' not found", recordID), nil)
	}
	if rec.Status == model.StatusNotApplicable {
		return nil, apierror.NewConflictError("Record was dismissed and cannot be cleared", rec.RecordID)
	}

	cleared, err := f.datasource.ClearReconciliationRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	f.invalidateEvaluation(ctx, userID, rec.Month, rec.Year)
	return cleared, nil
}

func (f *Finrecon) invalidateEvaluation(ctx context.Context, userID string, month, year int) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Delete(ctx, cache.EvaluationKey(userID, month, year)); err != nil {
		logrus.WithError(err).Warn("failed to invalidate evaluation cache")
	}
}

func eventKey(kind model.EventKind, eventID string) string {
	return string(kind) + ":" + eventID
}
