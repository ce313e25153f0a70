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
package model

import (
	"fmt"
	"time"
)

// Status constants for a reconciliation record.
const (
	StatusPending       = "pending"
	StatusReconciled    = "reconciled"
	StatusOverdue       = "overdue"
	StatusNotApplicable = "not_applicable" // terminal, excluded from stats
)

// MaxAutoConfidence caps the confidence written by automatic matches.
// 100 is reserved for manually confirmed links.
const MaxAutoConfidence = 95

// Period is a (month, year) accounting window.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Start returns the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following period in UTC.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the period window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start()) && t.Before(p.End())
}

// ReconciliationRecord is the persisted reconciliation state for one
// expected event in one period. At most one record exists per
// (user, period, event kind, event id); that natural key is the upsert
// target. Records are updated in place, never deleted by the engine.
type ReconciliationRecord struct {
	ID                  int64      `json:"-"`
	RecordID            string     `json:"record_id"`
	UserID              string     `json:"user_id"`
	Month               int        `json:"month"`
	Year                int        `json:"year"`
	EventKind           EventKind  `json:"event_kind"`
	EventID             string     `json:"event_id"`
	Status              string     `json:"status"`
	ExpectedAmount      float64    `json:"expected_amount"`
	ExpectedDate        time.Time  `json:"expected_date"`
	ActualAmount        *float64   `json:"actual_amount,omitempty"`
	ActualDate          *time.Time `json:"actual_date,omitempty"`
	LinkedTransactionID *string    `json:"linked_transaction_id,omitempty"`
	Confidence          int        `json:"confidence"`
	ManualOverride      bool       `json:"manual_override"`
	Notes               string     `json:"notes,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Period returns the record's accounting window.
func (r *ReconciliationRecord) Period() Period {
	return Period{Month: r.Month, Year: r.Year}
}

// NaturalKey renders the uniqueness key of the record.
func (r *ReconciliationRecord) NaturalKey() string {
	return fmt.Sprintf("%s:%04d-%02d:%s:%s", r.UserID, r.Year, r.Month, r.EventKind, r.EventID)
}

// MatchCandidate is one scored (expected event, transaction) pair.
// Ephemeral: computed per evaluation, never persisted. Rationale lists
// the matched factors in scoring order so the UI and tests can inspect
// why a candidate ranked where it did.
type MatchCandidate struct {
	TransactionID string    `json:"transaction_id"`
	EventID       string    `json:"event_id"`
	EventKind     EventKind `json:"event_kind"`
	Score         int       `json:"score"`
	Rationale     []string  `json:"rationale"`
}

// PeriodStats summarizes completion of a period. NotApplicable records
// are excluded before these numbers are computed.
type PeriodStats struct {
	Total             int `json:"total"`
	Reconciled        int `json:"reconciled"`
	Pending           int `json:"pending"`
	Overdue           int `json:"overdue"`
	CompletionPercent int `json:"completion_percent"`
}
