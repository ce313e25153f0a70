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
	"strings"
	"time"
)

const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// TransactionRecord is a read-only snapshot of a recorded transaction.
// The transaction CRUD subsystem owns and mutates these rows; the
// reconciliation engine never writes to them.
type TransactionRecord struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	AbsAmount     float64   `json:"abs_amount"`
	Date          time.Time `json:"date"`
	Category      string    `json:"category"`
	Title         string    `json:"title"`
	Establishment string    `json:"establishment"`
	Note          string    `json:"note"`
	Institution   string    `json:"institution"`
	Direction     string    `json:"direction"` // credit | debit
	PaymentMethod string    `json:"payment_method"`
}

// SearchText concatenates the free-text fields used for similarity
// comparison against an expected event's display name.
func (t *TransactionRecord) SearchText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Title, t.Establishment, t.Note} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}
