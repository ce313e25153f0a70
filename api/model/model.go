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
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/raynanbulhoes22/finrecon/model"
)

// EvaluatePeriod is the request body for a period evaluation.
type EvaluatePeriod struct {
	UserID        string `json:"user_id"`
	Month         int    `json:"month"`
	Year          int    `json:"year"`
	AutoReconcile bool   `json:"auto_reconcile"`
}

func (r *EvaluatePeriod) ValidateEvaluatePeriod() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Month, validation.Required, validation.Min(1), validation.Max(12)),
		validation.Field(&r.Year, validation.Required, validation.Min(1)),
	)
}

// ConfirmMatch is the request body for manually linking a transaction to
// an expected event.
type ConfirmMatch struct {
	UserID        string `json:"user_id"`
	EventKind     string `json:"event_kind"`
	EventID       string `json:"event_id"`
	TransactionID string `json:"transaction_id"`
	Month         int    `json:"month"`
	Year          int    `json:"year"`
}

func (r *ConfirmMatch) ValidateConfirmMatch() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.EventKind, validation.Required, validation.In(
			string(model.KindIncomeSource), string(model.KindFixedExpense), string(model.KindInstallment))),
		validation.Field(&r.EventID, validation.Required),
		validation.Field(&r.TransactionID, validation.Required),
		validation.Field(&r.Month, validation.Required, validation.Min(1), validation.Max(12)),
		validation.Field(&r.Year, validation.Required, validation.Min(1)),
	)
}

// ClearMatch is the request body for reverting a reconciled record to
// pending.
type ClearMatch struct {
	UserID   string `json:"user_id"`
	RecordID string `json:"record_id"`
}

func (r *ClearMatch) ValidateClearMatch() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.RecordID, validation.Required),
	)
}
