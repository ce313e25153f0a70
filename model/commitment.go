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

import "time"

// EventKind identifies which commitment type an expected event was
// projected from.
type EventKind string

const (
	KindIncomeSource EventKind = "income_source"
	KindFixedExpense EventKind = "fixed_expense"
	KindInstallment  EventKind = "installment_account"
)

// Valid reports whether k is one of the known commitment kinds.
func (k EventKind) Valid() bool {
	switch k {
	case KindIncomeSource, KindFixedExpense, KindInstallment:
		return true
	}
	return false
}

// IncomeSource is a read-only snapshot of a recurring income commitment.
// The CRUD subsystem owns these rows; the engine only projects them.
type IncomeSource struct {
	SourceID   string    `json:"source_id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"` // e.g. "salario", "freelancer", "aluguel"
	Category   string    `json:"category"`
	Amount     float64   `json:"amount"`
	ReceiptDay int       `json:"receipt_day"` // 0 means use the configured default
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// FixedExpense is a read-only snapshot of a recurring monthly expense.
type FixedExpense struct {
	ExpenseID string    `json:"expense_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	DueDay    int       `json:"due_day"` // 0 means use the configured default
	AutoDebit bool      `json:"auto_debit"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// InstallmentAccount is a read-only snapshot of an open installment
// obligation (e.g. a financed purchase paid in N monthly installments).
type InstallmentAccount struct {
	AccountID         string    `json:"account_id"`
	UserID            string    `json:"user_id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	InstallmentAmount float64   `json:"installment_amount"`
	TotalInstallments int       `json:"total_installments"`
	InstallmentsPaid  int       `json:"installments_paid"`
	StartMonth        int       `json:"start_month"` // 1-12
	StartYear         int       `json:"start_year"`
	DueDay            int       `json:"due_day"` // day of the first installment
	AutoDebit         bool      `json:"auto_debit"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

// CommitmentSnapshot bundles the active commitments of one user as of the
// evaluation moment.
type CommitmentSnapshot struct {
	IncomeSources       []IncomeSource       `json:"income_sources"`
	FixedExpenses       []FixedExpense       `json:"fixed_expenses"`
	InstallmentAccounts []InstallmentAccount `json:"installment_accounts"`
}

// ExpectedEvent is a commitment projected into a specific accounting
// period. Derived on every evaluation, never persisted.
type ExpectedEvent struct {
	Kind              EventKind `json:"kind"`
	SourceID          string    `json:"source_id"`
	DisplayName       string    `json:"display_name"`
	Category          string    `json:"category"`
	ExpectedAmount    float64   `json:"expected_amount"`
	ExpectedDate      time.Time `json:"expected_date"`
	AutoDebit         bool      `json:"auto_debit"`
	IncomeType        string    `json:"income_type,omitempty"`        // set for income events only
	InstallmentNumber int       `json:"installment_number,omitempty"` // set for installment events only
}
