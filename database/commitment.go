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

package database

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/raynanbulhoes22/finrecon/internal/apierror"
	"github.com/raynanbulhoes22/finrecon/model"
)

// GetActiveCommitments loads the active commitments of one user as of now.
// The commitment tables are owned by the CRUD subsystem; this is strictly
// read-only.
func (d Datasource) GetActiveCommitments(ctx context.Context, userID string) (*model.CommitmentSnapshot, error) {
	ctx, span := otel.Tracer("Commitment").Start(ctx, "Fetching active commitments from db")
	defer span.End()

	snapshot := &model.CommitmentSnapshot{}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT source_id, user_id, name, type, category, amount, receipt_day, active, created_at
		FROM income_sources
		WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve income sources", err)
	}
	defer rows.Close()

	for rows.Next() {
		src := model.IncomeSource{}
		err = rows.Scan(&src.SourceID, &src.UserID, &src.Name, &src.Type, &src.Category,
			&src.Amount, &src.ReceiptDay, &src.Active, &src.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan income source data", err)
		}
		snapshot.IncomeSources = append(snapshot.IncomeSources, src)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating income sources", err)
	}

	rows, err = d.Conn.QueryContext(ctx, `
		SELECT expense_id, user_id, name, category, amount, due_day, auto_debit, active, created_at
		FROM fixed_expenses
		WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve fixed expenses", err)
	}
	defer rows.Close()

	for rows.Next() {
		exp := model.FixedExpense{}
		err = rows.Scan(&exp.ExpenseID, &exp.UserID, &exp.Name, &exp.Category,
			&exp.Amount, &exp.DueDay, &exp.AutoDebit, &exp.Active, &exp.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan fixed expense data", err)
		}
		snapshot.FixedExpenses = append(snapshot.FixedExpenses, exp)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating fixed expenses", err)
	}

	rows, err = d.Conn.QueryContext(ctx, `
		SELECT account_id, user_id, name, category, installment_amount, total_installments,
			installments_paid, start_month, start_year, due_day, auto_debit, active, created_at
		FROM installment_accounts
		WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve installment accounts", err)
	}
	defer rows.Close()

	for rows.Next() {
		acc := model.InstallmentAccount{}
		err = rows.Scan(&acc.AccountID, &acc.UserID, &acc.Name, &acc.Category,
			&acc.InstallmentAmount, &acc.TotalInstallments, &acc.InstallmentsPaid,
			&acc.StartMonth, &acc.StartYear, &acc.DueDay, &acc.AutoDebit, &acc.Active, &acc.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan installment account data", err)
		}
		snapshot.InstallmentAccounts = append(snapshot.InstallmentAccounts, acc)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating installment accounts", err)
	}

	return snapshot, nil
}
