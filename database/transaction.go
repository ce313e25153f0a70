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
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/raynanbulhoes22/finrecon/internal/apierror"
	"github.com/raynanbulhoes22/finrecon/model"
)

// GetTransactionsForPeriod retrieves the transactions of one user dated
// inside the given accounting period, ordered by date then ID so downstream
// tie-breaking is deterministic.
func (d Datasource) GetTransactionsForPeriod(ctx context.Context, userID string, month, year int) ([]*model.TransactionRecord, error) {
	ctx, span := otel.Tracer("TransactionRecord").Start(ctx, "Fetching transactions for period from db")
	defer span.End()

	period := model.Period{Month: month, Year: year}
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT transaction_id, user_id, abs_amount, date, category, title,
			establishment, note, institution, direction, payment_method
		FROM transaction_records
		WHERE user_id = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC, transaction_id ASC
	`, userID, period.Start(), period.End())
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer rows.Close()

	var transactions []*model.TransactionRecord
	for rows.Next() {
		txn := &model.TransactionRecord{}
		err = rows.Scan(&txn.TransactionID, &txn.UserID, &txn.AbsAmount, &txn.Date,
			&txn.Category, &txn.Title, &txn.Establishment, &txn.Note,
			&txn.Institution, &txn.Direction, &txn.PaymentMethod)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction data", err)
		}
		transactions = append(transactions, txn)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating transactions", err)
	}

	return transactions, nil
}

// GetTransactionRecord retrieves a single transaction by its ID.
func (d Datasource) GetTransactionRecord(ctx context.Context, transactionID string) (*model.TransactionRecord, error) {
	ctx, span := otel.Tracer("TransactionRecord").Start(ctx, "Fetching transaction from db")
	defer span.End()

	txn := &model.TransactionRecord{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT transaction_id, user_id, abs_amount, date, category, title,
			establishment, note, institution, direction, payment_method
		FROM transaction_records
		WHERE transaction_id = $1
	`, transactionID).Scan(&txn.TransactionID, &txn.UserID, &txn.AbsAmount, &txn.Date,
		&txn.Category, &txn.Title, &txn.Establishment, &txn.Note,
		&txn.Institution, &txn.Direction, &txn.PaymentMethod)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", transactionID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transaction", err)
	}

	return txn, nil
}
