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

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/raynanbulhoes22/finrecon/internal/apierror"
	"github.com/raynanbulhoes22/finrecon/model"
)

const reconciliationColumns = `
	id, record_id, user_id, month, year, event_kind, event_id, status,
	expected_amount, expected_date, actual_amount, actual_date,
	linked_transaction_id, confidence, manual_override, notes,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReconciliationRecord(row rowScanner) (*model.ReconciliationRecord, error) {
	rec := &model.ReconciliationRecord{}
	var actualAmount sql.NullFloat64
	var actualDate sql.NullTime
	var linkedTxnID, notes sql.NullString

	err := row.Scan(
		&rec.ID, &rec.RecordID, &rec.UserID, &rec.Month, &rec.Year,
		&rec.EventKind, &rec.EventID, &rec.Status,
		&rec.ExpectedAmount, &rec.ExpectedDate, &actualAmount, &actualDate,
		&linkedTxnID, &rec.Confidence, &rec.ManualOverride, &notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if actualAmount.Valid {
		rec.ActualAmount = &actualAmount.Float64
	}
	if actualDate.Valid {
		rec.ActualDate = &actualDate.Time
	}
	if linkedTxnID.Valid {
		rec.LinkedTransactionID = &linkedTxnID.String
	}
	rec.Notes = notes.String
	return rec, nil
}

// GetReconciliationRecords retrieves all reconciliation records of one user
// and period.
func (d Datasource) GetReconciliationRecords(ctx context.Context, userID string, month, year int) ([]*model.ReconciliationRecord, error) {
	ctx, span := otel.Tracer("Reconciliation").Start(ctx, "Fetching reconciliation records from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+reconciliationColumns+`
		FROM reconciliation_records
		WHERE user_id = $1 AND month = $2 AND year = $3
		ORDER BY expected_date ASC, record_id ASC
	`, userID, month, year)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve reconciliation records", err)
	}
	defer rows.Close()

	var records []*model.ReconciliationRecord
	for rows.Next() {
		rec, err := scanReconciliationRecord(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan reconciliation record data", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating reconciliation records", err)
	}

	return records, nil
}

// GetReconciliationRecord retrieves a reconciliation record by its ID.
func (d Datasource) GetReconciliationRecord(ctx context.Context, recordID string) (*model.ReconciliationRecord, error) {
	ctx, span := otel.Tracer("Reconciliation").Start(ctx, "Fetching reconciliation record from db")
	defer span.End()

	rec, err := scanReconciliationRecord(d.Conn.QueryRowContext(ctx, `
		SELECT `+reconciliationColumns+`
		FROM reconciliation_records
		WHERE record_id = $1
	`, recordID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Reconciliation record with ID '%s' not found", recordID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve reconciliation record", err)
	}

	return rec, nil
}

// GetReconciliationRecordByKey retrieves a record by its natural key.
// Returns (nil, nil) when no record exists yet for that key.
func (d Datasource) GetReconciliationRecordByKey(ctx context.Context, userID string, month, year int, kind model.EventKind, eventID string) (*model.ReconciliationRecord, error) {
	ctx, span := otel.Tracer("Reconciliation").Start(ctx, "Fetching reconciliation record by key from db")
	defer span.End()

	rec, err := scanReconciliationRecord(d.Conn.QueryRowContext(ctx, `
		SELECT `+reconciliationColumns+`
		FROM reconciliation_records
		WHERE user_id = $1 AND month = $2 AND year = $3 AND event_kind = $4 AND event_id = $5
	`, userID, month, year, kind, eventID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve reconciliation record", err)
	}

	return rec, nil
}

// UpsertReconciliationRecord inserts a record or refreshes an existing one
// on the natural key. Expected amount and date always track the latest
// projection; status only follows when the existing row is still in an open
// state and was not manually overridden, so re-evaluation never clobbers a
// confirmed match or a dismissal.
func (d Datasource) UpsertReconciliationRecord(ctx context.Context, rec *model.ReconciliationRecord) (*model.ReconciliationRecord, error) {
	ctx, span := otel.Tracer("Reconciliation").Start(ctx, "Upserting reconciliation record to db")
	defer span.End()

	saved, err := scanReconciliationRecord(d.Conn.QueryRowContext(ctx, `
		INSERT INTO reconciliation_records(
			record_id, user_id, month, year, event_kind, event_id, status,
			expected_amount, expected_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, month, year, event_kind, event_id) DO UPDATE SET
			expected_amount = EXCLUDED.expected_amount,
			expected_date = EXCLUDED.expected_date,
			status = CASE
				WHEN reconciliation_records.status IN ('pending', 'overdue')
					AND NOT reconciliation_records.manual_override
				THEN EXCLUDED.status
				ELSE reconciliation_records.status
			END,
			updated_at = NOW()
		RETURNING `+reconciliationColumns,
		rec.RecordID, rec.UserID, rec.Month, rec.Year, rec.EventKind, rec.EventID,
		rec.Status, rec.ExpectedAmount, rec.ExpectedDate, rec.Notes,
	))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "check_violation" {
			return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid reconciliation record", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to upsert reconciliation record", err)
	}

	return saved, nil
}

// MarkRecordNotApplicable dismisses a record whose source commitment is no
// longer active for its period. The transition is terminal and also drops
// any existing link so the transaction is freed for other events.
func (d Datasource) MarkRecordNotApplicable(ctx context.Context, recordID string) (*model.ReconciliationRecord, error) {
	ctx, span := otel.Tracer("Reconciliation").Start(ctx, "Dismissing reconciliation record")
	defer span.End()

	rec, err := scanReconciliationRecord(d.Conn.QueryRowContext(ctx, `
		UPDATE reconciliation_records
		SET status = $2, actual_amount = NULL, actual_date = NULL,
			linked_transaction_id = NULL, confidence = 0, updated_at = NOW()
		WHERE record_id = $1
		RETURNING `+reconciliationColumns,
		recordID, model.StatusNotApplicable,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Reconciliation record with ID '%s' not found", recordID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to dismiss reconciliation record", err)
	}

	return rec, nil
}

// LinkTransaction atomically marks a record reconciled against a
// transaction. The record row is locked for the duration of the check so a
// concurrent confirm for the same transaction either sees the link or fails
// with a conflict; the partial unique index on linked_transaction_id backs
// the same guarantee at the schema level.
func (d Datasource) LinkTransaction(ctx context.Context, recordID string, txn *model.TransactionRecord, confidence int, manual bool) (*model.ReconciliationRecord, error) {
	ctx, span := otel.Tracer("Reconciliation").Start(ctx, "Linking transaction to reconciliation record")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rec, err := scanReconciliationRecord(tx.QueryRowContext(ctx, `
		SELECT `+reconciliationColumns+`
		FROM reconciliation_records
		WHERE record_id = $1
		FOR UPDATE
	`, recordID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Reconciliation record with ID '%s' not found", recordID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve reconciliation record", err)
	}

	if rec.Status == model.StatusNotApplicable {
		return nil, apierror.NewConflictError("Record was dismissed and can no longer be reconciled", rec.RecordID)
	}
	if rec.Status == model.StatusReconciled {
		if rec.LinkedTransactionID != nil && *rec.LinkedTransactionID == txn.TransactionID {
			return rec, nil
		}
		return nil, apierror.NewConflictError("Record is already reconciled against another transaction", rec.RecordID)
	}

	// The same transaction must not satisfy two events in one period.
	var claimedBy string
	err = tx.QueryRowContext(ctx, `
		SELECT record_id FROM reconciliation_records
		WHERE user_id = $1 AND month = $2 AND year = $3
			AND linked_transaction_id = $4 AND record_id != $5
		FOR UPDATE
	`, rec.UserID, rec.Month, rec.Year, txn.TransactionID, recordID).Scan(&claimedBy)
	if err == nil {
		return nil, apierror.NewConflictError(
			fmt.Sprintf("Transaction '%s' is already linked to another record in this period", txn.TransactionID), claimedBy)
	}
	if err != sql.ErrNoRows {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check transaction link", err)
	}

	updated, err := scanReconciliationRecord(tx.QueryRowContext(ctx, `
		UPDATE reconciliation_records
		SET status = $2, actual_amount = $3, actual_date = $4,
			linked_transaction_id = $5, confidence = $6, manual_override = $7,
			updated_at = NOW()
		WHERE record_id = $1
		RETURNING `+reconciliationColumns,
		recordID, model.StatusReconciled, txn.AbsAmount, txn.Date,
		txn.TransactionID, confidence, manual,
	))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, apierror.NewConflictError(
				fmt.Sprintf("Transaction '%s' is already linked to another record in this period", txn.TransactionID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to link transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	return updated, nil
}

// ClearReconciliationRecord reverts a record to pending, dropping the link
// and the actuals so the event becomes available for matching again.
func (d Datasource) ClearReconciliationRecord(ctx context.Context, recordID string) (*model.ReconciliationRecord, error) {
	ctx, span := otel.Tracer("Reconciliation").Start(ctx, "Clearing reconciliation record")
	defer span.End()

	rec, err := scanReconciliationRecord(d.Conn.QueryRowContext(ctx, `
		UPDATE reconciliation_records
		SET status = $2, actual_amount = NULL, actual_date = NULL,
			linked_transaction_id = NULL, confidence = 0,
			manual_override = FALSE, updated_at = NOW()
		WHERE record_id = $1
		RETURNING `+reconciliationColumns,
		recordID, model.StatusPending,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Reconciliation record with ID '%s' not found", recordID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to clear reconciliation record", err)
	}

	return rec, nil
}
