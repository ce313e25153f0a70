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

	"github.com/raynanbulhoes22/finrecon/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	commitment     // Read-only access to the commitment snapshot
	transaction    // Read-only access to recorded transactions
	reconciliation // Reconciliation state store
}

// commitment defines read-only methods over the commitment tables owned by
// the CRUD subsystem.
type commitment interface {
	GetActiveCommitments(ctx context.Context, userID string) (*model.CommitmentSnapshot, error) // Snapshot of active commitments as of now
}

// transaction defines read-only methods over the transaction records owned
// by the transaction CRUD subsystem.
type transaction interface {
	GetTransactionsForPeriod(ctx context.Context, userID string, month, year int) ([]*model.TransactionRecord, error) // Transactions dated inside the period
	GetTransactionRecord(ctx context.Context, transactionID string) (*model.TransactionRecord, error)                 // Single transaction by ID
}

// reconciliation defines the reconciliation state store.
type reconciliation interface {
	GetReconciliationRecords(ctx context.Context, userID string, month, year int) ([]*model.ReconciliationRecord, error)                            // All records of one period
	GetReconciliationRecord(ctx context.Context, recordID string) (*model.ReconciliationRecord, error)                                              // Single record by ID
	GetReconciliationRecordByKey(ctx context.Context, userID string, month, year int, kind model.EventKind, eventID string) (*model.ReconciliationRecord, error) // Record by natural key; nil when absent
	UpsertReconciliationRecord(ctx context.Context, rec *model.ReconciliationRecord) (*model.ReconciliationRecord, error)                           // Insert or update on the natural key
	MarkRecordNotApplicable(ctx context.Context, recordID string) (*model.ReconciliationRecord, error)                                             // Dismiss a record whose commitment went inactive; terminal
	LinkTransaction(ctx context.Context, recordID string, txn *model.TransactionRecord, confidence int, manual bool) (*model.ReconciliationRecord, error) // Atomically link a transaction; ConflictError when claimed elsewhere
	ClearReconciliationRecord(ctx context.Context, recordID string) (*model.ReconciliationRecord, error)                                            // Revert a record to pending
}
