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
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/raynanbulhoes22/finrecon/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Commitment methods

func (m *MockDataSource) GetActiveCommitments(ctx context.Context, userID string) (*model.CommitmentSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CommitmentSnapshot), args.Error(1)
}

// Transaction methods

func (m *MockDataSource) GetTransactionsForPeriod(ctx context.Context, userID string, month, year int) ([]*model.TransactionRecord, error) {
	args := m.Called(ctx, userID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TransactionRecord), args.Error(1)
}

func (m *MockDataSource) GetTransactionRecord(ctx context.Context, transactionID string) (*model.TransactionRecord, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionRecord), args.Error(1)
}

// Reconciliation methods

func (m *MockDataSource) GetReconciliationRecords(ctx context.Context, userID string, month, year int) ([]*model.ReconciliationRecord, error) {
	args := m.Called(ctx, userID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ReconciliationRecord), args.Error(1)
}

func (m *MockDataSource) GetReconciliationRecord(ctx context.Context, recordID string) (*model.ReconciliationRecord, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationRecord), args.Error(1)
}

func (m *MockDataSource) GetReconciliationRecordByKey(ctx context.Context, userID string, month, year int, kind model.EventKind, eventID string) (*model.ReconciliationRecord, error) {
	args := m.Called(ctx, userID, month, year, kind, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationRecord), args.Error(1)
}

func (m *MockDataSource) UpsertReconciliationRecord(ctx context.Context, rec *model.ReconciliationRecord) (*model.ReconciliationRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationRecord), args.Error(1)
}

func (m *MockDataSource) MarkRecordNotApplicable(ctx context.Context, recordID string) (*model.ReconciliationRecord, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationRecord), args.Error(1)
}

func (m *MockDataSource) LinkTransaction(ctx context.Context, recordID string, txn *model.TransactionRecord, confidence int, manual bool) (*model.ReconciliationRecord, error) {
	args := m.Called(ctx, recordID, txn, confidence, manual)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationRecord), args.Error(1)
}

func (m *MockDataSource) ClearReconciliationRecord(ctx context.Context, recordID string) (*model.ReconciliationRecord, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationRecord), args.Error(1)
}
