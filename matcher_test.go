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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wacul/ptr"

	"github.com/raynanbulhoes22/finrecon/config"
	"github.com/raynanbulhoes22/finrecon/database/mocks"
	"github.com/raynanbulhoes22/finrecon/internal/apierror"
	"github.com/raynanbulhoes22/finrecon/model"
)

func init() {
	config.MockConfig(&config.Configuration{})
}

func salarySnapshot() *model.CommitmentSnapshot {
	return &model.CommitmentSnapshot{
		IncomeSources: []model.IncomeSource{
			{SourceID: "inc1", UserID: "user1", Name: "Salário", Type: "salario", Amount: 3000, ReceiptDay: 5, Active: true},
		},
	}
}

func salaryRecord(status string) *model.ReconciliationRecord {
	return &model.ReconciliationRecord{
		RecordID:       "rec1",
		UserID:         "user1",
		Month:          3,
		Year:           2024,
		EventKind:      model.KindIncomeSource,
		EventID:        "inc1",
		Status:         status,
		ExpectedAmount: 3000,
		ExpectedDate:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
}

func salaryTxn(id string, date time.Time) *model.TransactionRecord {
	return &model.TransactionRecord{
		TransactionID: id,
		UserID:        "user1",
		AbsAmount:     3000,
		Date:          date,
		Title:         "Salário Empresa X",
		Direction:     model.DirectionCredit,
	}
}

func TestEvaluatePeriodAutoAcceptsUniqueMatch(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	txn := salaryTxn("txn1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	reconciled := salaryRecord(model.StatusReconciled)
	reconciled.LinkedTransactionID = ptr.String("txn1")
	reconciled.ActualAmount = ptr.Float64(3000)
	reconciled.Confidence = 80

	mockDS.On("GetActiveCommitments", mock.Anything, "user1").Return(salarySnapshot(), nil)
	mockDS.On("UpsertReconciliationRecord", mock.Anything, mock.Anything).Return(salaryRecord(model.StatusOverdue), nil)
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{salaryRecord(model.StatusOverdue)}, nil).Once()
	mockDS.On("GetTransactionsForPeriod", mock.Anything, "user1", 3, 2024).
		Return([]*model.TransactionRecord{txn}, nil)
	mockDS.On("LinkTransaction", mock.Anything, "rec1", txn, 80, false).Return(reconciled, nil)
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{reconciled}, nil).Once()

	result, err := engine.EvaluatePeriod(ctx, "user1", 3, 2024, EvaluationOptions{AutoReconcile: true})
	assert.NoError(t, err)
	assert.Empty(t, result.Suggestions, "the accepted match is not re-suggested")
	assert.Equal(t, 1, result.Stats.Reconciled)
	assert.Equal(t, 100, result.Stats.CompletionPercent)
	assert.Len(t, result.Records, 1)
	assert.LessOrEqual(t, result.Records[0].Confidence, model.MaxAutoConfidence)

	mockDS.AssertExpectations(t)
}

func TestEvaluatePeriodAmbiguityGuard(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	// Both transactions score 80 for the same event.
	txnEarly := salaryTxn("txn2", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	txnLate := salaryTxn("txn1", time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))

	mockDS.On("GetActiveCommitments", mock.Anything, "user1").Return(salarySnapshot(), nil)
	mockDS.On("UpsertReconciliationRecord", mock.Anything, mock.Anything).Return(salaryRecord(model.StatusOverdue), nil)
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{salaryRecord(model.StatusOverdue)}, nil)
	mockDS.On("GetTransactionsForPeriod", mock.Anything, "user1", 3, 2024).
		Return([]*model.TransactionRecord{txnLate, txnEarly}, nil)

	result, err := engine.EvaluatePeriod(ctx, "user1", 3, 2024, EvaluationOptions{AutoReconcile: true})
	assert.NoError(t, err)

	mockDS.AssertNotCalled(t, "LinkTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, result.Suggestions, 2, "both ambiguous candidates are suggested")
	assert.Equal(t, "txn2", result.Suggestions[0].TransactionID, "earlier date ranks first on equal score")
	assert.Equal(t, "txn1", result.Suggestions[1].TransactionID)
	assert.Equal(t, 0, result.Stats.Reconciled)
}

func TestEvaluatePeriodIsIdempotent(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	sameDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	txnA := salaryTxn("txn-a", sameDate)
	txnB := salaryTxn("txn-b", sameDate)

	mockDS.On("GetActiveCommitments", mock.Anything, "user1").Return(salarySnapshot(), nil)
	mockDS.On("UpsertReconciliationRecord", mock.Anything, mock.Anything).Return(salaryRecord(model.StatusOverdue), nil)
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{salaryRecord(model.StatusOverdue)}, nil)
	mockDS.On("GetTransactionsForPeriod", mock.Anything, "user1", 3, 2024).
		Return([]*model.TransactionRecord{txnB, txnA}, nil)

	first, err := engine.EvaluatePeriod(ctx, "user1", 3, 2024, EvaluationOptions{})
	assert.NoError(t, err)
	second, err := engine.EvaluatePeriod(ctx, "user1", 3, 2024, EvaluationOptions{})
	assert.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Suggestions, second.Suggestions)
	assert.Equal(t, first.Stats, second.Stats)

	// Equal scores tie-break on the transaction ID when dates match.
	assert.Equal(t, "txn-a", first.Suggestions[0].TransactionID)
	assert.Equal(t, "txn-b", first.Suggestions[1].TransactionID)
}

func TestEvaluatePeriodSkipsReconciledEvents(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	reconciled := salaryRecord(model.StatusReconciled)
	reconciled.LinkedTransactionID = ptr.String("txn1")
	txn := salaryTxn("txn1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	mockDS.On("GetActiveCommitments", mock.Anything, "user1").Return(salarySnapshot(), nil)
	mockDS.On("UpsertReconciliationRecord", mock.Anything, mock.Anything).Return(reconciled, nil)
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{reconciled}, nil)
	mockDS.On("GetTransactionsForPeriod", mock.Anything, "user1", 3, 2024).
		Return([]*model.TransactionRecord{txn}, nil)

	result, err := engine.EvaluatePeriod(ctx, "user1", 3, 2024, EvaluationOptions{AutoReconcile: true})
	assert.NoError(t, err)
	assert.Empty(t, result.Suggestions, "confirmed records are never re-matched")
	mockDS.AssertNotCalled(t, "LinkTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluatePeriodDismissesInactiveEvents(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	// Store still holds a record for an event no longer projected.
	orphan := salaryRecord(model.StatusPending)
	orphan.RecordID = "rec-orphan"
	dismissed := salaryRecord(model.StatusNotApplicable)
	dismissed.RecordID = "rec-orphan"

	mockDS.On("GetActiveCommitments", mock.Anything, "user1").Return(&model.CommitmentSnapshot{}, nil)
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{orphan}, nil).Once()
	mockDS.On("MarkRecordNotApplicable", mock.Anything, "rec-orphan").Return(dismissed, nil)
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{dismissed}, nil).Once()
	mockDS.On("GetTransactionsForPeriod", mock.Anything, "user1", 3, 2024).
		Return([]*model.TransactionRecord{}, nil)

	result, err := engine.EvaluatePeriod(ctx, "user1", 3, 2024, EvaluationOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Stats.Total, "dismissed records are excluded from stats")
	mockDS.AssertExpectations(t)
}

func TestEvaluatePeriodStaleSections(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()

	mockDS.On("GetActiveCommitments", mock.Anything, "user1").
		Return(nil, apierror.NewAPIError(apierror.ErrUnavailable, "store down", nil))
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{}, nil)
	mockDS.On("GetTransactionsForPeriod", mock.Anything, "user1", 3, 2024).
		Return(nil, apierror.NewAPIError(apierror.ErrUnavailable, "store down", nil))

	result, err := engine.EvaluatePeriod(ctx, "user1", 3, 2024, EvaluationOptions{})
	assert.NoError(t, err, "partial collaborator failure degrades, it does not abort")
	assert.ElementsMatch(t, []string{StaleCommitments, StaleTransactions}, result.Stale)
}

func TestEvaluatePeriodStaleCommitmentsKeepRecords(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	pending := salaryRecord(model.StatusPending)

	mockDS.On("GetActiveCommitments", mock.Anything, "user1").
		Return(nil, apierror.NewAPIError(apierror.ErrUnavailable, "store down", nil))
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{pending}, nil)
	mockDS.On("GetTransactionsForPeriod", mock.Anything, "user1", 3, 2024).
		Return([]*model.TransactionRecord{}, nil)

	result, err := engine.EvaluatePeriod(ctx, "user1", 3, 2024, EvaluationOptions{})
	assert.NoError(t, err)
	assert.Contains(t, result.Stale, StaleCommitments)
	assert.Len(t, result.Records, 1, "stored records are served untouched")
	assert.Equal(t, model.StatusPending, result.Records[0].Status)

	// An empty projection from a failed fetch must not look like every
	// commitment went inactive.
	mockDS.AssertNotCalled(t, "MarkRecordNotApplicable", mock.Anything, mock.Anything)
	mockDS.AssertNotCalled(t, "UpsertReconciliationRecord", mock.Anything, mock.Anything)
}

func TestEvaluatePeriodSuggestionsExcludeAutoLinked(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	// The bonus amount is close enough for a suggestion (50) but below the
	// auto threshold; the salary scores 80 and is the sole candidate there.
	snapshot := &model.CommitmentSnapshot{
		IncomeSources: []model.IncomeSource{
			{SourceID: "inc-bonus", UserID: "user1", Name: "Bônus", Type: "salario", Amount: 3150, ReceiptDay: 5, Active: true},
			{SourceID: "inc1", UserID: "user1", Name: "Salário", Type: "salario", Amount: 3000, ReceiptDay: 5, Active: true},
		},
	}
	txn := salaryTxn("txn1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	bonusRec := salaryRecord(model.StatusPending)
	bonusRec.RecordID = "rec-bonus"
	bonusRec.EventID = "inc-bonus"
	bonusRec.ExpectedAmount = 3150
	salaryRec := salaryRecord(model.StatusPending)
	reconciled := salaryRecord(model.StatusReconciled)
	reconciled.LinkedTransactionID = ptr.String("txn1")
	reconciled.Confidence = 80

	mockDS.On("GetActiveCommitments", mock.Anything, "user1").Return(snapshot, nil)
	mockDS.On("UpsertReconciliationRecord", mock.Anything, mock.Anything).Return(salaryRecord(model.StatusPending), nil)
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{bonusRec, salaryRec}, nil).Once()
	mockDS.On("GetTransactionsForPeriod", mock.Anything, "user1", 3, 2024).
		Return([]*model.TransactionRecord{txn}, nil)
	mockDS.On("LinkTransaction", mock.Anything, "rec1", txn, 80, false).Return(reconciled, nil)
	mockDS.On("GetReconciliationRecords", mock.Anything, "user1", 3, 2024).
		Return([]*model.ReconciliationRecord{bonusRec, reconciled}, nil).Once()

	result, err := engine.EvaluatePeriod(ctx, "user1", 3, 2024, EvaluationOptions{AutoReconcile: true})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Reconciled)
	assert.Empty(t, result.Suggestions, "a transaction linked during the pass is not suggested for another event")
	mockDS.AssertExpectations(t)
}

func TestEvaluatePeriodRejectsBadMonth(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	_, err := engine.EvaluatePeriod(context.Background(), "user1", 13, 2024, EvaluationOptions{})
	assert.Error(t, err)
	assert.True(t, apierror.IsValidation(err))

	_, err = engine.EvaluatePeriod(context.Background(), "user1", 3, 0, EvaluationOptions{})
	assert.True(t, apierror.IsValidation(err))

	// Rejection happens before any collaborator round-trip.
	mockDS.AssertNotCalled(t, "GetActiveCommitments", mock.Anything, mock.Anything)
}

func TestConfirmMatch(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	txn := salaryTxn("txn1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	pending := salaryRecord(model.StatusPending)
	confirmed := salaryRecord(model.StatusReconciled)
	confirmed.LinkedTransactionID = ptr.String("txn1")
	confirmed.Confidence = 100
	confirmed.ManualOverride = true

	mockDS.On("GetTransactionRecord", mock.Anything, "txn1").Return(txn, nil)
	mockDS.On("GetReconciliationRecordByKey", mock.Anything, "user1", 3, 2024, model.KindIncomeSource, "inc1").
		Return(pending, nil)
	mockDS.On("LinkTransaction", mock.Anything, "rec1", txn, 100, true).Return(confirmed, nil)

	rec, err := engine.ConfirmMatch(ctx, "user1", model.KindIncomeSource, "inc1", "txn1", 3, 2024)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusReconciled, rec.Status)
	assert.Equal(t, 100, rec.Confidence)
	assert.True(t, rec.ManualOverride)
	mockDS.AssertExpectations(t)
}

func TestConfirmMatchConflict(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	txn := salaryTxn("txn1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	recordB := salaryRecord(model.StatusPending)
	recordB.RecordID = "rec-b"
	recordB.EventID = "inc2"

	mockDS.On("GetTransactionRecord", mock.Anything, "txn1").Return(txn, nil)
	mockDS.On("GetReconciliationRecordByKey", mock.Anything, "user1", 3, 2024, model.KindIncomeSource, "inc2").
		Return(recordB, nil)
	mockDS.On("LinkTransaction", mock.Anything, "rec-b", txn, 100, true).
		Return(nil, apierror.NewConflictError("Transaction 'txn1' is already linked to another record in this period", "rec1"))

	_, err := engine.ConfirmMatch(ctx, "user1", model.KindIncomeSource, "inc2", "txn1", 3, 2024)
	assert.Error(t, err)
	assert.True(t, apierror.IsConflict(err), "second confirm of the same transaction conflicts")
}

func TestConfirmMatchValidation(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	_, err := engine.ConfirmMatch(context.Background(), "user1", model.KindIncomeSource, "inc1", "txn1", 13, 2024)
	assert.True(t, apierror.IsValidation(err))

	_, err = engine.ConfirmMatch(context.Background(), "user1", "unknown_kind", "inc1", "txn1", 3, 2024)
	assert.True(t, apierror.IsValidation(err))

	mockDS.AssertNotCalled(t, "LinkTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmMatchForeignTransaction(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	foreign := salaryTxn("txn1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	foreign.UserID = "someone-else"

	mockDS.On("GetTransactionRecord", mock.Anything, "txn1").Return(foreign, nil)

	_, err := engine.ConfirmMatch(context.Background(), "user1", model.KindIncomeSource, "inc1", "txn1", 3, 2024)
	assert.Error(t, err, "cross-user confirmation is rejected")
	mockDS.AssertNotCalled(t, "LinkTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClearMatch(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	ctx := context.Background()
	reconciled := salaryRecord(model.StatusReconciled)
	reconciled.LinkedTransactionID = ptr.String("txn1")
	cleared := salaryRecord(model.StatusPending)

	mockDS.On("GetReconciliationRecord", mock.Anything, "rec1").Return(reconciled, nil)
	mockDS.On("ClearReconciliationRecord", mock.Anything, "rec1").Return(cleared, nil)

	rec, err := engine.ClearMatch(ctx, "user1", "rec1")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, rec.Status)
	assert.Nil(t, rec.LinkedTransactionID)
}

func TestClearMatchWrongUser(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	reconciled := salaryRecord(model.StatusReconciled)

	mockDS.On("GetReconciliationRecord", mock.Anything, "rec1").Return(reconciled, nil)

	_, err := engine.ClearMatch(context.Background(), "intruder", "rec1")
	assert.Error(t, err)
	mockDS.AssertNotCalled(t, "ClearReconciliationRecord", mock.Anything, mock.Anything)
}

func TestClearMatchDismissedRecord(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	engine := &Finrecon{datasource: mockDS}

	dismissed := salaryRecord(model.StatusNotApplicable)

	mockDS.On("GetReconciliationRecord", mock.Anything, "rec1").Return(dismissed, nil)

	_, err := engine.ClearMatch(context.Background(), "user1", "rec1")
	assert.True(t, apierror.IsConflict(err), "dismissal is terminal")
}
