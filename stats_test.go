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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raynanbulhoes22/finrecon/model"
)

func recordsWithStatuses(statuses ...string) []*model.ReconciliationRecord {
	records := make([]*model.ReconciliationRecord, len(statuses))
	for i, s := range statuses {
		records[i] = &model.ReconciliationRecord{RecordID: string(rune('a' + i)), Status: s}
	}
	return records
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(recordsWithStatuses(
		model.StatusReconciled,
		model.StatusReconciled,
		model.StatusPending,
		model.StatusOverdue,
	))

	assert.Equal(t, model.PeriodStats{
		Total:             4,
		Reconciled:        2,
		Pending:           1,
		Overdue:           1,
		CompletionPercent: 50,
	}, stats)
}

func TestComputeStatsExcludesDismissed(t *testing.T) {
	stats := ComputeStats(recordsWithStatuses(
		model.StatusReconciled,
		model.StatusNotApplicable,
		model.StatusNotApplicable,
	))

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 100, stats.CompletionPercent)
}

func TestComputeStatsEmptyPeriod(t *testing.T) {
	assert.Equal(t, model.PeriodStats{}, ComputeStats(nil))

	stats := ComputeStats(recordsWithStatuses(model.StatusNotApplicable))
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.CompletionPercent, "a period of only dismissed events is not 100% complete")
}

func TestComputeStatsRounding(t *testing.T) {
	stats := ComputeStats(recordsWithStatuses(
		model.StatusReconciled,
		model.StatusPending,
		model.StatusPending,
	))
	assert.Equal(t, 33, stats.CompletionPercent)

	stats = ComputeStats(recordsWithStatuses(
		model.StatusReconciled,
		model.StatusReconciled,
		model.StatusPending,
	))
	assert.Equal(t, 67, stats.CompletionPercent)
}
