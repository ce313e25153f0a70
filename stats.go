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
	"math"

	"github.com/raynanbulhoes22/finrecon/model"
)

// ComputeStats summarizes a period's reconciliation records. Dismissed
// (not applicable) records are excluded before anything is counted, so a
// period made entirely of dismissed events reports zero total and zero
// percent rather than a false 100.
func ComputeStats(records []*model.ReconciliationRecord) model.PeriodStats {
	stats := model.PeriodStats{}
	for _, rec := range records {
		if rec.Status == model.StatusNotApplicable {
			continue
		}
		stats.Total++
		switch rec.Status {
		case model.StatusReconciled:
			stats.Reconciled++
		case model.StatusOverdue:
			stats.Overdue++
		}
	}
	stats.Pending = stats.Total - stats.Reconciled - stats.Overdue
	if stats.Total > 0 {
		stats.CompletionPercent = int(math.Round(100 * float64(stats.Reconciled) / float64(stats.Total)))
	}
	return stats
}
