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
	"fmt"
	"time"

	"github.com/raynanbulhoes22/finrecon/config"
	"github.com/raynanbulhoes22/finrecon/internal/apierror"
	"github.com/raynanbulhoes22/finrecon/model"
)

// ExpectedEvents projects the commitment snapshot into the given period.
// Income sources and fixed expenses recur every month while active;
// installment accounts only appear while their installment window is open
// and unpaid. The returned order is stable: incomes, fixed expenses, then
// installments, each in snapshot order.
func ExpectedEvents(snapshot *model.CommitmentSnapshot, month, year int, matching config.MatchingConfig) ([]model.ExpectedEvent, error) {
	if month < 1 || month > 12 {
		return nil, apierror.NewValidationError(fmt.Sprintf("month must be between 1 and 12, got %d", month))
	}
	if year < 1 {
		return nil, apierror.NewValidationError(fmt.Sprintf("year must be positive, got %d", year))
	}
	if snapshot == nil {
		return nil, nil
	}

	var events []model.ExpectedEvent

	for _, src := range snapshot.IncomeSources {
		if !src.Active {
			continue
		}
		day := src.ReceiptDay
		if day <= 0 {
			day = matching.IncomeDay
		}
		events = append(events, model.ExpectedEvent{
			Kind:           model.KindIncomeSource,
			SourceID:       src.SourceID,
			DisplayName:    src.Name,
			Category:       src.Category,
			ExpectedAmount: src.Amount,
			ExpectedDate:   dayInMonth(year, month, day),
			IncomeType:     src.Type,
		})
	}

	for _, exp := range snapshot.FixedExpenses {
		if !exp.Active {
			continue
		}
		day := exp.DueDay
		if day <= 0 {
			day = matching.FixedExpenseDay
		}
		events = append(events, model.ExpectedEvent{
			Kind:           model.KindFixedExpense,
			SourceID:       exp.ExpenseID,
			DisplayName:    exp.Name,
			Category:       exp.Category,
			ExpectedAmount: exp.Amount,
			ExpectedDate:   dayInMonth(year, month, day),
			AutoDebit:      exp.AutoDebit,
		})
	}

	for _, acc := range snapshot.InstallmentAccounts {
		if !acc.Active {
			continue
		}
		n, ok := installmentNumber(acc, month, year)
		if !ok {
			continue
		}
		events = append(events, model.ExpectedEvent{
			Kind:              model.KindInstallment,
			SourceID:          acc.AccountID,
			DisplayName:       fmt.Sprintf("%s (%d/%d)", acc.Name, n, acc.TotalInstallments),
			Category:          acc.Category,
			ExpectedAmount:    acc.InstallmentAmount,
			ExpectedDate:      dayInMonth(year, month, acc.DueDay),
			AutoDebit:         acc.AutoDebit,
			InstallmentNumber: n,
		})
	}

	return events, nil
}

// installmentNumber computes which installment of acc falls in (month, year)
// and whether it is still owed. An installment is expected only while its
// number is inside the account's window and beyond what was already paid.
func installmentNumber(acc model.InstallmentAccount, month, year int) (int, bool) {
	monthsElapsed := (year-acc.StartYear)*12 + (month - acc.StartMonth)
	n := monthsElapsed + 1
	if n <= 0 || n > acc.TotalInstallments {
		return n, false
	}
	if n <= acc.InstallmentsPaid {
		return n, false
	}
	return n, true
}

// dayInMonth anchors a day-of-month onto a period, clamping to the last
// day when the month is shorter (day 31 in February becomes the 28th or
// 29th).
func dayInMonth(year, month, day int) time.Time {
	if day < 1 {
		day = 1
	}
	lastDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
