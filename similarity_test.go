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
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"github.com/raynanbulhoes22/finrecon/model"
)

func TestScoreSalaryExactMatch(t *testing.T) {
	event := model.ExpectedEvent{
		Kind:           model.KindIncomeSource,
		SourceID:       "inc1",
		DisplayName:    "Salário",
		ExpectedAmount: 3000,
		IncomeType:     "salario",
	}
	txn := &model.TransactionRecord{
		TransactionID: "txn1",
		Title:         "Salário Empresa X",
		AbsAmount:     3000,
		Direction:     model.DirectionCredit,
	}

	score, rationale := ScoreCandidate(event, txn, testMatchingConfig())
	assert.Equal(t, 80, score, "exact amount 40 + text 30 + credit direction 10")
	assert.Equal(t, []string{
		"amount: exact match",
		"text: very similar",
		"direction: credit matches income",
	}, rationale)
}

func TestScoreFixedExpenseNoFallbackTier(t *testing.T) {
	event := model.ExpectedEvent{
		Kind:           model.KindFixedExpense,
		SourceID:       "exp1",
		DisplayName:    "Condomínio",
		ExpectedAmount: 500,
	}
	txn := &model.TransactionRecord{
		TransactionID: "txn1",
		Title:         "Pagamento boleto",
		AbsAmount:     575,
		Direction:     model.DirectionDebit,
	}

	score, _ := ScoreCandidate(event, txn, testMatchingConfig())
	assert.Less(t, score, 30, "15%% drift only counts for income fallback types")
}

func TestScoreIncomeFallbackTier(t *testing.T) {
	event := model.ExpectedEvent{
		Kind:           model.KindIncomeSource,
		SourceID:       "inc1",
		DisplayName:    "Freela site",
		ExpectedAmount: 1000,
		IncomeType:     "freelancer",
	}
	txn := &model.TransactionRecord{
		TransactionID: "txn1",
		Title:         "Transferência recebida",
		AbsAmount:     1140,
		Direction:     model.DirectionCredit,
	}

	score, rationale := ScoreCandidate(event, txn, testMatchingConfig())
	assert.Equal(t, 20, score, "fallback amount 10 + credit direction 10")
	assert.Contains(t, rationale, "amount: within 15% (income fallback)")
}

func TestScoreValueTiers(t *testing.T) {
	event := model.ExpectedEvent{
		Kind:           model.KindFixedExpense,
		SourceID:       "exp1",
		DisplayName:    "Energia",
		ExpectedAmount: 200,
	}
	cases := []struct {
		amount float64
		want   int
	}{
		{200, 40},    // exact
		{208, 40},    // within 5%
		{218, 20},    // within 10%
		{228, 0},     // within 15%, not an income fallback
		{400, 0},     // way off
	}
	for _, tc := range cases {
		score, _ := ScoreCandidate(event, &model.TransactionRecord{
			TransactionID: "txn1",
			Title:         "Fatura cobrança",
			AbsAmount:     tc.amount,
			Direction:     model.DirectionDebit,
		}, testMatchingConfig())
		assert.Equal(t, tc.want, score, "amount %.0f", tc.amount)
	}
}

func TestScoreAutoDebitAndCategory(t *testing.T) {
	event := model.ExpectedEvent{
		Kind:           model.KindFixedExpense,
		SourceID:       "exp1",
		DisplayName:    "Plano de saúde",
		Category:       "Saúde",
		ExpectedAmount: 450,
		AutoDebit:      true,
	}
	txn := &model.TransactionRecord{
		TransactionID: "txn1",
		Title:         "Plano de saúde familiar",
		Category:      "Saúde",
		AbsAmount:     450,
		Direction:     model.DirectionDebit,
		PaymentMethod: "Débito automático",
	}

	score, rationale := ScoreCandidate(event, txn, testMatchingConfig())
	assert.Equal(t, 90, score, "amount 40 + text 30 + category 15 + auto-debit 5")
	assert.Contains(t, rationale, "category: compatible")
	assert.Contains(t, rationale, "payment: auto-debit")
}

func TestTextSimilarityStopWords(t *testing.T) {
	cfg := testMatchingConfig()

	// "para" and "prestados" are stop words, so only the content words count.
	sim := textSimilarity("Serviços prestados para empresa", "serviços empresa", cfg)
	assert.GreaterOrEqual(t, sim, 70)

	assert.Equal(t, 100, textSimilarity("Aluguel", "ALUGUEL", cfg))
	assert.Equal(t, 0, textSimilarity("", "anything", cfg))
}

func TestTextSimilarityWordBoundary(t *testing.T) {
	cfg := testMatchingConfig()

	// Whole-word containment short-circuits to the maximum.
	assert.Equal(t, 100, textSimilarity("Salário", "Salário Empresa X", cfg))
	assert.Equal(t, 100, textSimilarity("Plano de saúde", "Plano de saúde familiar", cfg))

	// A short name inside an unrelated word is not containment.
	assert.Equal(t, 0, textSimilarity("Luz", "Luzerna Market", cfg))
}

func TestScoreBounds(t *testing.T) {
	gofakeit.Seed(42)
	cfg := testMatchingConfig()

	kinds := []model.EventKind{model.KindIncomeSource, model.KindFixedExpense, model.KindInstallment}
	for i := 0; i < 200; i++ {
		event := model.ExpectedEvent{
			Kind:           kinds[i%len(kinds)],
			SourceID:       gofakeit.UUID(),
			DisplayName:    gofakeit.Company(),
			Category:       gofakeit.BuzzWord(),
			ExpectedAmount: gofakeit.Float64Range(1, 10000),
			AutoDebit:      gofakeit.Bool(),
			IncomeType:     "salario",
		}
		txn := &model.TransactionRecord{
			TransactionID: gofakeit.UUID(),
			Title:         gofakeit.Sentence(3),
			Establishment: gofakeit.Company(),
			Category:      gofakeit.BuzzWord(),
			AbsAmount:     gofakeit.Float64Range(1, 10000),
			Date:          gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
			Direction:     model.DirectionCredit,
			PaymentMethod: "débito automático",
		}

		score, _ := ScoreCandidate(event, txn, cfg)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestTokensMatchDrift(t *testing.T) {
	assert.True(t, tokensMatch("aluguel", "aluguel", 0))
	assert.False(t, tokensMatch("aluguel", "aluguei", 0))
	assert.True(t, tokensMatch("aluguel", "aluguei", 20), "one edit in seven runes is within 20%% drift")
}
