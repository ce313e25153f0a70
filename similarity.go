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
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/raynanbulhoes22/finrecon/config"
	"github.com/raynanbulhoes22/finrecon/model"
)

// Scoring weights. Factors are additive and the total is capped at 100.
const (
	valueTierExact    = 40 // exact or within ±5%
	valueTierClose    = 20 // within ±10%
	valueTierFallback = 10 // within ±15%, income fallback types only
	textTierStrong    = 30 // text similarity ≥70
	textTierPartial   = 15 // text similarity ≥40
	categoryBonus     = 15 // category similarity ≥50
	directionBonus    = 10 // credit transaction against an income event
	autoDebitBonus    = 5  // auto-debit event paid by a débito method
)

// ScoreCandidate scores one (expected event, transaction) pair. Pure:
// same inputs always produce the same score and rationale, so evaluation
// results are cacheable and order-stable. The rationale lists matched
// factors in scoring order.
func ScoreCandidate(event model.ExpectedEvent, txn *model.TransactionRecord, matching config.MatchingConfig) (int, []string) {
	score := 0
	var reasons []string

	if pts, reason := valueTier(event, txn.AbsAmount, matching); pts > 0 {
		score += pts
		reasons = append(reasons, reason)
	}

	textSim := textSimilarity(event.DisplayName, txn.SearchText(), matching)
	switch {
	case textSim >= 70:
		score += textTierStrong
		reasons = append(reasons, "text: very similar")
	case textSim >= 40:
		score += textTierPartial
		reasons = append(reasons, "text: partially similar")
	}

	if event.Category != "" && txn.Category != "" &&
		textSimilarity(event.Category, txn.Category, matching) >= 50 {
		score += categoryBonus
		reasons = append(reasons, "category: compatible")
	}

	if event.Kind == model.KindIncomeSource && txn.Direction == model.DirectionCredit {
		score += directionBonus
		reasons = append(reasons, "direction: credit matches income")
	}

	if event.AutoDebit && strings.Contains(strings.ToLower(txn.PaymentMethod), "débito") {
		score += autoDebitBonus
		reasons = append(reasons, "payment: auto-debit")
	}

	if score > 100 {
		score = 100
	}
	return score, reasons
}

// valueTier compares the expected amount against the transaction's absolute
// amount. Tiers are exclusive, widest tolerance last; the ±15% fallback is
// deliberately restricted to configured income types so loose amounts do
// not pull in false positives for other kinds.
func valueTier(event model.ExpectedEvent, absAmount float64, matching config.MatchingConfig) (int, string) {
	if event.ExpectedAmount <= 0 {
		return 0, ""
	}
	if absAmount == event.ExpectedAmount {
		return valueTierExact, "amount: exact match"
	}
	diff := math.Abs(absAmount-event.ExpectedAmount) / event.ExpectedAmount
	switch {
	case diff <= 0.05:
		return valueTierExact, "amount: within 5%"
	case diff <= 0.10:
		return valueTierClose, "amount: within 10%"
	case diff <= 0.15 && event.Kind == model.KindIncomeSource && isFallbackIncomeType(event.IncomeType, matching):
		return valueTierFallback, "amount: within 15% (income fallback)"
	}
	return 0, ""
}

func isFallbackIncomeType(incomeType string, matching config.MatchingConfig) bool {
	incomeType = strings.ToLower(strings.TrimSpace(incomeType))
	for _, t := range matching.FallbackIncomeTypes {
		if incomeType == strings.ToLower(t) {
			return true
		}
	}
	return false
}

// textSimilarity computes word-overlap similarity between two free-text
// strings on a 0..100 scale. Exact case-insensitive equality short-circuits
// to 100.
func textSimilarity(a, b string, matching config.MatchingConfig) int {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	if strings.EqualFold(a, b) {
		return 100
	}
	// Whole-word containment also short-circuits: an event name embedded in
	// a longer bank descriptor ("Salário" in "Salário Empresa X") is as
	// strong a signal as equality. The boundary check keeps a short name
	// from matching inside an unrelated word ("Luz" in "Luzerna").
	la, lb := " "+strings.ToLower(a)+" ", " "+strings.ToLower(b)+" "
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return 100
	}

	wordsA := tokenize(a, matching.StopWords)
	wordsB := tokenize(b, matching.StopWords)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	common := 0
	for _, wa := range wordsA {
		for _, wb := range wordsB {
			if tokensMatch(wa, wb, matching.TokenDrift) {
				common++
				break
			}
		}
	}

	longest := len(wordsA)
	if len(wordsB) > longest {
		longest = len(wordsB)
	}
	return 100 * common / longest
}

// tokenize lower-cases, splits on whitespace, and drops stop words.
func tokenize(s string, stopWords []string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if isStopWord(w, stopWords) {
			continue
		}
		words = append(words, w)
	}
	return words
}

func isStopWord(w string, stopWords []string) bool {
	for _, sw := range stopWords {
		if w == sw {
			return true
		}
	}
	return false
}

// tokensMatch compares two tokens, tolerating up to drift percent of edit
// distance relative to the longer token. Drift 0 requires exact equality,
// which keeps the overlap count strictly word-based; deployments matching
// noisy bank descriptors can loosen it.
func tokensMatch(a, b string, drift int) bool {
	if a == b {
		return true
	}
	if drift <= 0 {
		return false
	}
	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	maxAllowed := longest * drift / 100
	return distance <= maxAllowed
}
