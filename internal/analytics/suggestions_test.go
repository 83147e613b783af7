package analytics

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode"

	"fintrack/internal/core"

	"golang.org/x/text/language"
)

func series(category string, values ...string) []core.Transaction {
	// one transaction per month ending in June 2025
	var txs []core.Transaction
	start := 7 - len(values)
	for i, v := range values {
		day := 10
		if start+i == 6 {
			day = 5
		}
		txs = append(txs, expense(category, v, core.NewDate(2025, start+i, day)))
	}
	return txs
}

func findSuggestion(list []Suggestion, id string) (Suggestion, bool) {
	for _, s := range list {
		if s.ID == id {
			return s, true
		}
	}
	return Suggestion{}, false
}

func assertSorted(t *testing.T, list []Suggestion) {
	t.Helper()
	for i := 1; i < len(list); i++ {
		a, b := list[i-1], list[i]
		if a.Priority.Weight() < b.Priority.Weight() {
			t.Fatalf("suggestion %d (%s) outranks %d (%s)", i, b.ID, i-1, a.ID)
		}
		if a.Priority == b.Priority && a.Confidence < b.Confidence {
			t.Fatalf("equal priority suggestions not ordered by confidence: %s %d < %s %d", a.ID, a.Confidence, b.ID, b.Confidence)
		}
	}
}

func TestSuggestionsNewBudgetScenario(t *testing.T) {
	list := New(WithClock(fixedNow)).Suggestions(scenarioTransactions(), nil)

	if len(list) != 2 {
		t.Fatalf("expected 2 suggestions, got %+v", list)
	}
	// both medium; savings opportunity has the higher confidence
	if list[0].ID != "savings-opportunity-Alimentation" || list[1].ID != "new-budget-Alimentation" {
		t.Fatalf("unexpected order %s, %s", list[0].ID, list[1].ID)
	}

	nb := list[1]
	if nb.Kind != NewBudget || !nb.Actionable || nb.Priority != PriorityMedium {
		t.Fatalf("unexpected new budget suggestion %+v", nb)
	}
	if nb.SuggestedAmount == nil || !nb.SuggestedAmount.Equal(amount("21175")) {
		t.Fatalf("suggested amount = %v, want 21175", nb.SuggestedAmount)
	}
	// volatility of the series is about 44%
	if nb.Confidence != 65 {
		t.Fatalf("confidence = %d, want 65", nb.Confidence)
	}
	if nb.CurrentAmount != nil {
		t.Fatalf("new budget has no current amount")
	}

	so := list[0]
	if !so.SuggestedAmount.Equal(amount("27000")) || !so.CurrentAmount.Equal(amount("30000")) {
		t.Fatalf("unexpected savings amounts %s / %s", so.SuggestedAmount, so.CurrentAmount)
	}
}

func TestSuggestionsNewBudgetHighPriority(t *testing.T) {
	txs := series("Logement", "60000", "60000")
	txs = append(txs, income("Salaire", "200000", core.NewDate(2025, 6, 1)))

	list := New(WithClock(fixedNow)).Suggestions(txs, nil)

	if len(list) != 1 {
		t.Fatalf("expected only a new budget suggestion, got %+v", list)
	}
	s := list[0]
	if s.ID != "new-budget-Logement" || s.Priority != PriorityHigh || s.Confidence != 85 {
		t.Fatalf("unexpected suggestion %+v", s)
	}
	if !s.SuggestedAmount.Equal(amount("66000")) {
		t.Fatalf("suggested amount = %s, want 66000", s.SuggestedAmount)
	}
}

func TestSuggestionsNoNewBudgetAtThreshold(t *testing.T) {
	txs := series("Transport", "10000")
	txs = append(txs, income("Salaire", "200000", core.NewDate(2025, 6, 1)))
	if list := New(WithClock(fixedNow)).Suggestions(txs, nil); len(list) != 0 {
		t.Fatalf("an average of exactly 10000 should not suggest a budget, got %+v", list)
	}
}

func TestSuggestionsBudgetIncrease(t *testing.T) {
	budgets := []core.Budget{budget("Alimentation", "20000", core.Monthly)}

	list := New(WithClock(fixedNow)).Suggestions(scenarioTransactions(), budgets)

	s, ok := findSuggestion(list, "increase-budget-Alimentation")
	if !ok {
		t.Fatalf("expected increase suggestion, got %+v", list)
	}
	if s.Priority != PriorityHigh || s.Confidence != 80 || !s.Actionable {
		t.Fatalf("unexpected suggestion %+v", s)
	}
	// ceil(19250 * 1.15) = ceil(22137.5)
	if !s.SuggestedAmount.Equal(amount("22138")) || !s.CurrentAmount.Equal(amount("20000")) {
		t.Fatalf("amounts = %s / %s", s.SuggestedAmount, s.CurrentAmount)
	}
	if _, ok := findSuggestion(list, "new-budget-Alimentation"); ok {
		t.Fatalf("budgeted category must not get a new budget suggestion")
	}
	if list[0].ID != s.ID {
		t.Fatalf("high priority suggestion should be first, got %s", list[0].ID)
	}
}

func TestSuggestionsBudgetDecrease(t *testing.T) {
	txs := series("Alimentation", "30000", "28000", "12000", "10000")
	budgets := []core.Budget{budget("Alimentation", "50000", core.Monthly)}

	list := New(WithClock(fixedNow)).Suggestions(txs, budgets)

	s, ok := findSuggestion(list, "decrease-budget-Alimentation")
	if !ok {
		t.Fatalf("expected decrease suggestion, got %+v", list)
	}
	if s.Priority != PriorityMedium || s.Confidence != 75 {
		t.Fatalf("unexpected suggestion %+v", s)
	}
	if !s.SuggestedAmount.Equal(amount("21000")) || !s.CurrentAmount.Equal(amount("50000")) {
		t.Fatalf("amounts = %s / %s", s.SuggestedAmount, s.CurrentAmount)
	}
	if !strings.Contains(s.Description, "20.0%") {
		t.Fatalf("description should mention usage: %q", s.Description)
	}
}

func TestSuggestionsBudgetWithoutPatternIgnored(t *testing.T) {
	budgets := []core.Budget{budget("Vacances", "1000", core.Monthly)}
	txs := []core.Transaction{
		expense("Vacances", "5000", core.NewDate(2025, 6, 2)),
		income("Salaire", "900000", core.NewDate(2025, 6, 1)),
	}
	list := New(WithClock(fixedNow)).Suggestions(txs, budgets)
	if len(list) != 0 {
		t.Fatalf("expected no suggestions for an uncatalogued category, got %+v", list)
	}
}

func TestSuggestionsSpendingAlert(t *testing.T) {
	txs := series("Transport", "1000", "1000", "1000", "20000")

	list := New(WithClock(fixedNow)).Suggestions(txs, nil)

	s, ok := findSuggestion(list, "spending-alert-Transport")
	if !ok {
		t.Fatalf("expected spending alert, got %+v", list)
	}
	if s.Actionable || s.SuggestedAmount != nil || s.Priority != PriorityHigh || s.Confidence != 90 {
		t.Fatalf("unexpected alert %+v", s)
	}
	if list[0].ID != s.ID {
		t.Fatalf("alert should be first, got %s", list[0].ID)
	}
	assertSorted(t, list)
}

func TestSuggestionsSavingsRequiresLowRate(t *testing.T) {
	txs := scenarioTransactions()
	txs = append(txs, income("Salaire", "40000", core.NewDate(2025, 6, 1)))
	// savings rate is 25%
	list := New(WithClock(fixedNow)).Suggestions(txs, nil)
	if _, ok := findSuggestion(list, "savings-opportunity-Alimentation"); ok {
		t.Fatalf("no savings opportunity expected at a 25%% savings rate")
	}
}

func TestSuggestionsEmpty(t *testing.T) {
	list := New(WithClock(fixedNow)).Suggestions(nil, nil)
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %#v", list)
	}
}

func TestSuggestionsSortedAndIdempotent(t *testing.T) {
	var txs []core.Transaction
	txs = append(txs, series("Alimentation", "10000", "12000", "25000", "30000")...)
	txs = append(txs, series("Transport", "1000", "1000", "1000", "20000")...)
	txs = append(txs, series("Logement", "60000", "60000", "60000", "60000")...)
	txs = append(txs, series("Loisirs", "30000", "28000", "12000", "10000")...)
	budgets := []core.Budget{
		budget("Alimentation", "20000", core.Monthly),
		budget("Loisirs", "50000", core.Monthly),
	}
	e := New(WithClock(fixedNow))

	first := e.Suggestions(txs, budgets)
	second := e.Suggestions(txs, budgets)

	if len(first) < 4 {
		t.Fatalf("expected several suggestions, got %d", len(first))
	}
	assertSorted(t, first)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("suggestions differ between identical calls")
	}

	seen := map[string]bool{}
	for _, s := range first {
		if seen[s.ID] {
			t.Fatalf("duplicate id %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestSortSuggestions(t *testing.T) {
	list := []Suggestion{
		{ID: "a", Priority: PriorityLow, Confidence: 99},
		{ID: "b", Priority: PriorityMedium, Confidence: 70},
		{ID: "c", Priority: PriorityHigh, Confidence: 80},
		{ID: "d", Priority: PriorityMedium, Confidence: 75},
		{ID: "e", Priority: PriorityHigh, Confidence: 90},
	}
	SortSuggestions(list)
	var got []string
	for _, s := range list {
		got = append(got, s.ID)
	}
	if strings.Join(got, "") != "ecdba" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestMoneyFormatter(t *testing.T) {
	f := NewMoneyFormatter(language.French, "FCFA")
	got := f.Format(amount("21175.4"))
	if !strings.HasSuffix(got, " FCFA") {
		t.Fatalf("missing label: %q", got)
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, got)
	if digits != "21175" {
		t.Fatalf("unexpected number in %q", got)
	}
	if plain := NewMoneyFormatter(language.English, "").Format(amount("999")); plain != "999" {
		t.Fatalf("unexpected plain format %q", plain)
	}
}
