package model

import (
	"sort"
	"time"
)

// BalancePoint is one sample of the running balance, in base major units.
type BalancePoint struct {
	Time    time.Time
	Balance float64
}

// Aggregation holds the four reporting views derived from one pass over operations.
// All amounts are base-currency major units.
type Aggregation struct {
	CategoryShare  map[string]float64
	MonthlyIncome  map[string]float64
	MonthlyExpense map[string]float64
	BalanceSeries  []BalancePoint
}

// NewAggregation returns an Aggregation with empty, non-nil views.
func NewAggregation() *Aggregation {
	return &Aggregation{
		CategoryShare:  make(map[string]float64),
		MonthlyIncome:  make(map[string]float64),
		MonthlyExpense: make(map[string]float64),
		BalanceSeries:  []BalancePoint{},
	}
}

// Months returns every month key present in either monthly view, sorted ascending.
func (a *Aggregation) Months() []string {
	seen := make(map[string]struct{}, len(a.MonthlyIncome)+len(a.MonthlyExpense))
	for m := range a.MonthlyIncome {
		seen[m] = struct{}{}
	}
	for m := range a.MonthlyExpense {
		seen[m] = struct{}{}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// IsEmpty reports whether no operation contributed to the aggregation.
func (a *Aggregation) IsEmpty() bool {
	return len(a.BalanceSeries) == 0
}

// ExportRow is one operation rendered for the export boundary.
type ExportRow struct {
	Date     string
	Amount   string
	Category string
	Note     string
}

// Values returns the row as a slice in column order.
func (r ExportRow) Values() []string {
	return []string{r.Date, r.Amount, r.Category, r.Note}
}
