package engine

import (
	"context"
	"sort"

	"github.com/Veraticus/mint-balance/internal/model"
)

// Aggregate builds the reporting views in one ascending pass over the operations.
// A nil window covers the whole history; otherwise only operations at or after
// now minus windowDays are kept. Amounts are base currency.
func (e *Engine) Aggregate(ctx context.Context, windowDays *int) (*model.Aggregation, error) {
	if windowDays != nil && *windowDays < 0 {
		return nil, ErrInvalidWindow
	}

	ops, err := e.Operations(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].Date.Equal(ops[j].Date) {
			return ops[i].ID < ops[j].ID
		}
		return ops[i].Date.Before(ops[j].Date)
	})

	if windowDays != nil {
		cutoff := model.Naive(e.now()).AddDate(0, 0, -*windowDays)
		kept := ops[:0]
		for _, op := range ops {
			if !op.Date.Before(cutoff) {
				kept = append(kept, op)
			}
		}
		ops = kept
	}

	// Sums stay in minor units until the end so the views agree exactly.
	share := make(map[string]int64)
	income := make(map[string]int64)
	expense := make(map[string]int64)

	agg := model.NewAggregation()
	var running int64
	for _, op := range ops {
		running += op.Signed()
		agg.BalanceSeries = append(agg.BalanceSeries, model.BalancePoint{
			Time:    op.Date,
			Balance: model.FromMinorUnits(running),
		})

		month := op.Date.Format(model.MonthLayout)
		if op.Kind == model.KindIncome {
			income[month] += op.Amount
			continue
		}
		expense[month] += op.Amount
		share[categoryLabel(op)] += op.Amount
	}

	for k, v := range share {
		agg.CategoryShare[k] = model.FromMinorUnits(v)
	}
	for k, v := range income {
		agg.MonthlyIncome[k] = model.FromMinorUnits(v)
	}
	for k, v := range expense {
		agg.MonthlyExpense[k] = model.FromMinorUnits(v)
	}
	return agg, nil
}

func categoryLabel(op model.Operation) string {
	if op.CategoryID == nil || op.CategoryName == "" {
		return model.UncategorizedLabel
	}
	return op.CategoryName
}
