package engine

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/model"
	"github.com/Veraticus/mint-balance/internal/settings"
	"github.com/Veraticus/mint-balance/internal/storage"
)

type staticRates map[string]float64

func (r staticRates) Rate(code string) (float64, error) {
	rate, ok := r[code]
	if !ok {
		return 0, fmt.Errorf("unknown currency: %s", code)
	}
	return rate, nil
}

func (r staticRates) Base() string { return "RUB" }

func defaultRates() staticRates {
	return staticRates{"RUB": 1, "USD": 90, "EUR": 98}
}

// createTestEngine opens an engine over a fresh database.
func createTestEngine(t *testing.T, opts ...Option) (*Engine, *settings.Store) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "mint.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	prefs := settings.NewMemory()
	e, err := Open(ctx, store, defaultRates(), prefs, opts...)
	require.NoError(t, err)
	return e, prefs
}

func categoryID(t *testing.T, e *Engine, name string) *int64 {
	t.Helper()
	cats, err := e.Categories(context.Background(), nil)
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == name {
			id := c.ID
			return &id
		}
	}
	t.Fatalf("category %q not found", name)
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestOpen_SeedsDefaultCategoriesOnce(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "mint.db"))
	require.NoError(t, err)
	defer store.Close()

	first, err := Open(ctx, store, defaultRates(), settings.NewMemory())
	require.NoError(t, err)
	second, err := Open(ctx, store, defaultRates(), settings.NewMemory())
	require.NoError(t, err)

	assert.Equal(t, first.Ident(), second.Ident())

	cats, err := second.Categories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, cats, len(model.DefaultCategories))

	income := model.KindIncome
	incomeCats, err := second.Categories(ctx, &income)
	require.NoError(t, err)
	assert.Len(t, incomeCats, 2)
}

func TestScenario_TotalsBalanceAggregate(t *testing.T) {
	ctx := context.Background()
	e, _ := createTestEngine(t)

	_, err := e.Record(ctx, RecordInput{
		Date: day(2024, 1, 10), Amount: 150, CategoryID: categoryID(t, e, "Food"),
	})
	require.NoError(t, err)
	_, err = e.Record(ctx, RecordInput{Date: day(2024, 1, 15), Amount: 1000, Income: true})
	require.NoError(t, err)

	income, expense, err := e.Totals(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, income, 1e-9)
	assert.InDelta(t, 150.0, expense, 1e-9)

	balance, err := e.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(85000), balance)

	amount, err := e.BalanceAmount(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 850.0, amount, 1e-9)

	agg, err := e.Aggregate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Food": 150}, agg.CategoryShare)
	assert.Equal(t, map[string]float64{"2024-01": 150}, agg.MonthlyExpense)
	assert.Equal(t, map[string]float64{"2024-01": 1000}, agg.MonthlyIncome)
	require.Len(t, agg.BalanceSeries, 2)
	assert.InDelta(t, -150.0, agg.BalanceSeries[0].Balance, 1e-9)
	assert.InDelta(t, 850.0, agg.BalanceSeries[1].Balance, 1e-9)
	assert.Equal(t, []string{"2024-01"}, agg.Months())
}

func TestRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("zero amount is ignored", func(t *testing.T) {
		e, _ := createTestEngine(t)
		id, err := e.Record(ctx, RecordInput{Amount: 0, Income: true})
		require.NoError(t, err)
		assert.Zero(t, id)

		ops, err := e.Operations(ctx)
		require.NoError(t, err)
		assert.Empty(t, ops)
	})

	t.Run("negative amount is normalized", func(t *testing.T) {
		e, _ := createTestEngine(t)
		_, err := e.Record(ctx, RecordInput{Amount: -40, Date: day(2024, 2, 1)})
		require.NoError(t, err)

		balance, err := e.Balance(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(-4000), balance)
	})

	t.Run("category validation happens before writing", func(t *testing.T) {
		e, _ := createTestEngine(t)

		_, err := e.Record(ctx, RecordInput{Amount: 10, CategoryID: categoryID(t, e, "Salary")})
		assert.ErrorIs(t, err, ErrCategoryKindMismatch)
		assert.ErrorIs(t, err, common.ErrValidation)

		missing := int64(999)
		_, err = e.Record(ctx, RecordInput{Amount: 10, CategoryID: &missing})
		assert.ErrorIs(t, err, ErrCategoryNotFound)

		ops, err := e.Operations(ctx)
		require.NoError(t, err)
		assert.Empty(t, ops)
	})

	t.Run("amount converted from display currency", func(t *testing.T) {
		e, prefs := createTestEngine(t)
		prefs.Set("display_currency", "USD")

		_, err := e.Record(ctx, RecordInput{Amount: 10, Income: true, Date: day(2024, 2, 1)})
		require.NoError(t, err)
		_, err = e.Record(ctx, RecordInput{Amount: 1, Currency: "EUR", Income: true, Date: day(2024, 2, 2)})
		require.NoError(t, err)

		balance, err := e.Balance(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(90000+9800), balance)
	})

	t.Run("unknown currency is an error", func(t *testing.T) {
		e, _ := createTestEngine(t)
		_, err := e.Record(ctx, RecordInput{Amount: 10, Currency: "XYZ"})
		assert.Error(t, err)
	})

	t.Run("missing date uses clock", func(t *testing.T) {
		now := time.Date(2024, 7, 4, 8, 30, 0, 0, time.UTC)
		e, _ := createTestEngine(t, WithClock(func() time.Time { return now }))

		_, err := e.Record(ctx, RecordInput{Amount: 5, Note: "  coffee  "})
		require.NoError(t, err)

		ops, err := e.Operations(ctx)
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, now, ops[0].Date)
		assert.Equal(t, "coffee", ops[0].Note)
	})
}

func TestDelete_RestoresBalance(t *testing.T) {
	ctx := context.Background()
	e, _ := createTestEngine(t)

	_, err := e.Record(ctx, RecordInput{Amount: 300, Income: true, Date: day(2024, 1, 1)})
	require.NoError(t, err)
	before, err := e.Balance(ctx)
	require.NoError(t, err)

	id, err := e.Record(ctx, RecordInput{Amount: 75.25, Date: day(2024, 1, 2)})
	require.NoError(t, err)
	require.NoError(t, e.Delete(ctx, id))

	after, err := e.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NoError(t, e.Delete(ctx, id))
}

func TestConvert(t *testing.T) {
	e, _ := createTestEngine(t)
	codes := []string{"RUB", "USD", "EUR"}

	for _, from := range codes {
		for _, to := range codes {
			for _, x := range []float64{0.01, 1, 123.45, 1e6} {
				there, err := e.Convert(x, from, to)
				require.NoError(t, err)
				back, err := e.Convert(there, to, from)
				require.NoError(t, err)
				assert.InDelta(t, x, back, x*1e-12, "%s->%s %v", from, to, x)
			}
		}
	}

	rub, err := e.Convert(1, "USD", "RUB")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, rub, 1e-9)

	_, err = e.Convert(1, "USD", "XYZ")
	assert.Error(t, err)
}

func TestAggregate_EmptyLedger(t *testing.T) {
	e, _ := createTestEngine(t)

	agg, err := e.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, agg.IsEmpty())
	assert.NotNil(t, agg.CategoryShare)
	assert.Empty(t, agg.CategoryShare)
	assert.Empty(t, agg.MonthlyIncome)
	assert.Empty(t, agg.MonthlyExpense)
	assert.Empty(t, agg.BalanceSeries)
	assert.Empty(t, agg.Months())
}

func TestAggregate_ConsistentWithTotals(t *testing.T) {
	ctx := context.Background()
	e, _ := createTestEngine(t)

	names := []string{"Food", "Transport", "Entertainment", ""}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 60; i++ {
		in := RecordInput{
			Date:   day(2023, time.Month(1+rng.Intn(12)), 1+rng.Intn(28)),
			Amount: float64(1+rng.Intn(100000)) / 100,
			Income: rng.Intn(3) == 0,
		}
		if !in.Income {
			if name := names[rng.Intn(len(names))]; name != "" {
				in.CategoryID = categoryID(t, e, name)
			}
		}
		_, err := e.Record(ctx, in)
		require.NoError(t, err)
	}

	income, expense, err := e.Totals(ctx)
	require.NoError(t, err)
	agg, err := e.Aggregate(ctx, nil)
	require.NoError(t, err)

	var shareSum, monthlyExpense, monthlyIncome float64
	for _, v := range agg.CategoryShare {
		shareSum += v
	}
	for _, v := range agg.MonthlyExpense {
		monthlyExpense += v
	}
	for _, v := range agg.MonthlyIncome {
		monthlyIncome += v
	}

	assert.InDelta(t, expense, shareSum, 1e-6)
	assert.InDelta(t, expense, monthlyExpense, 1e-6)
	assert.InDelta(t, income, monthlyIncome, 1e-6)

	balance, err := e.BalanceAmount(ctx)
	require.NoError(t, err)
	require.Len(t, agg.BalanceSeries, 60)
	assert.InDelta(t, balance, agg.BalanceSeries[len(agg.BalanceSeries)-1].Balance, 1e-6)
	for i := 1; i < len(agg.BalanceSeries); i++ {
		assert.False(t, agg.BalanceSeries[i].Time.Before(agg.BalanceSeries[i-1].Time))
	}
}

func TestAggregate_Window(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	e, _ := createTestEngine(t, WithClock(func() time.Time { return now }))

	for _, in := range []RecordInput{
		{Date: day(2024, 1, 1), Amount: 500, Income: true},
		{Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Amount: 20, CategoryID: categoryID(t, e, "Transport")},
		{Date: day(2024, 3, 30), Amount: 100, Income: true},
	} {
		_, err := e.Record(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		window      *int
		wantIncome  map[string]float64
		wantExpense map[string]float64
		name        string
		wantPoints  int
	}{
		{
			name:        "all history",
			wantPoints:  3,
			wantIncome:  map[string]float64{"2024-01": 500, "2024-03": 100},
			wantExpense: map[string]float64{"2024-03": 20},
		},
		{
			name:        "cutoff is inclusive",
			window:      intPtr(30),
			wantPoints:  2,
			wantIncome:  map[string]float64{"2024-03": 100},
			wantExpense: map[string]float64{"2024-03": 20},
		},
		{
			name:        "last week",
			window:      intPtr(7),
			wantPoints:  1,
			wantIncome:  map[string]float64{"2024-03": 100},
			wantExpense: map[string]float64{},
		},
		{
			name:        "window longer than a duration can hold",
			window:      intPtr(106752),
			wantPoints:  3,
			wantIncome:  map[string]float64{"2024-01": 500, "2024-03": 100},
			wantExpense: map[string]float64{"2024-03": 20},
		},
		{
			name:        "very long window",
			window:      intPtr(200000),
			wantPoints:  3,
			wantIncome:  map[string]float64{"2024-01": 500, "2024-03": 100},
			wantExpense: map[string]float64{"2024-03": 20},
		},
		{
			name:        "zero days",
			window:      intPtr(0),
			wantPoints:  0,
			wantIncome:  map[string]float64{},
			wantExpense: map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := e.Aggregate(ctx, tt.window)
			require.NoError(t, err)
			assert.Len(t, agg.BalanceSeries, tt.wantPoints)
			assert.Equal(t, tt.wantIncome, agg.MonthlyIncome)
			assert.Equal(t, tt.wantExpense, agg.MonthlyExpense)
		})
	}

	_, err := e.Aggregate(ctx, intPtr(-1))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestDeleteCategory_OperationsBecomeUncategorized(t *testing.T) {
	ctx := context.Background()
	e, _ := createTestEngine(t)

	food := categoryID(t, e, "Food")
	_, err := e.Record(ctx, RecordInput{Date: day(2024, 4, 1), Amount: 30, CategoryID: food})
	require.NoError(t, err)

	require.NoError(t, e.DeleteCategory(ctx, *food))

	agg, err := e.Aggregate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{model.UncategorizedLabel: 30}, agg.CategoryShare)

	balance, err := e.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-3000), balance)

	assert.ErrorIs(t, e.DeleteCategory(ctx, *food), common.ErrNotFound)
}

func TestExportRows(t *testing.T) {
	ctx := context.Background()
	e, prefs := createTestEngine(t)

	_, err := e.Record(ctx, RecordInput{
		Date: day(2024, 1, 10), Amount: 900, CategoryID: categoryID(t, e, "Food"), Note: "market",
	})
	require.NoError(t, err)
	_, err = e.Record(ctx, RecordInput{Date: day(2024, 1, 15), Amount: 1800, Income: true})
	require.NoError(t, err)

	prefs.Set("display_currency", "USD")
	rows, err := e.ExportRows(ctx)
	require.NoError(t, err)

	assert.Equal(t, []model.ExportRow{
		{Date: "15.01.2024", Amount: "$20.00", Category: model.UncategorizedLabel},
		{Date: "10.01.2024", Amount: "-$10.00", Category: "Food", Note: "market"},
	}, rows)
	assert.Equal(t, []string{"Date", "Amount", "Category", "Note"}, ExportHeader())
	assert.Len(t, rows[0].Values(), len(ExportHeader()))

	prefs.Set("display_currency", "XYZ")
	rows, err = e.ExportRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.FormatMoney(1800, "RUB"), rows[0].Amount)
	assert.Equal(t, model.FormatMoney(-900, "RUB"), rows[1].Amount)
}

func TestFormatMoney(t *testing.T) {
	e, prefs := createTestEngine(t)
	prefs.Set("display_currency", "usd")
	assert.Equal(t, "USD", e.DisplayCurrency())
	assert.Equal(t, "$1.00", e.FormatMoney(90))

	prefs.Set("display_currency", "XYZ")
	// Unknown display currency falls back to the base.
	assert.Equal(t, model.FormatMoney(90, "RUB"), e.FormatMoney(90))
}

func intPtr(v int) *int { return &v }
