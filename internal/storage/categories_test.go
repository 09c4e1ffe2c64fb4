package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mint-balance/internal/model"
)

func TestCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("ordered by name with optional kind filter", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()
		userID, _ := createTestAccount(t, store)

		for _, c := range []struct {
			name string
			kind model.Kind
		}{
			{"Transport", model.KindExpense},
			{"Salary", model.KindIncome},
			{"Food", model.KindExpense},
			{"Gift", model.KindIncome},
		} {
			_, err := store.AddCategory(ctx, userID, c.name, c.kind)
			require.NoError(t, err)
		}

		all, err := store.GetCategories(ctx, userID, nil)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, []string{"Food", "Gift", "Salary", "Transport"}, names(all))

		income := model.KindIncome
		incomeOnly, err := store.GetCategories(ctx, userID, &income)
		require.NoError(t, err)
		assert.Equal(t, []string{"Gift", "Salary"}, names(incomeOnly))
		for _, c := range incomeOnly {
			assert.Equal(t, model.KindIncome, c.Kind)
			assert.Equal(t, userID, c.UserID)
		}
	})

	t.Run("duplicate names are allowed", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()
		userID, _ := createTestAccount(t, store)

		first, err := store.AddCategory(ctx, userID, "Food", model.KindExpense)
		require.NoError(t, err)
		second, err := store.AddCategory(ctx, userID, "Food", model.KindExpense)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()
		userID, _ := createTestAccount(t, store)

		_, err := store.AddCategory(ctx, userID, " ", model.KindExpense)
		assert.ErrorIs(t, err, ErrEmptyString)

		_, err = store.AddCategory(ctx, userID, "Transfers", model.Kind("transfer"))
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("get by id", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()
		userID, _ := createTestAccount(t, store)

		id, err := store.AddCategory(ctx, userID, "  Rent ", model.KindExpense)
		require.NoError(t, err)

		cat, err := store.GetCategory(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Rent", cat.Name)
		assert.Equal(t, model.KindExpense, cat.Kind)

		_, err = store.GetCategory(ctx, id+100)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteCategory_KeepsOperations(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	userID, accountID := createTestAccount(t, store)

	catID, err := store.AddCategory(ctx, userID, "Food", model.KindExpense)
	require.NoError(t, err)

	opID, err := store.RecordOperation(ctx, model.OperationInput{
		AccountID:  accountID,
		Kind:       model.KindExpense,
		Amount:     42.5,
		CategoryID: &catID,
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteCategory(ctx, catID))

	ops, err := store.ListOperations(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, opID, ops[0].ID)
	assert.Nil(t, ops[0].CategoryID)
	assert.Equal(t, model.UncategorizedLabel, ops[0].CategoryName)

	balance, err := store.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(-4250), balance)

	assert.ErrorIs(t, store.DeleteCategory(ctx, catID), ErrNotFound)
}

func names(categories []model.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Name
	}
	return out
}
