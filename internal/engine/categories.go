package engine

import (
	"context"

	"github.com/Veraticus/mint-balance/internal/model"
)

// Categories lists the user's categories, optionally of one kind.
func (e *Engine) Categories(ctx context.Context, kind *model.Kind) ([]model.Category, error) {
	return e.store.GetCategories(ctx, e.ident.UserID, kind)
}

// AddCategory creates a category for the user.
func (e *Engine) AddCategory(ctx context.Context, name string, kind model.Kind) (int64, error) {
	return e.store.AddCategory(ctx, e.ident.UserID, name, kind)
}

// DeleteCategory removes a category. Its operations become uncategorized.
func (e *Engine) DeleteCategory(ctx context.Context, id int64) error {
	cat, err := e.store.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if cat.UserID != e.ident.UserID {
		return ErrCategoryNotFound
	}
	return e.store.DeleteCategory(ctx, id)
}
