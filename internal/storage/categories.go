package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/mint-balance/internal/model"
)

// GetCategories returns the user's categories ordered by name, optionally
// restricted to one kind.
func (s *SQLiteStorage) GetCategories(ctx context.Context, userID int64, kind *model.Kind) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, name, kind, created_at
		FROM categories
		WHERE user_id = ?`
	args := []any{userID}
	if kind != nil {
		if err := validateKind(*kind); err != nil {
			return nil, err
		}
		query += ` AND kind = ?`
		args = append(args, string(*kind))
	}
	query += ` ORDER BY name, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Kind, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategory returns a category by its ID, or ErrNotFound.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var cat model.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, kind, created_at
		FROM categories
		WHERE id = ?`, id).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Kind, &cat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// AddCategory creates a new category. Names are not required to be unique.
func (s *SQLiteStorage) AddCategory(ctx context.Context, userID int64, name string, kind model.Kind) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return 0, err
	}
	if err := validateString(name, "name"); err != nil {
		return 0, err
	}
	if err := validateKind(kind); err != nil {
		return 0, err
	}

	name = strings.TrimSpace(name)
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, kind) VALUES (?, ?, ?)`,
		userID, name, string(kind))
	if err != nil {
		return 0, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get category ID: %w", err)
	}

	slog.Info("created new category", "name", name, "kind", kind, "id", id)
	return id, nil
}

// DeleteCategory removes a category. Operations that referenced it keep their
// history and become uncategorized; balances are not affected.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Nulling explicitly keeps the rule intact even on a connection opened
		// without foreign key enforcement.
		if _, err := tx.ExecContext(ctx,
			`UPDATE operations SET category_id = NULL WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("failed to detach operations: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: category %d", ErrNotFound, id)
		}

		slog.Info("deleted category", "id", id)
		return nil
	})
}
