package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/mint-balance/internal/model"
)

// RecordOperation stores an operation and applies its signed amount to the
// account balance. Both writes commit together or not at all.
func (s *SQLiteStorage) RecordOperation(ctx context.Context, input model.OperationInput) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	minor, err := validateOperation(input)
	if err != nil {
		return 0, err
	}

	var note sql.NullString
	if input.Note != "" {
		note = sql.NullString{String: input.Note, Valid: true}
	}
	var categoryID sql.NullInt64
	if input.CategoryID != nil {
		categoryID = sql.NullInt64{Int64: *input.CategoryID, Valid: true}
	}
	occurredAt := model.Naive(input.Date).Format(model.TimestampLayout)

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO operations (account_id, kind, amount, category_id, occurred_at, note)
			VALUES (?, ?, ?, ?, ?, ?)`,
			input.AccountID, string(input.Kind), minor, categoryID, occurredAt, note)
		if err != nil {
			return fmt.Errorf("failed to insert operation: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get operation ID: %w", err)
		}

		return applyBalance(ctx, tx, input.AccountID, input.Kind.Sign()*minor)
	})
	if err != nil {
		return 0, err
	}

	slog.Debug("recorded operation",
		"id", id,
		"account_id", input.AccountID,
		"kind", input.Kind,
		"amount_minor", minor)
	return id, nil
}

// DeleteOperation removes an operation and reverses its balance effect.
// Deleting an unknown ID is a no-op.
func (s *SQLiteStorage) DeleteOperation(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			accountID int64
			kind      model.Kind
			amount    int64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT account_id, kind, amount FROM operations WHERE id = ?`, id).
			Scan(&accountID, &kind, &amount)
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("operation not found, nothing to delete", "id", id)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query operation: %w", err)
		}

		if err := applyBalance(ctx, tx, accountID, -kind.Sign()*amount); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete operation: %w", err)
		}

		slog.Debug("deleted operation", "id", id, "account_id", accountID)
		return nil
	})
}

// applyBalance adds delta to the account balance inside tx.
func applyBalance(ctx context.Context, tx *sql.Tx, accountID, delta int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + ? WHERE id = ?`, delta, accountID)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check balance update: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}
	return nil
}

// ListOperations returns every operation of the account, newest first, with
// category names resolved.
func (s *SQLiteStorage) ListOperations(ctx context.Context, accountID int64) ([]model.Operation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.account_id, o.kind, o.amount, o.category_id, c.name, o.occurred_at, o.note
		FROM operations o
		LEFT JOIN categories c ON c.id = o.category_id
		WHERE o.account_id = ?
		ORDER BY o.occurred_at DESC, o.id DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var operations []model.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		operations = append(operations, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}

	return operations, nil
}

func scanOperation(rows *sql.Rows) (model.Operation, error) {
	var (
		op           model.Operation
		categoryID   sql.NullInt64
		categoryName sql.NullString
		occurredAt   string
		note         sql.NullString
	)
	if err := rows.Scan(&op.ID, &op.AccountID, &op.Kind, &op.Amount,
		&categoryID, &categoryName, &occurredAt, &note); err != nil {
		return op, fmt.Errorf("failed to scan operation: %w", err)
	}

	date, err := time.Parse(model.TimestampLayout, occurredAt)
	if err != nil {
		return op, fmt.Errorf("%w: operation %d has timestamp %q", ErrDatabaseCorrupted, op.ID, occurredAt)
	}
	op.Date = date
	op.Note = note.String

	op.CategoryName = model.UncategorizedLabel
	if categoryID.Valid {
		id := categoryID.Int64
		op.CategoryID = &id
		if categoryName.Valid {
			op.CategoryName = categoryName.String
		}
	}
	return op, nil
}

// GetBalance returns the account's balance in minor units.
func (s *SQLiteStorage) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query balance: %w", err)
	}
	return balance, nil
}
