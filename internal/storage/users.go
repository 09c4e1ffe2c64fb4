package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// LocalUsername names the single implicit user of the ledger.
const LocalUsername = "local"

// EnsureUser returns the local user's ID, creating the user on first call.
func (s *SQLiteStorage) EnsureUser(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username) VALUES (?)`, LocalUsername)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("created local user")
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ?`, LocalUsername).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to query user: %w", err)
	}
	return id, nil
}

// EnsureAccount returns the user's account ID, creating a zero-balance account
// if the user has none.
func (s *SQLiteStorage) EnsureAccount(ctx context.Context, userID int64) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return 0, err
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM accounts WHERE user_id = ? ORDER BY id LIMIT 1`, userID).Scan(&id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to query account: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (user_id, balance) VALUES (?, 0)`, userID)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get account ID: %w", err)
		}
		slog.Info("created account", "id", id, "user_id", userID)
		return nil
	})
	return id, err
}
