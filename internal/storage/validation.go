// Package storage provides the data persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/model"
)

// Validation and lookup errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrInvalidID         = errors.New("identifier must be positive")
	ErrInvalidKind       = errors.New("invalid kind")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrNotFound          = common.ErrNotFound
	ErrDatabaseCorrupted = common.ErrDatabaseCorrupted
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidID, paramName, id)
	}
	return nil
}

func validateKind(kind model.Kind) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return nil
}

// validateOperation checks an operation input and returns its amount in minor units.
func validateOperation(input model.OperationInput) (int64, error) {
	if err := validateID(input.AccountID, "accountID"); err != nil {
		return 0, err
	}
	if err := validateKind(input.Kind); err != nil {
		return 0, err
	}
	if input.Date.IsZero() {
		return 0, fmt.Errorf("%w: missing date", ErrInvalidOperation)
	}
	if input.CategoryID != nil {
		if err := validateID(*input.CategoryID, "categoryID"); err != nil {
			return 0, err
		}
	}
	minor, err := model.ToMinorUnits(input.Amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return minor, nil
}
