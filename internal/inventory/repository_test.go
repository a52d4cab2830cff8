package inventory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapConstraintError(t *testing.T) {
	uniqueViolation := &pgconn.PgError{Code: "23505", ConstraintName: "inventory_items_code_key"}
	require.ErrorIs(t, mapConstraintError(uniqueViolation), ErrDuplicateCode)

	wrapped := fmt.Errorf("create item: %w", uniqueViolation)
	require.ErrorIs(t, mapConstraintError(wrapped), ErrDuplicateCode)

	foreignKey := &pgconn.PgError{Code: "23503"}
	require.NotErrorIs(t, mapConstraintError(foreignKey), ErrDuplicateCode)

	plain := errors.New("connection reset")
	require.Equal(t, plain, mapConstraintError(plain))
}
