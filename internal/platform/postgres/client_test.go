package postgres_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/postgres"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "orders_number_key"}
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, postgres.IsUniqueViolation(unique))
	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("inserting order: %w", unique)))
	assert.False(t, postgres.IsUniqueViolation(fk))
	assert.False(t, postgres.IsUniqueViolation(errors.New("23505")))
	assert.False(t, postgres.IsUniqueViolation(nil))
}

func TestDBTX_CoversPoolAndTx(t *testing.T) {
	// Repositories batch inserts through DBTX; both connection kinds must support it.
	var conns []postgres.DBTX
	conns = append(conns, (*pgxpool.Pool)(nil), pgx.Tx(nil))
	assert.Len(t, conns, 2)
}
