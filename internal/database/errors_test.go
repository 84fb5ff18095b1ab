package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestViolationClassification(t *testing.T) {
	unique := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "orders_user_id_fkey"}
	check := &pgconn.PgError{Code: "23514", ConstraintName: "products_price_check"}

	name, ok := UniqueViolation(unique)
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", name)

	name, ok = ForeignKeyViolation(fk)
	assert.True(t, ok)
	assert.Equal(t, "orders_user_id_fkey", name)

	name, ok = CheckViolation(check)
	assert.True(t, ok)
	assert.Equal(t, "products_price_check", name)

	_, ok = UniqueViolation(fk)
	assert.False(t, ok)
	_, ok = ForeignKeyViolation(errors.New("boom"))
	assert.False(t, ok)
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("get order: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("timeout")))
}

func TestOutOfRange(t *testing.T) {
	overflow := fmt.Errorf("insert order: %w", &pgconn.PgError{Code: "22003", Message: "numeric field overflow"})

	assert.True(t, OutOfRange(overflow))
	assert.False(t, OutOfRange(&pgconn.PgError{Code: "23514"}))
	assert.False(t, OutOfRange(errors.New("boom")))
}
