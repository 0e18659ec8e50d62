package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMatchesByCode(t *testing.T) {
	err := NewInsufficientBalance(1, decimal.NewFromInt(50), decimal.NewFromInt(10))

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NotErrorIs(t, err, ErrValidation)

	wrapped := fmt.Errorf("applying movement: %w", err)
	assert.ErrorIs(t, wrapped, ErrInsufficientBalance)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(NewValidation("amount", "must be positive")))
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("wrap: %w", NewNotFound("order", 7))))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestInsufficientBalanceDetails(t *testing.T) {
	err := NewInsufficientBalance(1, decimal.NewFromInt(50), decimal.NewFromFloat(10.5))

	assert.Equal(t, "50.00", err.Details["attempted"])
	assert.Equal(t, "10.50", err.Details["balance"])
	assert.Contains(t, err.Error(), "INSUFFICIENT_BALANCE")
}
