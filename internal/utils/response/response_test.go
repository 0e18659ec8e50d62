package response

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", errs.NewValidation("amount", "must be positive"), fiber.StatusBadRequest},
		{"insufficient balance", errs.NewInsufficientBalance(1, decimal.NewFromInt(50), decimal.NewFromInt(10)), fiber.StatusUnprocessableEntity},
		{"invalid transition", errs.NewInvalidTransition(1, "COMPLETED", "confirm"), fiber.StatusConflict},
		{"not found", errs.NewNotFound("order", 7), fiber.StatusNotFound},
		{"lock timeout", errs.ErrLockTimeout, fiber.StatusServiceUnavailable},
		{"non-domain", errors.New("pq: connection reset by peer"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return DomainError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestDomainErrorNeverLeaksStorageDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return DomainError(c, errors.New("pq: relation \"users\" does not exist"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "pq:")
	assert.NotContains(t, string(body), "relation")
}
