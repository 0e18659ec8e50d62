package handlers

import (
	"strconv"
	"time"

	"github.com/bbraka/wallet-pay-sub000/internal/models"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"
	"github.com/bbraka/wallet-pay-sub000/internal/services/ledger"
	"github.com/bbraka/wallet-pay-sub000/internal/utils/pagination"
	"github.com/bbraka/wallet-pay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler exposes balance and transaction history endpoints.
type WalletHandler struct {
	ledger ledger.Service
}

func NewWalletHandler(l ledger.Service) *WalletHandler {
	return &WalletHandler{ledger: l}
}

// GetBalance handles GET /api/wallet/balance.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	balance, err := h.ledger.GetBalance(c.Context(), claims.UserID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "balance", fiber.Map{
		"user_id": claims.UserID,
		"balance": balance,
	})
}

// ListTransactions handles GET /api/wallet/transactions with optional
// type/status/order_id/from/to filters.
func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	p := pagination.ParseFromRequest(c)
	filter := repositories.TransactionFilter{
		Type:   models.TransactionType(c.Query("type")),
		Status: models.TransactionStatus(c.Query("status")),
	}
	if raw := c.Query("order_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return response.BadRequest(c, "invalid order_id filter")
		}
		orderID := uint(id)
		filter.OrderID = &orderID
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return response.BadRequest(c, "invalid from filter")
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return response.BadRequest(c, "invalid to filter")
		}
		filter.To = &t
	}

	txns, total, err := h.ledger.ListTransactions(c.Context(), claims.UserID, filter, p.Limit, p.Offset)
	if err != nil {
		return response.DomainError(c, err)
	}
	p.Total = total
	return c.JSON(pagination.Response(p, txns))
}
