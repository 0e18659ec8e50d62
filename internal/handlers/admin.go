package handlers

import (
	"github.com/bbraka/wallet-pay-sub000/internal/models"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"
	"github.com/bbraka/wallet-pay-sub000/internal/services/ledger"
	"github.com/bbraka/wallet-pay-sub000/internal/services/order"
	"github.com/bbraka/wallet-pay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// AdminHandler exposes the privileged endpoints: admin orders, pending-order
// approval, manual ledger adjustments, and the reconciliation audit.
type AdminHandler struct {
	orders    order.Service
	ledger    ledger.Service
	providers repositories.ProviderRepository
}

func NewAdminHandler(orders order.Service, l ledger.Service, providers repositories.ProviderRepository) *AdminHandler {
	return &AdminHandler{orders: orders, ledger: l, providers: providers}
}

type adminCreateOrderRequest struct {
	Type        models.OrderType `json:"type"`
	UserID      uint             `json:"user_id"`
	Amount      decimal.Decimal  `json:"amount"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
}

// CreateOrder handles POST /api/admin/orders for ADMIN_TOP_UP and
// ADMIN_WITHDRAWAL against a target user.
func (h *AdminHandler) CreateOrder(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	var req adminCreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	switch req.Type {
	case models.OrderTypeAdminTopUp, models.OrderTypeAdminWithdrawal:
	default:
		return response.BadRequest(c, "order type not available on this route")
	}

	o, err := h.orders.CreateOrder(c.Context(), claims.UserID, order.CreateOrderParams{
		Type:        req.Type,
		UserID:      req.UserID,
		Amount:      req.Amount,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "order created", o)
}

// ConfirmOrder handles POST /api/admin/orders/:id/confirm.
func (h *AdminHandler) ConfirmOrder(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid order id")
	}

	o, err := h.orders.ConfirmOrder(c.Context(), id, claims.UserID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "order confirmed", o)
}

// RejectOrder handles POST /api/admin/orders/:id/reject.
func (h *AdminHandler) RejectOrder(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid order id")
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "invalid request body")
	}

	o, err := h.orders.RejectOrder(c.Context(), id, claims.UserID, req.Reason)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "order rejected", o)
}

// CreateManualTransaction handles POST /api/admin/transactions: a signed
// ledger adjustment that bypasses orders.
func (h *AdminHandler) CreateManualTransaction(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	var req struct {
		UserID      uint            `json:"user_id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	txn, err := h.ledger.CreateManualTransaction(c.Context(), req.UserID, req.Amount, req.Description, claims.UserID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "transaction created", txn)
}

// Reconcile handles GET /api/admin/users/:id/reconcile.
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid user id")
	}

	report, err := h.ledger.Reconcile(c.Context(), id)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "reconciliation report", report)
}

// ListProviders handles GET /api/admin/providers.
func (h *AdminHandler) ListProviders(c *fiber.Ctx) error {
	providers, err := h.providers.ListActive(c.Context())
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "providers", providers)
}
