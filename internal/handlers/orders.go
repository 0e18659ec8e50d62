// Package handlers exposes the core services over HTTP. Handlers only parse
// requests, thread the authenticated actor into the services, and render
// responses; all business rules live below.
package handlers

import (
	"strconv"

	"github.com/bbraka/wallet-pay-sub000/internal/models"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"
	"github.com/bbraka/wallet-pay-sub000/internal/services/order"
	"github.com/bbraka/wallet-pay-sub000/internal/utils/pagination"
	"github.com/bbraka/wallet-pay-sub000/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// OrderHandler exposes order lifecycle endpoints for regular users.
type OrderHandler struct {
	service order.Service
}

func NewOrderHandler(s order.Service) *OrderHandler {
	return &OrderHandler{service: s}
}

func claimsFrom(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

type createOrderRequest struct {
	Type              models.OrderType `json:"type"`
	Amount            decimal.Decimal  `json:"amount"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	ReceiverID        *uint            `json:"receiver_id"`
	ProviderID        *uint            `json:"provider_id"`
	ProviderReference string           `json:"provider_reference"`
}

// CreateOrder handles POST /api/orders. The order owner is always the
// authenticated user; admin order types go through the admin routes.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	switch req.Type {
	case models.OrderTypeInternalTransfer, models.OrderTypeUserTopUp, models.OrderTypeUserWithdrawal:
	default:
		return response.BadRequest(c, "order type not available")
	}

	o, err := h.service.CreateOrder(c.Context(), claims.UserID, order.CreateOrderParams{
		Type:              req.Type,
		UserID:            claims.UserID,
		Amount:            req.Amount,
		Title:             req.Title,
		Description:       req.Description,
		ReceiverID:        req.ReceiverID,
		ProviderID:        req.ProviderID,
		ProviderReference: req.ProviderReference,
	})
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "order created", o)
}

// GetOrder handles GET /api/orders/:id.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid order id")
	}

	o, err := h.service.GetOrder(c.Context(), id)
	if err != nil {
		return response.DomainError(c, err)
	}
	if !claims.IsAdmin() && o.UserID != claims.UserID &&
		(o.ReceiverID == nil || *o.ReceiverID != claims.UserID) {
		return response.Error(c, fiber.StatusForbidden, "not your order")
	}
	return response.Success(c, "order", o)
}

// ListOrders handles GET /api/orders for the authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}

	p := pagination.ParseFromRequest(c)
	filter := repositories.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		Type:   models.OrderType(c.Query("type")),
	}

	orders, total, err := h.service.ListOrders(c.Context(), claims.UserID, filter, p.Limit, p.Offset)
	if err != nil {
		return response.DomainError(c, err)
	}
	p.Total = total
	return c.JSON(pagination.Response(p, orders))
}

// ConfirmOrder handles POST /api/orders/:id/confirm. Used by transfer
// receivers to accept an incoming transfer.
func (h *OrderHandler) ConfirmOrder(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid order id")
	}

	o, err := h.service.ConfirmOrder(c.Context(), id, claims.UserID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "order confirmed", o)
}

// CancelOrder handles POST /api/orders/:id/cancel.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return response.Unauthorized(c, "invalid claims")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "invalid order id")
	}

	o, err := h.service.CancelOrder(c.Context(), id, claims.UserID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "order cancelled", o)
}
