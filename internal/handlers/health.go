package handlers

import (
	"github.com/bbraka/wallet-pay-sub000/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler reports service liveness and dependency health.
type HealthHandler struct {
	db    *gorm.DB
	cache *cache.BalanceCache
}

func NewHealthHandler(db *gorm.DB, c *cache.BalanceCache) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.Map{"status": "ok"}

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Context()) != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
	}
	if err := h.cache.HealthCheck(c.Context()); err != nil {
		status["status"] = "degraded"
		status["cache"] = "unreachable"
	}

	code := fiber.StatusOK
	if status["status"] != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(status)
}
