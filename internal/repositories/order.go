package repositories

import (
	"context"
	"errors"
	"fmt"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"
	"github.com/bbraka/wallet-pay-sub000/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status models.OrderStatus
	Type   models.OrderType
}

// OrderRepository provides access to order rows. Status transitions lock the
// order row first so two concurrent confirmations cannot both observe a
// pending status.
type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	LockForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.OrderStatus, reason string) error
	ListByUser(ctx context.Context, userID uint, filter OrderFilter, limit, offset int) ([]models.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if err := tx.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("order", id)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) LockForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("order", id)
		}
		return nil, fmt.Errorf("failed to lock order row: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.OrderStatus, reason string) error {
	updates := map[string]interface{}{"status": status}
	if reason != "" {
		updates["status_reason"] = reason
	}
	result := tx.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFound("order", id)
	}
	return nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint, filter OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? OR receiver_id = ?", userID, userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}
