package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"
	"github.com/bbraka/wallet-pay-sub000/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Type    models.TransactionType
	Status  models.TransactionStatus
	OrderID *uint
	From    *time.Time
	To      *time.Time
}

// TransactionRepository provides access to the ledger. The ledger is
// append-mostly: Create is the only write, invoked by the ledger writer
// inside the same transaction as the balance update.
type TransactionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	FindActiveByOrder(ctx context.Context, tx *gorm.DB, orderID, userID uint, txType models.TransactionType) (*models.Transaction, error)
	ListByOrder(ctx context.Context, orderID uint) ([]models.Transaction, error)
	ListByUser(ctx context.Context, userID uint, filter TransactionFilter, limit, offset int) ([]models.Transaction, int64, error)
	SumActiveByUser(ctx context.Context, userID uint) (decimal.Decimal, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error {
	if err := tx.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("transaction", id)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

// FindActiveByOrder looks up an existing ACTIVE entry for the given order,
// user, and direction. The ledger writer uses it to treat retried settlement
// calls as no-ops instead of duplicate writes.
func (r *transactionRepository) FindActiveByOrder(ctx context.Context, tx *gorm.DB, orderID, userID uint, txType models.TransactionType) (*models.Transaction, error) {
	var txn models.Transaction
	err := tx.WithContext(ctx).
		Where("order_id = ? AND user_id = ? AND type = ? AND status = ?",
			orderID, userID, txType, models.TransactionStatusActive).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order transaction: %w", err)
	}
	return &txn, nil
}

func (r *transactionRepository) ListByOrder(ctx context.Context, orderID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list order transactions: %w", err)
	}
	return txns, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uint, filter TransactionFilter, limit, offset int) ([]models.Transaction, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ?", userID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txns []models.Transaction
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txns).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, total, nil
}

// SumActiveByUser recomputes the balance from the ledger. Used by the
// reconciliation audit; the cached balance column must always equal it.
func (r *transactionRepository) SumActiveByUser(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND status = ?", userID, models.TransactionStatusActive).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}
