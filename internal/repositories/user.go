package repositories

import (
	"context"
	"errors"
	"fmt"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"
	"github.com/bbraka/wallet-pay-sub000/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgreSQL error codes surfaced while waiting on a row lock: lock_timeout
// expiry and deadlock detection. Both are transient contention and map to
// LockTimeout so callers retry instead of failing hard.
const (
	pgLockNotAvailable = "55P03"
	pgDeadlockDetected = "40P01"
)

// UserRepository provides access to user rows. LockForUpdate and
// UpdateBalance take the caller's transaction handle: balance reads that
// feed dependent writes must happen under the row lock, inside the same
// transaction as the ledger insert.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	LockForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	UpdateBalance(ctx context.Context, tx *gorm.DB, id uint, balance decimal.Decimal) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// LockForUpdate reads the user row under SELECT ... FOR UPDATE. Concurrent
// movements against the same user serialize here; different users proceed
// in parallel.
func (r *userRepository) LockForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("user", id)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgLockNotAvailable || pgErr.Code == pgDeadlockDetected) {
			return nil, errs.ErrLockTimeout
		}
		return nil, fmt.Errorf("failed to lock user row: %w", err)
	}
	return &user, nil
}

func (r *userRepository) UpdateBalance(ctx context.Context, tx *gorm.DB, id uint, balance decimal.Decimal) error {
	result := tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("balance", balance)
	if result.Error != nil {
		return fmt.Errorf("failed to update balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFound("user", id)
	}
	return nil
}
