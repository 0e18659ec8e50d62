// Package ledger implements the ledger writer. Every balance mutation in the
// system goes through ApplyMovement: one transaction row and one balance
// update, both inside a single database transaction, serialized per user by
// a row lock on the balance row.
package ledger

import (
	"context"
	"fmt"
	"time"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"
	"github.com/bbraka/wallet-pay-sub000/internal/models"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultLockTimeout bounds the wait on a contended balance row. Expiry
// surfaces as LockTimeout instead of an indefinite block.
const DefaultLockTimeout = 3 * time.Second

// Config holds ledger writer settings.
type Config struct {
	LockTimeout time.Duration
}

type service struct {
	users        repositories.UserRepository
	transactions repositories.TransactionRepository
	txr          repositories.TxRunner
	cache        BalanceCache
	metrics      MetricsCollector
	config       Config
}

// NewService creates the ledger writer.
func NewService(
	users repositories.UserRepository,
	transactions repositories.TransactionRepository,
	txr repositories.TxRunner,
	cache BalanceCache,
	metrics MetricsCollector,
	config Config,
) Service {
	if users == nil {
		panic("user repository is required")
	}
	if transactions == nil {
		panic("transaction repository is required")
	}
	if txr == nil {
		panic("transaction runner is required")
	}
	if cache == nil {
		panic("balance cache is required")
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}

	return &service{
		users:        users,
		transactions: transactions,
		txr:          txr,
		cache:        cache,
		metrics:      metrics,
		config:       config,
	}
}

func (s *service) ApplyMovement(ctx context.Context, p MovementParams) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.txr.RunInTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		txn, err = s.ApplyMovementTx(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateBalance(ctx, p.UserID); err != nil {
		// The cache entry will expire on its own; the committed movement wins.
		s.metrics.RecordError("apply_movement", "cache_invalidate")
	}
	return txn, nil
}

// ApplyMovementTx performs the locked read-check-write sequence:
//
//  1. lock the user's balance row (SELECT ... FOR UPDATE, bounded wait)
//  2. for order-linked movements, return any existing ACTIVE entry for the
//     same order+user+direction instead of writing a duplicate
//  3. reject debits that would take the balance below zero
//  4. insert the transaction row and write the new balance
//
// The caller owns the enclosing database transaction; nothing here is
// visible outside it until the caller commits.
func (s *service) ApplyMovementTx(ctx context.Context, tx *gorm.DB, p MovementParams) (*models.Transaction, error) {
	if p.Amount.IsZero() {
		return nil, errs.NewValidation("amount", "must be non-zero")
	}

	if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.config.LockTimeout.Milliseconds())).Error; err != nil {
		return nil, fmt.Errorf("failed to set lock timeout: %w", err)
	}

	user, err := s.users.LockForUpdate(ctx, tx, p.UserID)
	if err != nil {
		s.metrics.RecordError("apply_movement", errs.CodeOf(err))
		return nil, err
	}

	txType := models.TransactionTypeFor(p.Amount)

	if p.OrderID != nil {
		existing, err := s.transactions.FindActiveByOrder(ctx, tx, *p.OrderID, p.UserID, txType)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	newBalance := user.Balance.Add(p.Amount)
	if p.Amount.IsNegative() && newBalance.IsNegative() {
		s.metrics.RecordError("apply_movement", errs.CodeInsufficientBalance)
		return nil, errs.NewInsufficientBalance(p.UserID, p.Amount.Abs(), user.Balance)
	}

	txn := &models.Transaction{
		Reference:   uuid.NewString(),
		UserID:      p.UserID,
		Type:        txType,
		Amount:      p.Amount,
		Status:      models.TransactionStatusActive,
		Description: p.Description,
		OrderID:     p.OrderID,
		CreatedBy:   p.CreatedBy,
	}
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, err
	}
	if err := s.users.UpdateBalance(ctx, tx, user.ID, newBalance); err != nil {
		return nil, err
	}

	s.metrics.RecordMovement(string(txType), p.Amount)
	return txn, nil
}

func (s *service) CreateManualTransaction(ctx context.Context, userID uint, amount decimal.Decimal, description string, creatorID uint) (*models.Transaction, error) {
	if description == "" {
		return nil, errs.NewValidation("description", "is required")
	}
	return s.ApplyMovement(ctx, MovementParams{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		CreatedBy:   &creatorID,
	})
}

func (s *service) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	if balance, ok, err := s.cache.GetBalance(ctx, userID); err == nil && ok {
		return balance, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.cache.SetBalance(ctx, userID, user.Balance); err != nil {
		s.metrics.RecordError("get_balance", "cache_set")
	}
	return user.Balance, nil
}

func (s *service) ListTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter, limit, offset int) ([]models.Transaction, int64, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.transactions.ListByUser(ctx, userID, filter, limit, offset)
}

func (s *service) Reconcile(ctx context.Context, userID uint) (*ReconcileReport, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.transactions.SumActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	drift := user.Balance.Sub(sum)
	return &ReconcileReport{
		UserID:     userID,
		Balance:    user.Balance,
		LedgerSum:  sum,
		Drift:      drift,
		Consistent: drift.IsZero(),
	}, nil
}
