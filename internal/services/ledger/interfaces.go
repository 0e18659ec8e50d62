package ledger

import (
	"context"

	"github.com/bbraka/wallet-pay-sub000/internal/models"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementParams describes one signed balance movement.
type MovementParams struct {
	UserID      uint
	Amount      decimal.Decimal // signed: positive credit, negative debit
	Description string
	OrderID     *uint // nil for manual adjustments
	CreatedBy   *uint // nil when the system itself is the creator
}

// Service is the ledger writer: the only component that inserts transaction
// rows and mutates user balances.
type Service interface {
	// ApplyMovement writes one ledger entry and the matching balance update
	// in its own database transaction.
	ApplyMovement(ctx context.Context, p MovementParams) (*models.Transaction, error)

	// ApplyMovementTx is ApplyMovement inside the caller's transaction. The
	// order service uses it so settlement entries commit or roll back with
	// the order status change.
	ApplyMovementTx(ctx context.Context, tx *gorm.DB, p MovementParams) (*models.Transaction, error)

	// CreateManualTransaction is the admin-only ledger adjustment that
	// bypasses orders.
	CreateManualTransaction(ctx context.Context, userID uint, amount decimal.Decimal, description string, creatorID uint) (*models.Transaction, error)

	GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter, limit, offset int) ([]models.Transaction, int64, error)

	// Reconcile recomputes the balance from ACTIVE ledger entries and
	// reports any drift against the cached balance column.
	Reconcile(ctx context.Context, userID uint) (*ReconcileReport, error)
}

// BalanceCache is the read-through cache in front of the balance column.
type BalanceCache interface {
	GetBalance(ctx context.Context, userID uint) (decimal.Decimal, bool, error)
	SetBalance(ctx context.Context, userID uint, balance decimal.Decimal) error
	InvalidateBalance(ctx context.Context, userIDs ...uint) error
}

// ReconcileReport is the result of a balance audit for one user.
type ReconcileReport struct {
	UserID     uint            `json:"user_id"`
	Balance    decimal.Decimal `json:"balance"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	Drift      decimal.Decimal `json:"drift"`
	Consistent bool            `json:"consistent"`
}
