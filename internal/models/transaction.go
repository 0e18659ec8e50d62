package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType mirrors the sign of the amount. The sign is the semantic
// truth; the type column exists for querying and must always agree with it.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// TransactionTypeFor returns the type matching the sign of amount.
func TransactionTypeFor(amount decimal.Decimal) TransactionType {
	if amount.IsNegative() {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}

// TransactionStatus marks whether an entry counts toward the balance.
// Cancelled entries are retained for audit but excluded from balance sums.
type TransactionStatus string

const (
	TransactionStatusActive    TransactionStatus = "ACTIVE"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Transaction is an immutable signed ledger entry. Rows are created only by
// the ledger writer, atomically with the balance update; order-linked rows
// are never deleted. Corrections are compensating entries, not edits.
type Transaction struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	Reference   string            `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	UserID      uint              `gorm:"not null;index" json:"user_id"`
	Type        TransactionType   `gorm:"not null" json:"type"`
	Amount      decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status      TransactionStatus `gorm:"not null;index;default:'ACTIVE'" json:"status"`
	Description string            `json:"description,omitempty"`
	OrderID     *uint             `gorm:"index" json:"order_id,omitempty"`
	CreatedBy   *uint             `json:"created_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
