package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderType identifies the kind of money movement an order intends.
type OrderType string

const (
	OrderTypeInternalTransfer OrderType = "INTERNAL_TRANSFER"
	OrderTypeUserTopUp        OrderType = "USER_TOP_UP"
	OrderTypeAdminTopUp       OrderType = "ADMIN_TOP_UP"
	OrderTypeUserWithdrawal   OrderType = "USER_WITHDRAWAL"
	OrderTypeAdminWithdrawal  OrderType = "ADMIN_WITHDRAWAL"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeInternalTransfer, OrderTypeUserTopUp, OrderTypeAdminTopUp,
		OrderTypeUserWithdrawal, OrderTypeAdminWithdrawal:
		return true
	}
	return false
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "PENDING_PAYMENT"
	OrderStatusPendingApproval OrderStatus = "PENDING_APPROVAL"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRefunded        OrderStatus = "REFUNDED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Order is a money-movement intent. Its status is mutated only by the order
// service; settled movements are materialized as Transaction rows that
// reference the order.
type Order struct {
	gorm.Model
	Type              OrderType       `gorm:"not null;index" json:"type"`
	Status            OrderStatus     `gorm:"not null;index" json:"status"`
	StatusReason      string          `gorm:"default:''" json:"status_reason,omitempty"`
	Amount            decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Title             string          `gorm:"not null" json:"title"`
	Description       string          `json:"description,omitempty"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	ReceiverID        *uint           `gorm:"index" json:"receiver_id,omitempty"`
	ProviderID        *uint           `json:"provider_id,omitempty"`
	ProviderReference string          `json:"provider_reference,omitempty"`
	CreatedBy         *uint           `json:"created_by,omitempty"`
}
