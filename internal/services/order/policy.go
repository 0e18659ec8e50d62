package order

import (
	"fmt"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"
	"github.com/bbraka/wallet-pay-sub000/internal/models"
	"github.com/bbraka/wallet-pay-sub000/internal/services/ledger"

	"github.com/shopspring/decimal"
)

// Amount ceilings per order family. These are the single source for maximum
// order amounts; nothing else in the codebase re-declares them.
var (
	topUpCeiling    = decimal.NewFromInt(10000)
	transferCeiling = decimal.NewFromInt(5000)
)

// settlementPolicy encodes, for one order type, when money moves relative to
// the order lifecycle and which movements to produce. The state machine is
// the only caller; it applies whatever movements the policy returns inside
// the same database transaction as the status change.
type settlementPolicy interface {
	Type() models.OrderType
	Label() string
	InitialStatus() models.OrderStatus
	Ceiling() decimal.Decimal

	// HoldsFundsAtCreation reports whether creation already moved funds.
	// Orders that hold funds cannot be cancelled by their owner; releasing
	// the hold requires a rejection.
	HoldsFundsAtCreation() bool

	RequiresReceiver() bool
	RequiresProvider() bool

	// AllowConfirm reports whether the actor may confirm this order.
	AllowConfirm(o *models.Order, actor *models.User) error

	// Movements at each lifecycle point. Pairs are returned debit first so a
	// one-sided movement can never be the committed prefix.
	CreationMovements(o *models.Order, actorID uint) []ledger.MovementParams
	ConfirmationMovements(o *models.Order, actorID uint) []ledger.MovementParams
	RejectionMovements(o *models.Order, actorID uint) []ledger.MovementParams
}

var policies = map[models.OrderType]settlementPolicy{
	models.OrderTypeInternalTransfer: transferPolicy{},
	models.OrderTypeUserTopUp:        userTopUpPolicy{},
	models.OrderTypeAdminTopUp:       adminTopUpPolicy{},
	models.OrderTypeUserWithdrawal:   withdrawalPolicy{orderType: models.OrderTypeUserWithdrawal, label: "Withdrawal"},
	models.OrderTypeAdminWithdrawal:  withdrawalPolicy{orderType: models.OrderTypeAdminWithdrawal, label: "Admin withdrawal"},
}

// policyFor is the single dispatch point from order type to policy.
func policyFor(t models.OrderType) (settlementPolicy, bool) {
	p, ok := policies[t]
	return p, ok
}

func requireAdmin(actor *models.User, operation string) error {
	if !actor.IsAdmin() {
		return errs.NewValidation("actor_id", fmt.Sprintf("only an admin can %s this order", operation))
	}
	return nil
}

// transferPolicy: money moves only at confirmation, when the receiver
// accepts. Creation and rejection never touch balances.
type transferPolicy struct{}

func (transferPolicy) Type() models.OrderType        { return models.OrderTypeInternalTransfer }
func (transferPolicy) Label() string                 { return "Internal transfer" }
func (transferPolicy) InitialStatus() models.OrderStatus { return models.OrderStatusPendingPayment }
func (transferPolicy) Ceiling() decimal.Decimal      { return transferCeiling }
func (transferPolicy) HoldsFundsAtCreation() bool    { return false }
func (transferPolicy) RequiresReceiver() bool        { return true }
func (transferPolicy) RequiresProvider() bool        { return false }

func (transferPolicy) AllowConfirm(o *models.Order, actor *models.User) error {
	if o.ReceiverID == nil || actor.ID != *o.ReceiverID {
		return errs.NewValidation("actor_id", "only the receiver can confirm a transfer")
	}
	return nil
}

func (transferPolicy) CreationMovements(*models.Order, uint) []ledger.MovementParams { return nil }

func (transferPolicy) ConfirmationMovements(o *models.Order, actorID uint) []ledger.MovementParams {
	return []ledger.MovementParams{
		{
			UserID:      o.UserID,
			Amount:      o.Amount.Neg(),
			Description: fmt.Sprintf("Transfer to user %d: %s", *o.ReceiverID, o.Title),
			OrderID:     &o.ID,
			CreatedBy:   &actorID,
		},
		{
			UserID:      *o.ReceiverID,
			Amount:      o.Amount,
			Description: fmt.Sprintf("Transfer from user %d: %s", o.UserID, o.Title),
			OrderID:     &o.ID,
			CreatedBy:   &actorID,
		},
	}
}

func (transferPolicy) RejectionMovements(*models.Order, uint) []ledger.MovementParams { return nil }

// userTopUpPolicy: the credit lands when the top-up is confirmed settled.
// Nothing moves at creation, so rejection is a pure status flip.
type userTopUpPolicy struct{}

func (userTopUpPolicy) Type() models.OrderType        { return models.OrderTypeUserTopUp }
func (userTopUpPolicy) Label() string                 { return "Top-up" }
func (userTopUpPolicy) InitialStatus() models.OrderStatus { return models.OrderStatusPendingPayment }
func (userTopUpPolicy) Ceiling() decimal.Decimal      { return topUpCeiling }
func (userTopUpPolicy) HoldsFundsAtCreation() bool    { return false }
func (userTopUpPolicy) RequiresReceiver() bool        { return false }
func (userTopUpPolicy) RequiresProvider() bool        { return true }

func (userTopUpPolicy) AllowConfirm(o *models.Order, actor *models.User) error {
	return requireAdmin(actor, "confirm")
}

func (userTopUpPolicy) CreationMovements(*models.Order, uint) []ledger.MovementParams { return nil }

func (userTopUpPolicy) ConfirmationMovements(o *models.Order, actorID uint) []ledger.MovementParams {
	return []ledger.MovementParams{
		{
			UserID:      o.UserID,
			Amount:      o.Amount,
			Description: fmt.Sprintf("Top-up: %s", o.Title),
			OrderID:     &o.ID,
			CreatedBy:   &actorID,
		},
	}
}

func (userTopUpPolicy) RejectionMovements(*models.Order, uint) []ledger.MovementParams { return nil }

// adminTopUpPolicy: privileged and immediate. The order is born COMPLETED
// with the credit applied in the same transaction; there is no pending state
// and nothing to confirm or reject.
type adminTopUpPolicy struct{}

func (adminTopUpPolicy) Type() models.OrderType        { return models.OrderTypeAdminTopUp }
func (adminTopUpPolicy) Label() string                 { return "Admin top-up" }
func (adminTopUpPolicy) InitialStatus() models.OrderStatus { return models.OrderStatusCompleted }
func (adminTopUpPolicy) Ceiling() decimal.Decimal      { return topUpCeiling }
func (adminTopUpPolicy) HoldsFundsAtCreation() bool    { return true }
func (adminTopUpPolicy) RequiresReceiver() bool        { return false }
func (adminTopUpPolicy) RequiresProvider() bool        { return false }

func (adminTopUpPolicy) AllowConfirm(o *models.Order, actor *models.User) error {
	return errs.NewInvalidTransition(o.ID, string(o.Status), "confirm")
}

func (adminTopUpPolicy) CreationMovements(o *models.Order, actorID uint) []ledger.MovementParams {
	return []ledger.MovementParams{
		{
			UserID:      o.UserID,
			Amount:      o.Amount,
			Description: fmt.Sprintf("Admin top-up: %s", o.Title),
			OrderID:     &o.ID,
			CreatedBy:   &actorID,
		},
	}
}

func (adminTopUpPolicy) ConfirmationMovements(*models.Order, uint) []ledger.MovementParams { return nil }
func (adminTopUpPolicy) RejectionMovements(*models.Order, uint) []ledger.MovementParams    { return nil }

// withdrawalPolicy: funds are held at creation so a pending withdrawal can
// never be double-spent. Approval is balance-neutral; rejection issues the
// compensating credit that releases the hold.
type withdrawalPolicy struct {
	orderType models.OrderType
	label     string
}

func (p withdrawalPolicy) Type() models.OrderType        { return p.orderType }
func (p withdrawalPolicy) Label() string                 { return p.label }
func (withdrawalPolicy) InitialStatus() models.OrderStatus { return models.OrderStatusPendingApproval }
func (withdrawalPolicy) Ceiling() decimal.Decimal        { return transferCeiling }
func (withdrawalPolicy) HoldsFundsAtCreation() bool      { return true }
func (withdrawalPolicy) RequiresReceiver() bool          { return false }
func (withdrawalPolicy) RequiresProvider() bool          { return false }

func (withdrawalPolicy) AllowConfirm(o *models.Order, actor *models.User) error {
	return requireAdmin(actor, "confirm")
}

func (p withdrawalPolicy) CreationMovements(o *models.Order, actorID uint) []ledger.MovementParams {
	return []ledger.MovementParams{
		{
			UserID:      o.UserID,
			Amount:      o.Amount.Neg(),
			Description: fmt.Sprintf("%s hold: %s", p.label, o.Title),
			OrderID:     &o.ID,
			CreatedBy:   &actorID,
		},
	}
}

// ConfirmationMovements is empty: the debit was already placed at creation,
// approval only flips the status.
func (withdrawalPolicy) ConfirmationMovements(*models.Order, uint) []ledger.MovementParams {
	return nil
}

func (p withdrawalPolicy) RejectionMovements(o *models.Order, actorID uint) []ledger.MovementParams {
	return []ledger.MovementParams{
		{
			UserID:      o.UserID,
			Amount:      o.Amount,
			Description: fmt.Sprintf("%s hold refund: %s", p.label, o.Title),
			OrderID:     &o.ID,
			CreatedBy:   &actorID,
		},
	}
}
