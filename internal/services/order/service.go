// Package order implements the order state machine. It validates
// money-movement intents, drives their lifecycle, and delegates every
// balance change to the ledger writer inside the same database transaction
// as the order write, so a failed settlement leaves no partial state.
package order

import (
	"context"
	"fmt"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"
	"github.com/bbraka/wallet-pay-sub000/internal/models"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"
	"github.com/bbraka/wallet-pay-sub000/internal/services/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateOrderParams carries the caller's intent. UserID is the order owner:
// the sender for transfers and withdrawals, the credited account for top-ups.
type CreateOrderParams struct {
	Type              models.OrderType
	UserID            uint
	Amount            decimal.Decimal
	Title             string
	Description       string
	ReceiverID        *uint
	ProviderID        *uint
	ProviderReference string
}

// Service is the order state machine.
type Service interface {
	CreateOrder(ctx context.Context, actorID uint, p CreateOrderParams) (*models.Order, error)
	ConfirmOrder(ctx context.Context, orderID, actorID uint) (*models.Order, error)
	RejectOrder(ctx context.Context, orderID, actorID uint, reason string) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, actorID uint) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uint) (*models.Order, error)
	ListOrders(ctx context.Context, userID uint, filter repositories.OrderFilter, limit, offset int) ([]models.Order, int64, error)
}

type service struct {
	orders    repositories.OrderRepository
	users     repositories.UserRepository
	providers repositories.ProviderRepository
	ledger    ledger.Service
	txr       repositories.TxRunner
	cache     ledger.BalanceCache
}

// NewService creates the order state machine.
func NewService(
	orders repositories.OrderRepository,
	users repositories.UserRepository,
	providers repositories.ProviderRepository,
	ledgerSvc ledger.Service,
	txr repositories.TxRunner,
	cache ledger.BalanceCache,
) Service {
	if orders == nil {
		panic("order repository is required")
	}
	if users == nil {
		panic("user repository is required")
	}
	if providers == nil {
		panic("provider repository is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if txr == nil {
		panic("transaction runner is required")
	}
	if cache == nil {
		panic("balance cache is required")
	}
	return &service{
		orders:    orders,
		users:     users,
		providers: providers,
		ledger:    ledgerSvc,
		txr:       txr,
		cache:     cache,
	}
}

func (s *service) CreateOrder(ctx context.Context, actorID uint, p CreateOrderParams) (*models.Order, error) {
	pol, ok := policyFor(p.Type)
	if !ok {
		return nil, errs.NewValidation("type", "unknown order type")
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if isAdminOrderType(p.Type) && !actor.IsAdmin() {
		return nil, errs.NewValidation("type", "requires an admin actor")
	}
	if !actor.IsAdmin() && p.UserID != actorID {
		return nil, errs.NewValidation("user_id", "only an admin can create orders for another user")
	}

	if err := s.validateCreate(ctx, pol, p); err != nil {
		return nil, err
	}

	order := &models.Order{
		Type:              p.Type,
		Status:            pol.InitialStatus(),
		Amount:            p.Amount,
		Title:             p.Title,
		Description:       p.Description,
		UserID:            p.UserID,
		ReceiverID:        p.ReceiverID,
		ProviderID:        p.ProviderID,
		ProviderReference: p.ProviderReference,
		CreatedBy:         &actorID,
	}

	var applied []ledger.MovementParams
	err = s.txr.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return err
		}
		applied = pol.CreationMovements(order, actorID)
		return s.applyMovements(ctx, tx, applied)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBalances(ctx, applied)
	return order, nil
}

// ConfirmOrder transitions a pending order to COMPLETED, applying whatever
// movements the order's policy owes at confirmation. The order row is locked
// for the duration so two concurrent confirmations serialize and the loser
// observes the terminal status.
func (s *service) ConfirmOrder(ctx context.Context, orderID, actorID uint) (*models.Order, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	var applied []ledger.MovementParams
	err = s.txr.RunInTransaction(ctx, func(tx *gorm.DB) error {
		o, err := s.orders.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !confirmable(o.Status) {
			return errs.NewInvalidTransition(o.ID, string(o.Status), "confirm")
		}

		pol, ok := policyFor(o.Type)
		if !ok {
			return fmt.Errorf("order %d has unknown type %q", o.ID, o.Type)
		}
		if err := pol.AllowConfirm(o, actor); err != nil {
			return err
		}

		applied = pol.ConfirmationMovements(o, actorID)
		if err := s.applyMovements(ctx, tx, applied); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, tx, o.ID, models.OrderStatusCompleted, ""); err != nil {
			return err
		}
		o.Status = models.OrderStatusCompleted
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBalances(ctx, applied)
	return order, nil
}

// RejectOrder transitions a pending order to CANCELLED. If the policy placed
// a hold at creation the compensating credit is issued here; the ledger
// writer's duplicate check makes a retried rejection settle exactly once.
func (s *service) RejectOrder(ctx context.Context, orderID, actorID uint, reason string) (*models.Order, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, errs.NewValidation("actor_id", "only an admin can reject an order")
	}

	var order *models.Order
	var applied []ledger.MovementParams
	err = s.txr.RunInTransaction(ctx, func(tx *gorm.DB) error {
		o, err := s.orders.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !confirmable(o.Status) {
			return errs.NewInvalidTransition(o.ID, string(o.Status), "reject")
		}

		pol, ok := policyFor(o.Type)
		if !ok {
			return fmt.Errorf("order %d has unknown type %q", o.ID, o.Type)
		}

		applied = pol.RejectionMovements(o, actorID)
		if err := s.applyMovements(ctx, tx, applied); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(ctx, tx, o.ID, models.OrderStatusCancelled, reason); err != nil {
			return err
		}
		o.Status = models.OrderStatusCancelled
		o.StatusReason = reason
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBalances(ctx, applied)
	return order, nil
}

// CancelOrder lets the order owner withdraw an intent before settlement. It
// is legal only for order types that move no funds at creation; releasing a
// withdrawal hold requires an admin rejection.
func (s *service) CancelOrder(ctx context.Context, orderID, actorID uint) (*models.Order, error) {
	var order *models.Order
	err := s.txr.RunInTransaction(ctx, func(tx *gorm.DB) error {
		o, err := s.orders.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != actorID {
			return errs.NewValidation("actor_id", "only the order owner can cancel")
		}
		if !confirmable(o.Status) {
			return errs.NewInvalidTransition(o.ID, string(o.Status), "cancel")
		}

		pol, ok := policyFor(o.Type)
		if !ok {
			return fmt.Errorf("order %d has unknown type %q", o.ID, o.Type)
		}
		if pol.HoldsFundsAtCreation() {
			return errs.NewInvalidTransition(o.ID, string(o.Status), "cancel")
		}

		if err := s.orders.UpdateStatus(ctx, tx, o.ID, models.OrderStatusCancelled, "cancelled by owner"); err != nil {
			return err
		}
		o.Status = models.OrderStatusCancelled
		o.StatusReason = "cancelled by owner"
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

func (s *service) ListOrders(ctx context.Context, userID uint, filter repositories.OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	return s.orders.ListByUser(ctx, userID, filter, limit, offset)
}

// applyMovements feeds the policy's movements to the ledger writer in order.
// Pairs arrive debit first; everything runs in the caller's transaction.
func (s *service) applyMovements(ctx context.Context, tx *gorm.DB, movements []ledger.MovementParams) error {
	for _, mv := range movements {
		if _, err := s.ledger.ApplyMovementTx(ctx, tx, mv); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) invalidateBalances(ctx context.Context, movements []ledger.MovementParams) {
	if len(movements) == 0 {
		return
	}
	ids := make([]uint, 0, len(movements))
	for _, mv := range movements {
		ids = append(ids, mv.UserID)
	}
	// Best effort: entries expire on TTL anyway.
	_ = s.cache.InvalidateBalance(ctx, ids...)
}

func (s *service) validateCreate(ctx context.Context, pol settlementPolicy, p CreateOrderParams) error {
	if p.Title == "" {
		return errs.NewValidation("title", "is required")
	}
	if !p.Amount.IsPositive() {
		return errs.NewValidation("amount", "must be positive")
	}
	if p.Amount.GreaterThan(pol.Ceiling()) {
		return errs.NewValidation("amount", fmt.Sprintf("exceeds ceiling of %s", pol.Ceiling().StringFixed(2)))
	}

	if _, err := s.users.GetByID(ctx, p.UserID); err != nil {
		return err
	}

	if pol.RequiresReceiver() {
		if p.ReceiverID == nil {
			return errs.NewValidation("receiver_id", "is required for transfers")
		}
		if *p.ReceiverID == p.UserID {
			return errs.NewValidation("receiver_id", "cannot transfer to self")
		}
		if _, err := s.users.GetByID(ctx, *p.ReceiverID); err != nil {
			return err
		}
	} else if p.ReceiverID != nil {
		return errs.NewValidation("receiver_id", "not allowed for this order type")
	}

	if pol.RequiresProvider() {
		if p.ProviderID == nil {
			return errs.NewValidation("provider_id", "is required for top-ups")
		}
		provider, err := s.providers.GetByID(ctx, *p.ProviderID)
		if err != nil {
			return err
		}
		if !provider.Active {
			return errs.NewValidation("provider_id", "provider is not active")
		}
		if provider.RequiresReference && p.ProviderReference == "" {
			return errs.NewValidation("provider_reference", fmt.Sprintf("required by provider %s", provider.Name))
		}
	} else if p.ProviderID != nil {
		return errs.NewValidation("provider_id", "not allowed for this order type")
	}

	return nil
}

func confirmable(s models.OrderStatus) bool {
	return s == models.OrderStatusPendingPayment || s == models.OrderStatusPendingApproval
}

func isAdminOrderType(t models.OrderType) bool {
	return t == models.OrderTypeAdminTopUp || t == models.OrderTypeAdminWithdrawal
}
