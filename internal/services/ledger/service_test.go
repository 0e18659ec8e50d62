package ledger

import (
	"context"
	"testing"
	"time"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeCache is an in-memory BalanceCache. Redis behavior itself is covered
// elsewhere; these tests only care about hit/miss and invalidation.
type fakeCache struct {
	balances    map[uint]decimal.Decimal
	invalidated []uint
}

func newFakeCache() *fakeCache {
	return &fakeCache{balances: make(map[uint]decimal.Decimal)}
}

func (c *fakeCache) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, bool, error) {
	b, ok := c.balances[userID]
	return b, ok, nil
}

func (c *fakeCache) SetBalance(ctx context.Context, userID uint, balance decimal.Decimal) error {
	c.balances[userID] = balance
	return nil
}

func (c *fakeCache) InvalidateBalance(ctx context.Context, userIDs ...uint) error {
	for _, id := range userIDs {
		delete(c.balances, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

type ledgerFixture struct {
	mock  sqlmock.Sqlmock
	cache *fakeCache
	svc   Service
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cache := newFakeCache()
	svc := NewService(
		repositories.NewUserRepository(db),
		repositories.NewTransactionRepository(db),
		repositories.NewTxRunner(db),
		cache,
		NoopMetricsCollector{},
		Config{LockTimeout: 3 * time.Second},
	)
	return &ledgerFixture{mock: mock, cache: cache, svc: svc}
}

func userRows(id uint, balance string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "name", "role", "balance"}).
		AddRow(id, "user@example.com", "User", "user", balance)
}

func emptyTransactionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "reference", "user_id", "type", "amount", "status"})
}

func TestApplyMovement_Credit(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`SET LOCAL lock_timeout = '3000ms'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE .+ FOR UPDATE`).
		WillReturnRows(userRows(1, "100.00"))
	f.mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	f.mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	txn, err := f.svc.ApplyMovement(ctx, MovementParams{
		UserID:      1,
		Amount:      decimal.NewFromInt(50),
		Description: "Top-up: Bank transfer",
	})

	require.NoError(t, err)
	assert.Equal(t, uint(42), txn.ID)
	assert.Equal(t, "CREDIT", string(txn.Type))
	assert.Equal(t, "ACTIVE", string(txn.Status))
	assert.NotEmpty(t, txn.Reference)
	assert.Equal(t, []uint{1}, f.cache.invalidated)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApplyMovement_DebitInsufficientBalance(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`SET LOCAL lock_timeout`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE .+ FOR UPDATE`).
		WillReturnRows(userRows(1, "10.00"))
	f.mock.ExpectRollback()

	_, err := f.svc.ApplyMovement(ctx, MovementParams{
		UserID:      1,
		Amount:      decimal.NewFromInt(-50),
		Description: "Withdrawal hold: Cash out",
	})

	assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
	assert.Empty(t, f.cache.invalidated)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApplyMovement_DebitToExactlyZero(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`SET LOCAL lock_timeout`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE .+ FOR UPDATE`).
		WillReturnRows(userRows(1, "50.00"))
	f.mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))
	f.mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	txn, err := f.svc.ApplyMovement(ctx, MovementParams{
		UserID:      1,
		Amount:      decimal.NewFromInt(-50),
		Description: "Withdrawal hold: Cash out",
	})

	require.NoError(t, err)
	assert.Equal(t, "DEBIT", string(txn.Type))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApplyMovement_ZeroAmountRejected(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.ApplyMovement(ctx, MovementParams{
		UserID:      1,
		Amount:      decimal.Zero,
		Description: "noop",
	})

	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApplyMovement_OrderLinkedIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	orderID := uint(10)

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`SET LOCAL lock_timeout`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE .+ FOR UPDATE`).
		WillReturnRows(userRows(1, "100.00"))
	f.mock.ExpectQuery(`SELECT .+ FROM "transactions" WHERE order_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "user_id", "type", "amount", "status"}).
			AddRow(42, "existing-ref", 1, "CREDIT", "50.00", "ACTIVE"))
	f.mock.ExpectCommit()

	txn, err := f.svc.ApplyMovement(ctx, MovementParams{
		UserID:      1,
		Amount:      decimal.NewFromInt(50),
		Description: "Transfer from user 2",
		OrderID:     &orderID,
	})

	// The existing entry is returned as is; no insert, no balance write.
	require.NoError(t, err)
	assert.Equal(t, uint(42), txn.ID)
	assert.Equal(t, "existing-ref", txn.Reference)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApplyMovement_OrderLinkedFirstSettlement(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	orderID := uint(10)

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`SET LOCAL lock_timeout`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE .+ FOR UPDATE`).
		WillReturnRows(userRows(2, "0.00"))
	f.mock.ExpectQuery(`SELECT .+ FROM "transactions" WHERE order_id =`).
		WillReturnRows(emptyTransactionRows())
	f.mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(44))
	f.mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	txn, err := f.svc.ApplyMovement(ctx, MovementParams{
		UserID:      2,
		Amount:      decimal.NewFromInt(50),
		Description: "Transfer from user 1",
		OrderID:     &orderID,
	})

	require.NoError(t, err)
	assert.Equal(t, uint(44), txn.ID)
	require.NotNil(t, txn.OrderID)
	assert.Equal(t, orderID, *txn.OrderID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestApplyMovement_LockContention(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"lock timeout expired", "55P03"},
		{"deadlock detected", "40P01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			ctx := context.Background()

			f.mock.ExpectBegin()
			f.mock.ExpectExec(`SET LOCAL lock_timeout`).
				WillReturnResult(sqlmock.NewResult(0, 0))
			f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE .+ FOR UPDATE`).
				WillReturnError(&pgconn.PgError{Code: tt.code})
			f.mock.ExpectRollback()

			_, err := f.svc.ApplyMovement(ctx, MovementParams{
				UserID:      1,
				Amount:      decimal.NewFromInt(-50),
				Description: "Withdrawal hold: Cash out",
			})

			// Contention surfaces as the retryable LockTimeout, never as a
			// raw driver error.
			assert.ErrorIs(t, err, errs.ErrLockTimeout)
			assert.Empty(t, f.cache.invalidated)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestApplyMovement_UserNotFound(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`SET LOCAL lock_timeout`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	f.mock.ExpectRollback()

	_, err := f.svc.ApplyMovement(ctx, MovementParams{
		UserID:      999,
		Amount:      decimal.NewFromInt(50),
		Description: "Top-up",
	})

	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateManualTransaction_RequiresDescription(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.CreateManualTransaction(context.Background(), 1, decimal.NewFromInt(10), "", 99)

	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateManualTransaction_Debit(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	f.mock.ExpectBegin()
	f.mock.ExpectExec(`SET LOCAL lock_timeout`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE .+ FOR UPDATE`).
		WillReturnRows(userRows(1, "100.00"))
	f.mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(45))
	f.mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	txn, err := f.svc.CreateManualTransaction(ctx, 1, decimal.NewFromInt(-25), "Chargeback correction", 99)

	require.NoError(t, err)
	assert.Equal(t, "DEBIT", string(txn.Type))
	require.NotNil(t, txn.CreatedBy)
	assert.Equal(t, uint(99), *txn.CreatedBy)
	assert.Nil(t, txn.OrderID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetBalance_CacheHit(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	f.cache.balances[1] = decimal.NewFromInt(75)

	balance, err := f.svc.GetBalance(ctx, 1)

	// No SQL expectations were set: a hit must not touch the database.
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(75)))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetBalance_CacheMiss(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE`).
		WillReturnRows(userRows(1, "120.50"))

	balance, err := f.svc.GetBalance(ctx, 1)

	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromFloat(120.50)))

	cached, ok := f.cache.balances[1]
	require.True(t, ok)
	assert.True(t, cached.Equal(balance))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		balance    string
		ledgerSum  string
		consistent bool
		drift      string
	}{
		{"consistent", "100.00", "100.00", true, "0"},
		{"drifted", "100.00", "90.00", false, "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			ctx := context.Background()

			f.mock.ExpectQuery(`SELECT .+ FROM "users" WHERE`).
				WillReturnRows(userRows(1, tt.balance))
			f.mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "transactions"`).
				WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(tt.ledgerSum))

			report, err := f.svc.Reconcile(ctx, 1)

			require.NoError(t, err)
			assert.Equal(t, uint(1), report.UserID)
			assert.Equal(t, tt.consistent, report.Consistent)
			assert.True(t, report.Drift.Equal(decimal.RequireFromString(tt.drift)))
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}
