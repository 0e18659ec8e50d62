package repositories

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner runs a function inside one database transaction. Everything the
// function writes commits or rolls back together; services use it to keep
// order writes and ledger movements in a single atomic unit.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
