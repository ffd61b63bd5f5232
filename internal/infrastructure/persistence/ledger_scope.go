package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/erp/stockledger/internal/domain/ledger"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// The repositories passed to fn are bound to that transaction, so advisory
// locks taken through them hold until commit or rollback.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos ledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ledger.TransactionalRepositories{
			Movements: NewGormStockMovementRepository(tx),
			Units:     NewGormProductUnitRepository(tx),
		})
	})
}

// Ensure GormTransactionScope implements TransactionScope
var _ ledger.TransactionScope = (*GormTransactionScope)(nil)
