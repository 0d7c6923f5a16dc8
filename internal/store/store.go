// =============================================================================
// Debt Ledger - Record Store
// =============================================================================
//
// This package holds the persisted debt records the import/export pipeline
// reads from and writes to.
//
// BACKENDS:
//   - GormStore   : MySQL through gorm (production)
//   - MemoryStore : in-process map (CLI --store memory, tests)
//
// Both backends insert one record per call. There is no batch transaction:
// a failure on one row leaves the rows before it persisted.
//
// =============================================================================

package store

import (
	"context"
	"time"

	"github.com/ginjaninja78/debtledger/internal/types"
)

// Store is implemented by every backend.
type Store interface {
	// ListRecords returns every record owned by userID in insertion order.
	ListRecords(ctx context.Context, userID string) ([]types.DebtRecord, error)

	// CreateRecord persists a single record for userID.
	CreateRecord(ctx context.Context, userID string, record types.DebtRecord) error

	// MarkOverdue moves PENDING records whose due date is before today to
	// OVERDUE and returns how many changed.
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
