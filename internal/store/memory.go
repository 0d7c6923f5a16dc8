package store

import (
	"context"
	"sync"
	"time"

	"github.com/ginjaninja78/debtledger/internal/csvcodec"
	"github.com/ginjaninja78/debtledger/internal/types"
)

// MemoryStore keeps records in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]types.DebtRecord
	creates int

	// FailCreate, when set, is consulted before every insert with the
	// 1-based count of CreateRecord calls so far. A non-nil error aborts
	// that insert.
	FailCreate func(call int, record types.DebtRecord) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]types.DebtRecord)}
}

func (s *MemoryStore) ListRecords(ctx context.Context, userID string) ([]types.DebtRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.DebtRecord, len(s.records[userID]))
	copy(out, s.records[userID])
	return out, nil
}

func (s *MemoryStore) CreateRecord(ctx context.Context, userID string, record types.DebtRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	if s.FailCreate != nil {
		if err := s.FailCreate(s.creates, record); err != nil {
			return err
		}
	}
	s.records[userID] = append(s.records[userID], record)
	return nil
}

func (s *MemoryStore) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cutoff := today.Format(csvcodec.DateLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, records := range s.records {
		for i := range records {
			// ISO dates order lexically.
			if records[i].Status == types.StatusPending && records[i].DueDate < cutoff {
				records[i].Status = types.StatusOverdue
				changed++
			}
		}
	}
	return changed, nil
}
