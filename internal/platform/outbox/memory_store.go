package outbox

import (
	"context"
	"time"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/memstore"
)

// MemoryStore is the outbox of the in-memory driver. Inserts made inside a
// memstore transaction disappear if that transaction rolls back.
type MemoryStore struct {
	store   *memstore.Store
	nextID  int64
	records []Record
}

func NewMemoryStore(store *memstore.Store) *MemoryStore {
	return &MemoryStore{store: store}
}

func (s *MemoryStore) Insert(ctx context.Context, rec Record) error {
	unlock := s.store.Lock(ctx)
	defer unlock()

	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, rec)
	id := rec.ID
	memstore.OnRollback(ctx, func() {
		for i, r := range s.records {
			if r.ID == id {
				s.records = append(s.records[:i], s.records[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (s *MemoryStore) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	unlock := s.store.Lock(ctx)
	defer unlock()

	var out []Record
	for _, r := range s.records {
		if r.SentAt == nil {
			out = append(out, r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkSent(ctx context.Context, ids ...int64) error {
	unlock := s.store.Lock(ctx)
	defer unlock()

	now := time.Now().UTC()
	sent := make(map[int64]bool, len(ids))
	for _, id := range ids {
		sent[id] = true
	}
	for i := range s.records {
		if sent[s.records[i].ID] {
			s.records[i].SentAt = &now
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
