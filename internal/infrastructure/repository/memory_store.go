package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/paypoint/internal/domain/entity"
	domainRepo "github.com/sangkips/paypoint/internal/domain/repository"
	"github.com/sangkips/paypoint/pkg/pagination"
)

type memoryStore struct {
	mu     sync.RWMutex
	stored map[uuid.UUID]entity.StoredTransaction
}

// NewMemoryStore creates an in-memory transaction store. Used by the demo
// and by tests; offline transactions do not survive a restart with this
// implementation.
func NewMemoryStore() domainRepo.TransactionStore {
	return &memoryStore{stored: make(map[uuid.UUID]entity.StoredTransaction)}
}

func (s *memoryStore) Save(_ context.Context, stored *entity.StoredTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.stored[stored.ID] = *stored
	return nil
}

func (s *memoryStore) GetByReference(_ context.Context, posID, reference string) (*entity.StoredTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stored := range s.stored {
		if stored.PosID == posID && stored.Reference == reference {
			found := stored
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListPending(_ context.Context, posID string) ([]entity.StoredTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []entity.StoredTransaction
	for _, stored := range s.stored {
		if stored.PosID == posID && !stored.Uploaded {
			pending = append(pending, stored)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *memoryStore) List(_ context.Context, posID string, params *pagination.PaginationParams) ([]entity.StoredTransaction, int64, error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []entity.StoredTransaction
	for _, stored := range s.stored {
		if stored.PosID == posID {
			all = append(all, stored)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	offset := params.Offset()
	if offset >= len(all) {
		return []entity.StoredTransaction{}, total, nil
	}
	end := offset + params.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *memoryStore) MarkUploaded(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.stored[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	stored.Uploaded = true
	stored.UploadedAt = &now
	s.stored[id] = stored
	return nil
}
