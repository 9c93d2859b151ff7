package intake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for contact record storage
type Repository interface {
	Create(ctx context.Context, record *ContactRecord) (*ContactRecord, error)
	GetByID(ctx context.Context, id string) (*ContactRecord, error)
	LatestByUsername(ctx context.Context, username string) (*ContactRecord, error)
}

// InMemoryRepository is an in-memory implementation of Repository
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*ContactRecord
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]*ContactRecord),
	}
}

// Create stores a validated contact record, assigning its id and timestamp
func (r *InMemoryRepository) Create(ctx context.Context, record *ContactRecord) (*ContactRecord, error) {
	stored := *record
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	r.records[stored.ID] = &stored
	r.mu.Unlock()

	return &stored, nil
}

// GetByID retrieves a contact record by id
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*ContactRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}

	return record, nil
}

// LatestByUsername retrieves the newest submission for a user
func (r *InMemoryRepository) LatestByUsername(ctx context.Context, username string) (*ContactRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *ContactRecord
	for _, record := range r.records {
		if record.Username != username {
			continue
		}
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}

	if latest == nil {
		return nil, ErrRecordNotFound
	}
	return latest, nil
}
