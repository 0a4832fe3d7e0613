package tokenstore

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/usergate/internal/client/models"
)

type MemoryStore struct {
	mu      sync.Mutex
	session *models.StoredSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (*models.StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	c := *m.session
	return &c, nil
}

func (m *MemoryStore) Save(_ context.Context, s models.StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }
