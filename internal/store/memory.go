package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/sweetshop-golang/internal/models"
)

// MemoryStore keeps everything in maps. The lock only covers the in-memory
// read, compare and write of a single call.
type MemoryStore struct {
	mu     sync.RWMutex
	sweets map[string]models.Sweet
	users  map[string]models.User
	now    func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sweets: make(map[string]models.Sweet),
		users:  make(map[string]models.User),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (models.Sweet, error) {
	if err := ctx.Err(); err != nil {
		return models.Sweet{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sweets[id]
	if !ok {
		return models.Sweet{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Put(ctx context.Context, sweet models.Sweet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweets[sweet.ID] = sweet
	return nil
}

func (m *MemoryStore) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, mutate MutateFunc) (models.Sweet, error) {
	if err := ctx.Err(); err != nil {
		return models.Sweet{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sweets[id]
	if !ok {
		return models.Sweet{}, ErrNotFound
	}
	if current.Version != expectedVersion {
		return models.Sweet{}, ErrVersionConflict
	}

	next, err := mutate(current)
	if err != nil {
		return models.Sweet{}, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.Version = expectedVersion + 1
	next.UpdatedAt = m.now()

	m.sweets[id] = next
	return next, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sweets[id]; !ok {
		return ErrNotFound
	}
	delete(m.sweets, id)
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, filter Filter) ([]models.Sweet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Sweet, 0, len(m.sweets))
	for _, s := range m.sweets {
		if filter.Match(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- Users ---

func (m *MemoryStore) CreateUser(ctx context.Context, user models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username) {
			return ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *MemoryStore) SetRole(ctx context.Context, id, role string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = m.now()
	m.users[id] = u
	return nil
}
