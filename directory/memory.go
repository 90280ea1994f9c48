package directory

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Directory used by examples and tests. It mirrors
// the role a JSON-file or key-value repository plays in a deployed service;
// production integrations supply their own Directory implementation.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemory returns an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (m *Memory) Create(_ context.Context, user *User) (*User, error) {
	if user == nil || user.ID == "" {
		return nil, ErrNotFound
	}
	if err := ValidateEmail(user.Email); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[user.ID]; ok {
		return nil, ErrDuplicate
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return nil, ErrDuplicate
	}

	stored := user.Clone()
	now := m.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.byID[stored.ID] = stored
	m.byEmail[stored.Email] = stored.ID

	return stored.Clone(), nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return user.Clone(), nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *Memory) Update(_ context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[user.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if user.Email != current.Email {
		if err := ValidateEmail(user.Email); err != nil {
			return nil, err
		}
		if _, taken := m.byEmail[user.Email]; taken {
			return nil, ErrDuplicate
		}
		delete(m.byEmail, current.Email)
		m.byEmail[user.Email] = user.ID
	}

	stored := user.Clone()
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = m.now()
	m.byID[stored.ID] = stored

	return stored.Clone(), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byEmail, user.Email)
	delete(m.byID, id)
	return nil
}
