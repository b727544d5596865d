package store

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// MemoryStore keeps users in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]*User
	nextID int
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*User),
		now:   time.Now,
	}
}

func (m *MemoryStore) GetByClerkID(_ context.Context, clerkID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[clerkID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) GetOrCreate(_ context.Context, id Identity) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id.ClerkID]; ok {
		return cloneUser(u), nil
	}
	u := m.insertLocked(id.ClerkID)
	u.Email = id.Email
	u.FirstName = id.FirstName
	u.LastName = id.LastName
	return cloneUser(u), nil
}

func (m *MemoryStore) SaveQuiz(_ context.Context, clerkID string, quiz QuizResult) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[clerkID]
	if !ok {
		u = m.insertLocked(clerkID)
	}
	u.Skills = append([]string{}, quiz.Skills...)
	u.Role = quiz.Role
	u.Readiness = quiz.Readiness
	u.UpdatedAt = m.now()
	return cloneUser(u), nil
}

func (m *MemoryStore) SetInsights(_ context.Context, clerkID string, insights json.RawMessage) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[clerkID]
	if !ok {
		return nil, ErrNotFound
	}
	u.AIInsights = append(json.RawMessage(nil), insights...)
	u.UpdatedAt = m.now()
	return cloneUser(u), nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }

func (m *MemoryStore) insertLocked(clerkID string) *User {
	m.nextID++
	now := m.now()
	u := &User{
		ID:        strconv.Itoa(m.nextID),
		ClerkID:   clerkID,
		Skills:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.users[clerkID] = u
	return u
}

func cloneUser(u *User) *User {
	c := *u
	c.Skills = append([]string{}, u.Skills...)
	if u.AIInsights != nil {
		c.AIInsights = append(json.RawMessage(nil), u.AIInsights...)
	}
	return &c
}
