package service

import (
	"context"
	"sync"
	"time"

	"banking_portal/internal/ledger"
	"banking_portal/internal/models"
	"banking_portal/internal/repository"

	"github.com/shopspring/decimal"
)

// mockUsers is a lightweight in-test mock for repository.Users.
type mockUsers struct {
	CreateFn        func(u *models.User) (int64, error)
	GetByUsernameFn func(username string) (*models.User, error)
	ApplyBalanceFn  func(username string, op ledger.Op, entry models.LedgerEntry) (decimal.Decimal, error)

	createCalls []models.User
	getCalls    []string
	applyCalls  []models.LedgerEntry
}

func (m *mockUsers) Create(_ context.Context, u *models.User) (int64, error) {
	m.createCalls = append(m.createCalls, *u)
	return m.CreateFn(u)
}

func (m *mockUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.getCalls = append(m.getCalls, username)
	return m.GetByUsernameFn(username)
}

func (m *mockUsers) ApplyBalance(_ context.Context, username string, op ledger.Op, entry models.LedgerEntry) (decimal.Decimal, error) {
	m.applyCalls = append(m.applyCalls, entry)
	return m.ApplyBalanceFn(username, op, entry)
}

// mockEntries records the filter it was asked for.
type mockEntries struct {
	got  repository.EntryFilter
	rows []models.LedgerEntry
	err  error
}

func (m *mockEntries) List(_ context.Context, f repository.EntryFilter) ([]models.LedgerEntry, error) {
	m.got = f
	return m.rows, m.err
}

// memSessions is an in-memory repository.Sessions.
type memSessions struct {
	mu       sync.Mutex
	rows     map[string]models.SessionState
	purgeErr error
}

func newMemSessions() *memSessions {
	return &memSessions{rows: map[string]models.SessionState{}}
}

func (m *memSessions) Save(_ context.Context, s models.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = s
	return nil
}

func (m *memSessions) Load(_ context.Context, id string, now time.Time) (*models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, nil
	}
	return &s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.purgeErr != nil {
		return 0, m.purgeErr
	}
	var n int64
	for id, s := range m.rows {
		if !s.ExpiresAt.After(now) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
