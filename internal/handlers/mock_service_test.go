package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"banking_portal/internal/ledger"
	"banking_portal/internal/models"
	"banking_portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerID  int64
	registerErr error
	user        *models.User
	authErr     error
	token       string
	tokenErr    error
	parseUser   string
	parseErr    error

	lastRegister   service.RegisterParams
	lastAuthUser   string
	lastParseToken string
}

func (m *mockAuth) Register(_ context.Context, p service.RegisterParams) (int64, error) {
	m.lastRegister = p
	return m.registerID, m.registerErr
}
func (m *mockAuth) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	m.lastAuthUser = username
	return m.user, m.authErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastAuthUser = username
	return m.token, m.tokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseUser, m.parseErr
}

// mockLedger keeps balances in memory and runs the real ledger arithmetic.
type mockLedger struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	seen     map[string]bool
	err      error

	lastRequestID string
}

func newMockLedger(balances map[string]string) *mockLedger {
	m := &mockLedger{balances: map[string]decimal.Decimal{}, seen: map[string]bool{}}
	for u, b := range balances {
		m.balances[u] = decimal.RequireFromString(b)
	}
	return m
}

func (m *mockLedger) apply(username, requestID string, op ledger.Op) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRequestID = requestID
	if m.err != nil {
		return decimal.Zero, m.err
	}
	bal, ok := m.balances[username]
	if !ok {
		return decimal.Zero, service.ErrAccountNotFound
	}
	if requestID != "" && m.seen[requestID] {
		return bal, service.ErrDuplicateRequest
	}
	next, err := op(bal)
	if err != nil {
		return bal, err
	}
	if requestID != "" {
		m.seen[requestID] = true
	}
	m.balances[username] = next
	return next, nil
}

func (m *mockLedger) Deposit(_ context.Context, username string, amount decimal.Decimal, requestID string) (decimal.Decimal, error) {
	return m.apply(username, requestID, ledger.DepositOp(amount))
}
func (m *mockLedger) Withdraw(_ context.Context, username string, amount decimal.Decimal, requestID string) (decimal.Decimal, error) {
	return m.apply(username, requestID, ledger.WithdrawOp(amount))
}
func (m *mockLedger) Balance(ctx context.Context, username string) (decimal.Decimal, error) {
	u, err := m.Account(ctx, username)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}
func (m *mockLedger) Account(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	bal, ok := m.balances[username]
	if !ok {
		return nil, service.ErrAccountNotFound
	}
	return &models.User{Name: "Name of " + username, Username: username, Balance: bal}, nil
}

type mockHistory struct {
	resp []models.LedgerEntry
	err  error
	last service.HistoryFilter
}

func (m *mockHistory) List(_ context.Context, f service.HistoryFilter) ([]models.LedgerEntry, error) {
	m.last = f
	return m.resp, m.err
}

// mockSessions stores sessions in memory; the token is the session id.
type mockSessions struct {
	mu   sync.Mutex
	rows map[string]models.SessionState
}

func newMockSessions() *mockSessions {
	return &mockSessions{rows: map[string]models.SessionState{}}
}

func (m *mockSessions) New() *models.SessionState {
	return &models.SessionState{ID: uuid.NewString()}
}
func (m *mockSessions) Load(_ context.Context, token string) (*models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.rows[token]
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	return &st, nil
}
func (m *mockSessions) Save(_ context.Context, st *models.SessionState) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.ExpiresAt = time.Now().Add(time.Hour)
	m.rows[st.ID] = *st
	return st.ID, nil
}
func (m *mockSessions) Login(_ context.Context, old *models.SessionState, u *models.User) (*models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, old.ID)
	return &models.SessionState{
		ID:            uuid.NewString(),
		Username:      u.Username,
		CachedBalance: u.Balance,
		Flashes:       old.Flashes,
	}, nil
}
func (m *mockSessions) Destroy(_ context.Context, st *models.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, st.ID)
	return nil
}

// loggedIn stores an authenticated session and returns its cookie.
func (m *mockSessions) loggedIn(username string) *http.Cookie {
	st := &models.SessionState{ID: uuid.NewString(), Username: username}
	_, _ = m.Save(context.Background(), st)
	return &http.Cookie{Name: defaultCookieName, Value: st.ID}
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, Options{})
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func formBody(kv ...string) *strings.Reader {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return strings.NewReader(v.Encode())
}

// flashes returns the queued messages of the session behind cookie.
func (m *mockSessions) flashes(cookie *http.Cookie) []models.Flash {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[cookie.Value].Flashes
}
