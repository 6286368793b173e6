package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"banking_portal/internal/models"
	"banking_portal/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultSessionTTL = 24 * time.Hour

var ErrSessionNotFound = errors.New("session not found")

// sessionClaims carries only the session id (jti). The state itself stays
// server-side.
type sessionClaims struct {
	jwt.RegisteredClaims
}

type SessionService struct {
	repo       repository.Sessions
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewSessionService(repo repository.Sessions, signingKey []byte, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{
		repo:       repo,
		signingKey: signingKey,
		ttl:        ttl,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// New returns an anonymous, unsaved session.
func (s *SessionService) New() *models.SessionState {
	return &models.SessionState{
		ID:        uuid.NewString(),
		ExpiresAt: s.now().Add(s.ttl),
	}
}

// Load verifies the cookie token and fetches the session it points to.
func (s *SessionService) Load(ctx context.Context, token string) (*models.SessionState, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	tk, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := tk.Claims.(*sessionClaims)
	if !ok || !tk.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	st, err := s.repo.Load(ctx, claims.ID, s.now())
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrSessionNotFound
	}
	return st, nil
}

// Save persists s with a renewed expiry and returns the cookie token for it.
func (s *SessionService) Save(ctx context.Context, st *models.SessionState) (string, error) {
	now := s.now()
	st.ExpiresAt = now.Add(s.ttl)
	if err := s.repo.Save(ctx, *st); err != nil {
		return "", err
	}
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        st.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(st.ExpiresAt),
		},
	})
	return tk.SignedString(s.signingKey)
}

// Login replaces old with a fresh session id bound to u. Pending flashes
// carry over. The returned session is not saved yet.
func (s *SessionService) Login(ctx context.Context, old *models.SessionState, u *models.User) (*models.SessionState, error) {
	next := s.New()
	next.Username = u.Username
	next.CachedBalance = u.Balance
	if old != nil {
		next.Flashes = old.Flashes
		if err := s.repo.Delete(ctx, old.ID); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// Destroy removes the session row.
func (s *SessionService) Destroy(ctx context.Context, st *models.SessionState) error {
	if st == nil {
		return nil
	}
	return s.repo.Delete(ctx, st.ID)
}
