package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"banking_portal/internal/metrics"
	"banking_portal/internal/models"
	"banking_portal/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidPassword   = errors.New("invalid password")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidToken      = errors.New("invalid token")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrEmptyPassword     = errors.New("password is empty")
)

// RegisterParams is the validated signup input.
type RegisterParams struct {
	Name     string
	Email    string
	Username string
	Password string
}

// AuthService handles user auth logic. It keeps no state between calls.
type AuthService struct {
	users      repository.Users
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(users repository.Users, signingKey []byte, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{users: users, signingKey: signingKey, tokenTTL: tokenTTL}
}

// Register hashes the password and creates a new user with a zero balance.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (int64, error) {
	hash, err := hashPassword(p.Password)
	if err != nil {
		metrics.ObserveAuth("register", metrics.OutcomeError)
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	id, err := s.users.Create(ctx, &models.User{
		Name:         p.Name,
		Email:        p.Email,
		Username:     p.Username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.ObserveAuth("register", metrics.OutcomeDuplicate)
			return 0, ErrDuplicateUsername
		}
		metrics.ObserveAuth("register", metrics.OutcomeError)
		return 0, err
	}
	metrics.ObserveAuth("register", metrics.OutcomeOK)
	return id, nil
}

// Authenticate looks the user up by exact username and verifies the password.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		metrics.ObserveAuth("login", metrics.OutcomeError)
		return nil, err
	}
	if u == nil {
		metrics.ObserveAuth("login", metrics.OutcomeNotFound)
		return nil, ErrUserNotFound
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		metrics.ObserveAuth("login", metrics.OutcomeBadPassword)
		return nil, ErrInvalidPassword
	}
	metrics.ObserveAuth("login", metrics.OutcomeOK)
	return u, nil
}

// Claims defines JWT claims for API bearer tokens; Subject is the username.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken validates credentials and returns a signed bearer token.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.issueToken(u.Username)
}

// ParseToken verifies a bearer token and returns the username it was issued to.
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString(s.signingKey)
}
