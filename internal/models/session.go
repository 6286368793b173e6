package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flash categories understood by the templates.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// SessionState is the per-client state behind the session cookie.
//
// CachedBalance is for display only. It is refreshed from the store on every
// account render and never used to decide a ledger operation.
type SessionState struct {
	ID            string          `json:"id"`
	Username      string          `json:"username,omitempty"`
	CachedBalance decimal.Decimal `json:"cached_balance"`
	Flashes       []Flash         `json:"flashes,omitempty"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// Authenticated reports whether the session belongs to a logged-in user.
func (s *SessionState) Authenticated() bool {
	return s != nil && s.Username != ""
}

// AddFlash queues a notice for the next page.
func (s *SessionState) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns queued notices and clears them.
func (s *SessionState) PopFlashes() []Flash {
	out := s.Flashes
	s.Flashes = nil
	return out
}
