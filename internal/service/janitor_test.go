package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"banking_portal/internal/models"
)

func TestJanitor_PurgeRemovesOnlyExpired(t *testing.T) {
	repo := newMemSessions()
	now := time.Now().UTC()
	_ = repo.Save(context.Background(), models.SessionState{ID: "old", ExpiresAt: now.Add(-time.Minute)})
	_ = repo.Save(context.Background(), models.SessionState{ID: "live", ExpiresAt: now.Add(time.Hour)})

	j := NewJanitorService(repo, nil)
	if n := j.purge(context.Background(), now); n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
	if repo.len() != 1 {
		t.Fatalf("expected 1 remaining session, got %d", repo.len())
	}
}

func TestJanitor_PurgeErrorIsSwallowed(t *testing.T) {
	repo := newMemSessions()
	repo.purgeErr = errors.New("locked")

	j := NewJanitorService(repo, nil)
	if n := j.purge(context.Background(), time.Now()); n != 0 {
		t.Fatalf("purged %d on error, want 0", n)
	}
}

func TestJanitor_RunStopsOnCancel(t *testing.T) {
	repo := newMemSessions()
	_ = repo.Save(context.Background(), models.SessionState{ID: "old", ExpiresAt: time.Now().Add(-time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewJanitorService(repo, nil).Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for repo.len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if repo.len() != 0 {
		t.Fatalf("expired session was not purged")
	}
}
