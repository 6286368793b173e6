package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"banking_portal/internal/config"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{"": "", "8080": ":8080", ":9090": ":9090"}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewHTTPServer_Timeouts(t *testing.T) {
	s := New(config.ServerConfig{WriteTimeout: 3 * time.Second})
	hs := s.newHTTPServer(":0", http.NotFoundHandler())

	if hs.WriteTimeout != 3*time.Second {
		t.Fatalf("WriteTimeout = %v, want 3s", hs.WriteTimeout)
	}
	if hs.ReadHeaderTimeout != defaultReadHeaderTimeout || hs.IdleTimeout != defaultIdleTimeout {
		t.Fatalf("defaults not applied: %+v", hs)
	}
}

func TestShutdownBeforeRun(t *testing.T) {
	if err := New(config.ServerConfig{}).Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown without Run: %v", err)
	}
}
