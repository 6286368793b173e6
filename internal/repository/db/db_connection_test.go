package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
)

func TestInitDB_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bank.db")

	db, err := InitDB(ctx, path, nil)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, table := range []string{"users", "ledger_entries", "sessions"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	// balance_minor must never go negative
	if _, err := db.ExecContext(ctx,
		`INSERT INTO users (name, email, username, password_hash, balance_minor) VALUES ('a','a@x.io','alice','h',-1)`); err == nil {
		t.Fatalf("expected CHECK constraint violation for negative balance")
	}
}

func TestInitDB_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bank.db")

	first, err := InitDB(ctx, path, nil)
	if err != nil {
		t.Fatalf("first InitDB: %v", err)
	}
	_ = first.Close()

	second, err := InitDB(ctx, path, nil)
	if err != nil {
		t.Fatalf("second InitDB: %v", err)
	}
	_ = second.Close()
}

func TestInitDB_MigrationError(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	_, err := InitDB(context.Background(), filepath.Join(t.TempDir(), "bank.db"), nil)
	if err == nil {
		t.Fatalf("expected migration error")
	}
}
