package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSQLiteUserRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "mika", "hashed-password")
	if err != nil {
		t.Fatal(err)
	}
	if created.Username != "mika" || created.PasswordHash != "hashed-password" {
		t.Fatalf("unexpected created user: %+v", created)
	}

	byName, err := s.GetUserByUsername(ctx, "mika")
	if err != nil {
		t.Fatal(err)
	}
	if byName == nil || byName.ID != created.ID {
		t.Fatalf("lookup by name mismatch: %+v", byName)
	}

	byID, err := s.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if byID == nil || byID.Username != "mika" {
		t.Fatalf("lookup by id mismatch: %+v", byID)
	}

	count, err := s.CountUsers(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 user, got %d (err %v)", count, err)
	}
}

func TestSQLiteUnknownUserIsNil(t *testing.T) {
	s := newTestSQLite(t)

	user, err := s.GetUserByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Fatalf("expected nil for unknown user, got %+v", user)
	}
}

func TestSQLiteDuplicateUsernameRejected(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "mika", "h1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser(ctx, "mika", "h2"); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	created, err := s1.CreateUser(ctx, "mika", "hash")
	if err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	user, err := s2.GetUserByUsername(ctx, "mika")
	if err != nil {
		t.Fatal(err)
	}
	if user == nil || user.ID != created.ID {
		t.Fatalf("user lost across reopen: %+v", user)
	}
}
