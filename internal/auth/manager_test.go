package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/yourusername/idgate/internal/identifier"
	"github.com/yourusername/idgate/internal/session"
)

// collidingStore は最初の n 回だけトークン衝突を返します。
type collidingStore struct {
	session.Store
	remaining int
	calls     int
}

func (s *collidingStore) Update(ctx context.Context, fn func(session.Table) error) error {
	s.calls++
	if s.remaining > 0 {
		s.remaining--
		return session.ErrTokenCollision
	}
	return s.Store.Update(ctx, fn)
}

func TestIssueRetriesOnCollision(t *testing.T) {
	inner := session.NewFileStore(filepath.Join(t.TempDir(), "sessions.json"), nil)
	store := &collidingStore{Store: inner, remaining: 2}
	manager := NewManager(testConfig(), store, nil)

	issued, err := manager.Issue(context.Background(), "a@b.co")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if store.calls != 3 {
		t.Fatalf("calls = %d, want 3", store.calls)
	}
	if issued.Record.Kind != identifier.KindEmail {
		t.Fatalf("unexpected kind: %s", issued.Record.Kind)
	}
}

func TestIssueGivesUpAfterRepeatedCollisions(t *testing.T) {
	inner := session.NewFileStore(filepath.Join(t.TempDir(), "sessions.json"), nil)
	store := &collidingStore{Store: inner, remaining: 10}
	manager := NewManager(testConfig(), store, nil)

	_, err := manager.Issue(context.Background(), "a@b.co")
	if !errors.Is(err, session.ErrTokenCollision) {
		t.Fatalf("expected ErrTokenCollision, got %v", err)
	}
	if store.calls != maxTokenAttempts {
		t.Fatalf("calls = %d, want %d", store.calls, maxTokenAttempts)
	}
}

func TestIssueValidation(t *testing.T) {
	manager := NewManager(testConfig(), &failingStore{err: errors.New("unused")}, nil)

	_, err := manager.Issue(context.Background(), "  ")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = manager.Issue(context.Background(), "nope")
	if !errors.Is(err, identifier.ErrUnclassifiable) {
		t.Fatalf("expected ErrUnclassifiable, got %v", err)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	store := session.NewFileStore(filepath.Join(t.TempDir(), "sessions.json"), nil)
	manager := NewManager(testConfig(), store, nil)
	base := time.UnixMilli(1_700_000_000_000)
	manager.now = func() time.Time { return base }

	issued, err := manager.Issue(context.Background(), "a@b.co")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	manager.now = func() time.Time { return base.Add(24 * time.Hour) }
	if _, ok, _ := manager.Verify(context.Background(), issued.Token); !ok {
		t.Fatal("session must be valid exactly at expiry")
	}

	manager.now = func() time.Time { return base.Add(24*time.Hour + time.Millisecond) }
	if _, ok, _ := manager.Verify(context.Background(), issued.Token); ok {
		t.Fatal("session must be invalid after expiry")
	}
}

func TestSweepExpired(t *testing.T) {
	store := session.NewFileStore(filepath.Join(t.TempDir(), "sessions.json"), nil)
	manager := NewManager(testConfig(), store, nil)
	base := time.UnixMilli(1_700_000_000_000)
	ctx := context.Background()

	manager.now = func() time.Time { return base }
	old, err := manager.Issue(ctx, "a@b.co")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	manager.now = func() time.Time { return base.Add(12 * time.Hour) }
	fresh, err := manager.Issue(ctx, "+12345678")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	manager.now = func() time.Time { return base.Add(30 * time.Hour) }
	removed, err := manager.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	var hasOld, hasFresh bool
	_ = store.View(ctx, func(table session.Table) {
		_, hasOld = table[old.Token]
		_, hasFresh = table[fresh.Token]
	})
	if hasOld || !hasFresh {
		t.Fatalf("unexpected table state: old=%v fresh=%v", hasOld, hasFresh)
	}

	removed, err = manager.SweepExpired(ctx)
	if err != nil || removed != 0 {
		t.Fatalf("second sweep = %d, %v; want 0, nil", removed, err)
	}
}
