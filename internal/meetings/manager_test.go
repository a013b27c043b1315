package meetings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/meetmate/core/internal/apperr"
	"github.com/meetmate/core/internal/models"
	"github.com/meetmate/core/internal/testutil"
)

func TestCreateStartsProcessing(t *testing.T) {
	store := testutil.NewMeetingStore()
	sessions := testutil.NewSessions()
	m := NewManager(store, sessions, nil)

	got, err := m.Create(context.Background(), "https://p.example.co/object/public/b/u/1_a.m4a", "Standup")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.ID == uuid.Nil || got.CreatedAt.IsZero() {
		t.Fatalf("server-assigned fields missing: %+v", got)
	}
	if got.Status != models.StatusProcessing || got.Owner != sessions.Current.UserID || got.Name != "Standup" {
		t.Fatalf("unexpected meeting %+v", got)
	}
}

func TestCreateWithoutSession(t *testing.T) {
	m := NewManager(testutil.NewMeetingStore(), &testutil.Sessions{}, nil)
	if _, err := m.Create(context.Background(), "x", "y"); !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestCreatePersistenceFailure(t *testing.T) {
	store := testutil.NewMeetingStore()
	store.Err = errors.New("connection refused")
	m := NewManager(store, testutil.NewSessions(), nil)
	if _, err := m.Create(context.Background(), "x", "y"); !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestListIsOwnerScopedNewestFirst(t *testing.T) {
	store := testutil.NewMeetingStore()
	alice := testutil.NewSessions()
	bob := testutil.NewSessions()
	forAlice := NewManager(store, alice, nil)
	forBob := NewManager(store, bob, nil)
	ctx := context.Background()

	first, _ := forAlice.Create(ctx, "a/1", "first")
	if _, err := forBob.Create(ctx, "b/1", "bob's"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, _ := forAlice.Create(ctx, "a/2", "second")

	list, err := forAlice.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestListEmpty(t *testing.T) {
	m := NewManager(testutil.NewMeetingStore(), testutil.NewSessions(), nil)
	list, err := m.List(context.Background())
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("List() = %v, %v; want empty slice", list, err)
	}
}

func TestGetByIDIsOwnerScoped(t *testing.T) {
	store := testutil.NewMeetingStore()
	ctx := context.Background()
	created, _ := NewManager(store, testutil.NewSessions(), nil).Create(ctx, "a/1", "mine")

	other := NewManager(store, testutil.NewSessions(), nil)
	if _, err := other.GetByID(ctx, created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another owner, got %v", err)
	}
	if _, err := other.GetByID(ctx, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	store := testutil.NewMeetingStore()
	sessions := testutil.NewSessions()
	m := NewManager(store, sessions, nil)
	ctx := context.Background()
	created, _ := m.Create(ctx, "a/1", "x")

	if err := m.SetStatus(ctx, created.ID, models.StatusNotSubmitted); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	got, _ := m.GetByID(ctx, created.ID)
	if got.Status != models.StatusNotSubmitted {
		t.Fatalf("status = %q", got.Status)
	}
	if err := m.SetStatus(ctx, uuid.New(), models.StatusProcessing); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
