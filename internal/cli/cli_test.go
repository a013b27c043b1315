package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meetmate/core/config"
	"github.com/meetmate/core/internal/app"
	"github.com/meetmate/core/internal/meetings"
	"github.com/meetmate/core/internal/models"
	"github.com/meetmate/core/internal/profiles"
	"github.com/meetmate/core/internal/settings"
	"github.com/meetmate/core/internal/testutil"
)

func newDeps(t *testing.T) (*Dependencies, *bytes.Buffer, *settings.JSONStore) {
	t.Helper()
	var out bytes.Buffer
	store := settings.NewJSONStore(filepath.Join(t.TempDir(), "settings.json"))
	return &Dependencies{
		Config:   &config.Config{},
		Settings: store,
		Open: func(context.Context) (*app.App, error) {
			return nil, errors.New("core unavailable in tests")
		},
		Out: &out,
	}, &out, store
}

func run(deps *Dependencies, args ...string) error {
	cmd := NewRootCmd(deps)
	cmd.SetArgs(args)
	cmd.SetOut(deps.Out)
	cmd.SetErr(deps.Out)
	return cmd.ExecuteContext(context.Background())
}

type fakeCore struct {
	sessions *testutil.Sessions
	meetings *testutil.MeetingStore
	profiles *testutil.ProfileStore
}

func withCore(deps *Dependencies) *fakeCore {
	c := &fakeCore{
		sessions: testutil.NewSessions(),
		meetings: testutil.NewMeetingStore(),
		profiles: testutil.NewProfileStore(),
	}
	deps.Open = func(context.Context) (*app.App, error) {
		return &app.App{
			Meetings: meetings.NewManager(c.meetings, c.sessions, nil),
			Profiles: profiles.NewManager(c.profiles, c.sessions, nil),
		}, nil
	}
	return c
}

func TestSettingsTokenAndOnboarding(t *testing.T) {
	deps, out, store := newDeps(t)
	core := withCore(deps)

	if err := run(deps, "settings", "token", "ExponentPushToken[x]"); err != nil {
		t.Fatalf("settings token: %v", err)
	}
	if !strings.Contains(out.String(), "Welcome") {
		t.Fatalf("first run should print onboarding, got %q", out.String())
	}
	got, _ := store.Load()
	if got.NotificationToken != "ExponentPushToken[x]" || got.FirstRun {
		t.Fatalf("settings = %+v", got)
	}
	registered, ok := core.profiles.DeviceToken(core.sessions.Current.UserID)
	if !ok || registered == nil || *registered != "ExponentPushToken[x]" {
		t.Fatalf("device token not registered: %v", registered)
	}

	out.Reset()
	if err := run(deps, "settings", "token", "y"); err != nil {
		t.Fatalf("settings token: %v", err)
	}
	if strings.Contains(out.String(), "Welcome") {
		t.Fatal("onboarding should only print once")
	}
}

func TestSettingsTokenEmptyUnregisters(t *testing.T) {
	deps, _, _ := newDeps(t)
	core := withCore(deps)

	if err := run(deps, "settings", "token", "abc"); err != nil {
		t.Fatalf("settings token: %v", err)
	}
	if err := run(deps, "settings", "token", ""); err != nil {
		t.Fatalf("settings token: %v", err)
	}
	registered, ok := core.profiles.DeviceToken(core.sessions.Current.UserID)
	if !ok || registered != nil {
		t.Fatalf("device token should be cleared, got %v", registered)
	}
}

func TestSettingsTokenRegistrationFailure(t *testing.T) {
	deps, _, store := newDeps(t)
	core := withCore(deps)
	core.profiles.Err = errors.New("connection refused")

	err := run(deps, "settings", "token", "abc")
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("expected registration error, got %v", err)
	}
	got, _ := store.Load()
	if got.NotificationToken != "abc" {
		t.Fatalf("token should still be saved locally, got %+v", got)
	}
}

func TestOpenResolvesDeeplink(t *testing.T) {
	deps, out, _ := newDeps(t)
	core := withCore(deps)
	m := models.Meeting{
		ID:        uuid.New(),
		Owner:     core.sessions.Current.UserID,
		Name:      "Weekly sync",
		Status:    models.StatusCompleted,
		CreatedAt: time.Now(),
	}
	core.meetings.Put(m)

	for _, link := range []string{
		"meetmate://meeting/" + m.ID.String(),
		"https://meetmate.app/meeting/" + m.ID.String(),
	} {
		out.Reset()
		if err := run(deps, "open", link); err != nil {
			t.Fatalf("open %s: %v", link, err)
		}
		if !strings.Contains(out.String(), "Weekly sync") {
			t.Fatalf("open %s printed %q", link, out.String())
		}
	}
}

func TestOpenRejectsForeignLinks(t *testing.T) {
	deps, _, _ := newDeps(t)
	withCore(deps)
	err := run(deps, "open", "https://example.com/meeting/"+uuid.NewString())
	if err == nil || !strings.Contains(err.Error(), "not a meeting link") {
		t.Fatalf("expected link error, got %v", err)
	}
}

func TestShowPrintsLink(t *testing.T) {
	deps, out, _ := newDeps(t)
	core := withCore(deps)
	m := models.Meeting{ID: uuid.New(), Owner: core.sessions.Current.UserID, Name: "Retro", Status: models.StatusProcessing, CreatedAt: time.Now()}
	core.meetings.Put(m)

	if err := run(deps, "show", m.ID.String()); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out.String(), "meetmate://meeting/"+m.ID.String()) {
		t.Fatalf("show output missing link: %q", out.String())
	}
}

func TestWatchRejectsNonPositiveInterval(t *testing.T) {
	for _, interval := range []string{"0s", "-5s"} {
		deps, _, _ := newDeps(t)
		err := run(deps, "watch", uuid.NewString(), "--interval="+interval)
		if err == nil || !strings.Contains(err.Error(), "--interval must be positive") {
			t.Fatalf("interval %s: expected validation error, got %v", interval, err)
		}
	}
}

func TestInvalidMeetingID(t *testing.T) {
	deps, _, _ := newDeps(t)
	err := run(deps, "show", "not-a-uuid")
	if err == nil || !strings.Contains(err.Error(), "invalid meeting id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestUploadMissingFileFailsBeforeOpening(t *testing.T) {
	deps, _, _ := newDeps(t)
	err := run(deps, "upload", filepath.Join(t.TempDir(), "missing.m4a"))
	if err == nil || strings.Contains(err.Error(), "core unavailable") {
		t.Fatalf("expected file error before opening the core, got %v", err)
	}
}
