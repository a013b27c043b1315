package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "missing", "settings.json"))
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != Defaults() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "cfg", "settings.json"))
	want := Settings{FirstRun: false, NotificationToken: "ExponentPushToken[abc]"}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewJSONStore(path).Load(); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestConsumeFirstRun(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "settings.json"))
	first, err := ConsumeFirstRun(store)
	if err != nil || !first {
		t.Fatalf("first call = %v, %v; want true", first, err)
	}
	again, err := ConsumeFirstRun(store)
	if err != nil || again {
		t.Fatalf("second call = %v, %v; want false", again, err)
	}
}

func TestSetNotificationTokenKeepsFlags(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "settings.json"))
	if err := SetNotificationToken(store, "tok"); err != nil {
		t.Fatalf("SetNotificationToken() error = %v", err)
	}
	got, _ := store.Load()
	if got.NotificationToken != "tok" || !got.FirstRun {
		t.Fatalf("settings = %+v", got)
	}
}
