package settings

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"pdf-compressor-go/internal/preset"

	"github.com/sirupsen/logrus"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	dbPath := filepath.Join(t.TempDir(), "nested", "prefs.sqlite3")
	store, err := Open(dbPath, log)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, dbPath
}

func TestStoreDefaults(t *testing.T) {
	store, _ := openTestStore(t)

	prefs, err := store.Get()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if prefs.Theme != ThemeSystem {
		t.Errorf("Expected theme %s, got %s", ThemeSystem, prefs.Theme)
	}
	if prefs.DefaultLevel != preset.DefaultLevel {
		t.Errorf("Expected level %s, got %s", preset.DefaultLevel, prefs.DefaultLevel)
	}

	recent, err := store.RecentFiles()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Expected no recent files, got %v", recent)
	}
}

func TestSetTheme(t *testing.T) {
	store, _ := openTestStore(t)

	for _, theme := range []string{ThemeDark, ThemeLight, ThemeSystem} {
		if err := store.SetTheme(theme); err != nil {
			t.Fatalf("SetTheme(%s): %v", theme, err)
		}
		prefs, _ := store.Get()
		if prefs.Theme != theme {
			t.Errorf("Expected theme %s, got %s", theme, prefs.Theme)
		}
	}

	if err := store.SetTheme("Purple"); !errors.Is(err, ErrInvalidTheme) {
		t.Errorf("Expected ErrInvalidTheme, got %v", err)
	}
	prefs, _ := store.Get()
	if prefs.Theme != ThemeSystem {
		t.Errorf("Invalid theme should not be stored, got %s", prefs.Theme)
	}
}

func TestSetDefaultLevel(t *testing.T) {
	store, _ := openTestStore(t)

	if err := store.SetDefaultLevel("extreme"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	prefs, _ := store.Get()
	if prefs.DefaultLevel != preset.LevelExtreme {
		t.Errorf("Expected %s, got %s", preset.LevelExtreme, prefs.DefaultLevel)
	}

	if err := store.SetDefaultLevel("ultra"); !errors.Is(err, preset.ErrUnknownLevel) {
		t.Errorf("Expected ErrUnknownLevel, got %v", err)
	}
}

func TestPreferencesPersistAcrossOpen(t *testing.T) {
	store, dbPath := openTestStore(t)

	if err := store.SetTheme(ThemeDark); err != nil {
		t.Fatal(err)
	}
	if err := store.SetOutputDirectory("/tmp/out"); err != nil {
		t.Fatal(err)
	}
	if err := store.AddRecentFiles([]string{"/docs/a.pdf"}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	prefs, _ := reopened.Get()
	if prefs.Theme != ThemeDark {
		t.Errorf("Expected theme %s, got %s", ThemeDark, prefs.Theme)
	}
	if prefs.OutputDirectory != "/tmp/out" {
		t.Errorf("Expected output directory /tmp/out, got %s", prefs.OutputDirectory)
	}
	recent, _ := reopened.RecentFiles()
	if !reflect.DeepEqual(recent, []string{"/docs/a.pdf"}) {
		t.Errorf("Expected [/docs/a.pdf], got %v", recent)
	}
}

func TestRecentFiles(t *testing.T) {
	store, _ := openTestStore(t)

	if err := store.AddRecentFiles([]string{"a.pdf", "b.pdf"}); err != nil {
		t.Fatal(err)
	}
	if err := store.AddRecentFiles([]string{"a.pdf"}); err != nil {
		t.Fatal(err)
	}

	recent, _ := store.RecentFiles()
	want := []string{"a.pdf", "b.pdf"}
	if !reflect.DeepEqual(recent, want) {
		t.Errorf("Expected %v, got %v", want, recent)
	}

	if err := store.ClearRecentFiles(); err != nil {
		t.Fatal(err)
	}
	recent, _ = store.RecentFiles()
	if len(recent) != 0 {
		t.Errorf("Expected empty list after clear, got %v", recent)
	}
}

func TestPushRecent(t *testing.T) {
	var many []string
	for i := 0; i < 12; i++ {
		many = append(many, fmt.Sprintf("f%d.pdf", i))
	}

	tests := []struct {
		name   string
		recent []string
		paths  []string
		want   []string
	}{
		{
			name:  "last selected first",
			paths: []string{"a.pdf", "b.pdf"},
			want:  []string{"b.pdf", "a.pdf"},
		},
		{
			name:   "existing entry moves to front",
			recent: []string{"x.pdf", "y.pdf", "z.pdf"},
			paths:  []string{"z.pdf"},
			want:   []string{"z.pdf", "x.pdf", "y.pdf"},
		},
		{
			name:  "capped",
			paths: many,
			want:  []string{"f11.pdf", "f10.pdf", "f9.pdf", "f8.pdf", "f7.pdf", "f6.pdf", "f5.pdf", "f4.pdf", "f3.pdf", "f2.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pushRecent(tt.recent, tt.paths)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCorruptPreferencesFallBack(t *testing.T) {
	row := UserPreferences{PreferencesJSON: "{not json", RecentFilesJSON: "[1,"}

	if got := row.GetPreferences(); got != DefaultPreferences() {
		t.Errorf("Expected defaults, got %+v", got)
	}
	if got := row.GetRecentFiles(); len(got) != 0 {
		t.Errorf("Expected empty recent list, got %v", got)
	}
}
