package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/doodle/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
}

func capture(t *testing.T) *[]sent {
	t.Helper()
	var got []sent
	prev := send
	send = func(title, body string, opts platform.Options) error {
		got = append(got, sent{title, body, opts})
		return nil
	}
	t.Cleanup(func() { send = prev })
	return &got
}

func TestDisabledEventsAreSilent(t *testing.T) {
	got := capture(t)
	n := New(DefaultPreferences())
	n.Save("x.png")
	n.Copy("")
	var nilNotifier *Notifier
	nilNotifier.Copy("x")
	nilNotifier.Enable(EventCopy, true)
	if len(*got) != 0 {
		t.Fatalf("sent %d notifications, want 0", len(*got))
	}
}

func TestCopyNotification(t *testing.T) {
	got := capture(t)
	n := New(DefaultPreferences())
	n.Enable(EventCopy, true)
	n.Copy("")
	if len(*got) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(*got))
	}
	if (*got)[0].title != "Doodle" || (*got)[0].body != "Copied drawing to clipboard" {
		t.Fatalf("notification = %+v", (*got)[0])
	}
}

func TestSaveUsesFileAsIcon(t *testing.T) {
	got := capture(t)
	path := filepath.Join(t.TempDir(), "drawing.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	n := New(DefaultPreferences())
	n.Enable(EventSave, true)
	n.Save(path)
	if len(*got) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(*got))
	}
	if (*got)[0].opts.IconPath != path || (*got)[0].body != "Saved "+path {
		t.Fatalf("notification = %+v", (*got)[0])
	}
}

func TestLoadPreferencesEnv(t *testing.T) {
	t.Setenv("DOODLE_NOTIFY_TITLE", "Sketch")
	t.Setenv("DOODLE_NOTIFY_SAVE_TEXT", "Wrote %s")
	prefs := LoadPreferences()
	if prefs.Title != "Sketch" || prefs.Events[EventSave].Template != "Wrote %s" {
		t.Fatalf("prefs = %+v", prefs)
	}
	if prefs.Events[EventCopy].Template != "Copied %s to clipboard" {
		t.Fatalf("copy template overwritten: %q", prefs.Events[EventCopy].Template)
	}
}
