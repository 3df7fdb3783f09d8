package hotkey

import (
	"testing"
	"time"
)

// TestRegisterAndMatch verifies a chord fires exactly when all keys are held.
func TestRegisterAndMatch(t *testing.T) {
	m := NewManager()
	fired := make(chan struct{}, 4)
	if _, err := m.Register("Ctrl+Alt+F9", func() { fired <- struct{}{} }); err != nil {
		t.Fatal(err)
	}

	m.UpdateState("ctrl", true)
	m.UpdateState("alt", true)
	select {
	case <-fired:
		t.Fatal("fired before the chord was complete")
	case <-time.After(50 * time.Millisecond):
	}

	m.UpdateState("f9", true)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("chord did not fire")
	}
}

// TestReleaseBreaksChord verifies a released modifier stops further matches.
func TestReleaseBreaksChord(t *testing.T) {
	m := NewManager()
	fired := make(chan struct{}, 4)
	if _, err := m.Register("Ctrl+F9", func() { fired <- struct{}{} }); err != nil {
		t.Fatal(err)
	}

	m.UpdateState("ctrl", true)
	m.UpdateState("f9", true)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("chord did not fire")
	}

	m.UpdateState("ctrl", false)
	m.UpdateState("f9", false)
	m.UpdateState("f9", true)
	select {
	case <-fired:
		t.Fatal("fired without the modifier held")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestEmptyAndMalformed verifies registration edge cases.
func TestEmptyAndMalformed(t *testing.T) {
	m := NewManager()
	if _, err := m.Register("", func() {}); err != nil {
		t.Errorf("empty hotkey should be a no-op, got %v", err)
	}
	if _, err := m.Register("Ctrl++F9", func() {}); err == nil {
		t.Error("double separator should be rejected")
	}
}

// TestClear verifies cleared hotkeys no longer fire.
func TestClear(t *testing.T) {
	m := NewManager()
	fired := make(chan struct{}, 1)
	if _, err := m.Register("F9", func() { fired <- struct{}{} }); err != nil {
		t.Fatal(err)
	}
	m.Clear()

	m.UpdateState("f9", true)
	select {
	case <-fired:
		t.Fatal("cleared hotkey fired")
	case <-time.After(50 * time.Millisecond):
	}
}
