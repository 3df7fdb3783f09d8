// Package hotkey provides global system-wide hotkey monitoring, used for the
// suppression toggle.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Manager handles global hotkey registration and matching
type Manager struct {
	mu           sync.RWMutex
	hotkeys      []*registeredHotkey
	currentState map[string]bool // map of currently pressed keys
}

type registeredHotkey struct {
	parts    []string // e.g., ["CTRL", "ALT", "F9"]
	original string
	callback func()
}

// NewManager creates a new hotkey manager
func NewManager() *Manager {
	return &Manager{
		currentState: make(map[string]bool),
	}
}

// Register registers a hotkey string (e.g. "Ctrl+Alt+F9") and a callback.
// An empty string registers nothing.
func (m *Manager) Register(hotkeyStr string, callback func()) (int, error) {
	if hotkeyStr == "" {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.Split(strings.ToUpper(hotkeyStr), "+")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return 0, fmt.Errorf("hotkey: empty key in %q", hotkeyStr)
		}
	}

	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: hotkeyStr,
		callback: callback,
	})

	return len(m.hotkeys) - 1, nil
}

// Clear removes all registered hotkeys
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
}

// UpdateState updates the internal state of a key and checks for matches.
func (m *Manager) UpdateState(key string, isDown bool) {
	m.mu.Lock()
	key = strings.ToUpper(key)
	if isDown {
		m.currentState[key] = true
	} else {
		delete(m.currentState, key)
	}
	m.mu.Unlock()

	if isDown {
		m.checkMatches()
	}
}

func (m *Manager) checkMatches() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, hk := range m.hotkeys {
		match := true
		// All parts of the hotkey must be in currentState
		for _, part := range hk.parts {
			if !m.currentState[part] {
				match = false
				break
			}
		}

		if match {
			log.Printf("Hotkey triggered: %s", hk.original)
			go hk.callback()
		}
	}
}

// Start initiates the platform-specific global keyboard hook.
// This is implemented in platform-specific files.
func (m *Manager) Start() error {
	return m.startPlatform()
}
