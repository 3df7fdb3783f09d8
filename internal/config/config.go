// Package config provides configuration management for the wrapper and its
// companion monitor. The shim loads from the working directory of the host
// process, so the file lives next to the executable rather than in a user
// profile, and environment variables override the file for quick experiments
// without touching the game folder.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FileName is the optional configuration file, looked up in the working
// directory.
const FileName = "dinput8-proxy.json"

// EnvTargetDevType overrides the target device type word, as a hex word like
// "0x0218" (sub-category in the high byte, category in the low byte).
const EnvTargetDevType = "DINPUT8_TARGET_DEVTYPE"

// EnvSuppress overrides which rotational axes are suppressed: a comma list
// of "rx" and "ry", or "off" for none.
const EnvSuppress = "DINPUT8_SUPPRESS"

// TargetConfig selects the device class that gets wrapped.
type TargetConfig struct {
	// Category is the coarse device category byte.
	Category uint8 `json:"category"`

	// SubCategory is the sub-category tag byte.
	SubCategory uint8 `json:"sub_category"`
}

// SuppressConfig selects which rotational axis fields are zeroed.
type SuppressConfig struct {
	RotX bool `json:"rot_x"`
	RotY bool `json:"rot_y"`
}

// MonitorConfig contains settings for the companion monitor tool only; the
// shim ignores this section.
type MonitorConfig struct {
	// APIPort is the port for the monitor's HTTP/WebSocket server.
	APIPort int `json:"api_port"`

	// APIToken is an optional bearer token for API requests.
	APIToken string `json:"api_token,omitempty"`

	// PollIntervalMs is the device polling period for the live state feed.
	PollIntervalMs int `json:"poll_interval_ms"`

	// ToggleHotkey flips suppression at runtime (e.g. "Ctrl+Alt+F9").
	ToggleHotkey string `json:"toggle_hotkey,omitempty"`

	// AutoStart starts the monitor on login.
	AutoStart bool `json:"auto_start"`
}

// Config is the complete wrapper configuration.
type Config struct {
	Target   TargetConfig   `json:"target"`
	Suppress SuppressConfig `json:"suppress"`
	Monitor  MonitorConfig  `json:"monitor"`
}

// DefaultConfig returns the configuration matching the original wrapper:
// first-person six-degrees-of-freedom controllers, both rotational axes
// suppressed.
func DefaultConfig() *Config {
	return &Config{
		Target:   TargetConfig{Category: 0x18, SubCategory: 0x02},
		Suppress: SuppressConfig{RotX: true, RotY: true},
		Monitor: MonitorConfig{
			APIPort:        18230,
			PollIntervalMs: 50,
			ToggleHotkey:   "Ctrl+Alt+F9",
		},
	}
}

// Manager handles loading and saving configuration.
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a configuration manager bound to the working-directory
// config file.
func NewManager() *Manager {
	return NewManagerAt(FileName)
}

// NewManagerAt creates a manager bound to an explicit path, for tests and
// the monitor's -config flag.
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// Load reads the configuration file if present, then applies environment
// overrides. A missing file is not an error; the defaults stand.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err == nil {
		if uerr := json.Unmarshal(data, m.config); uerr != nil {
			return fmt.Errorf("config: parsing %s: %w", m.configPath, uerr)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := applyEnv(m.config); err != nil {
		return err
	}
	if m.onChanged != nil {
		m.onChanged()
	}
	return nil
}

// applyEnv layers environment overrides on top of the loaded values.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvTargetDevType); v != "" {
		word, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(v), "0x"), 16, 16)
		if err != nil {
			return fmt.Errorf("config: %s=%q is not a hex device type word: %w", EnvTargetDevType, v, err)
		}
		cfg.Target.Category = uint8(word)
		cfg.Target.SubCategory = uint8(word >> 8)
	}

	if v := os.Getenv(EnvSuppress); v != "" {
		cfg.Suppress = SuppressConfig{}
		for _, part := range strings.Split(strings.ToLower(v), ",") {
			switch strings.TrimSpace(part) {
			case "rx":
				cfg.Suppress.RotX = true
			case "ry":
				cfg.Suppress.RotY = true
			case "off", "":
			default:
				return fmt.Errorf("config: %s contains unknown axis %q", EnvSuppress, part)
			}
		}
	}
	return nil
}

// Save writes the configuration to disk.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set replaces the configuration.
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	m.config = config
	m.mu.Unlock()
	if m.onChanged != nil {
		m.onChanged()
	}
}

// RegisterChangeCallback registers a function called when config changes.
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
