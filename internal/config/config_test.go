package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaults pins the out-of-the-box behavior to the original wrapper.
func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Target.Category != 0x18 || cfg.Target.SubCategory != 0x02 {
		t.Errorf("default target = %+v", cfg.Target)
	}
	if !cfg.Suppress.RotX || !cfg.Suppress.RotY {
		t.Errorf("default suppression = %+v", cfg.Suppress)
	}
}

// TestLoadMissingFileKeepsDefaults verifies a missing file is not an error.
func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "nope.json"))
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *m.Get() != *DefaultConfig() {
		t.Errorf("config changed without a file: %+v", m.Get())
	}
}

// TestFileOverridesDefaults verifies file values land.
func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	data := []byte(`{"target":{"category":20,"sub_category":1},"suppress":{"rot_x":true,"rot_y":false}}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManagerAt(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := m.Get()
	if cfg.Target.Category != 20 || cfg.Target.SubCategory != 1 {
		t.Errorf("target = %+v", cfg.Target)
	}
	if !cfg.Suppress.RotX || cfg.Suppress.RotY {
		t.Errorf("suppress = %+v", cfg.Suppress)
	}
}

// TestEnvOverridesFile verifies the precedence order: env over file over
// defaults.
func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	data := []byte(`{"target":{"category":20,"sub_category":1}}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvTargetDevType, "0x0318")
	t.Setenv(EnvSuppress, "ry")

	m := NewManagerAt(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := m.Get()
	if cfg.Target.Category != 0x18 || cfg.Target.SubCategory != 0x03 {
		t.Errorf("env target override missed: %+v", cfg.Target)
	}
	if cfg.Suppress.RotX || !cfg.Suppress.RotY {
		t.Errorf("env suppress override missed: %+v", cfg.Suppress)
	}
}

// TestEnvSuppressOff verifies "off" disables both axes.
func TestEnvSuppressOff(t *testing.T) {
	t.Setenv(EnvSuppress, "off")
	m := NewManagerAt(filepath.Join(t.TempDir(), "nope.json"))
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Get().Suppress != (SuppressConfig{}) {
		t.Errorf("suppress = %+v, want none", m.Get().Suppress)
	}
}

// TestBadEnvValueFails verifies malformed overrides are reported.
func TestBadEnvValueFails(t *testing.T) {
	t.Setenv(EnvTargetDevType, "zzzz")
	m := NewManagerAt(filepath.Join(t.TempDir(), "nope.json"))
	if err := m.Load(); err == nil {
		t.Fatal("malformed device type accepted")
	}

	t.Setenv(EnvTargetDevType, "")
	t.Setenv(EnvSuppress, "rz")
	if err := m.Load(); err == nil {
		t.Fatal("unknown suppress axis accepted")
	}
}

// TestSaveRoundTrip verifies save/load symmetry.
func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	m := NewManagerAt(path)
	cfg := DefaultConfig()
	cfg.Monitor.APIPort = 9999
	cfg.Monitor.APIToken = "secret"
	m.Set(cfg)
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m2 := NewManagerAt(path)
	if err := m2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *m2.Get() != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", m2.Get(), cfg)
	}
}
