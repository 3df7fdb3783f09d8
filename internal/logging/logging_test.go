package logging

import (
	"os"
	"testing"
)

// TestEnabledGate checks the accepted values of the gate variable.
func TestEnabledGate(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"no", false},
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"True", true},
	}
	for _, tc := range cases {
		t.Setenv(EnvEnable, tc.value)
		if got := Enabled(); got != tc.want {
			t.Errorf("Enabled() with %q = %v, want %v", tc.value, got, tc.want)
		}
	}
}

// TestNewWritesTimestampedLines checks the sink logger produces output.
func TestNewWritesTimestampedLines(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	l := New(f)
	l.Printf("wrapper attached")

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("nothing written")
	}
	if string(data[len(data)-len("wrapper attached\n"):]) != "wrapper attached\n" {
		t.Errorf("unexpected line: %q", data)
	}
}
