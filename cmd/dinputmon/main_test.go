package main

import (
	"flag"
	"strings"
	"testing"

	"dinputproxy/internal/autostart"
)

// TestLaunchArgIsDefined pins the start-on-login command line against the
// flag set. An undefined flag makes flag.Parse exit the launched process.
func TestLaunchArgIsDefined(t *testing.T) {
	name := strings.TrimPrefix(autostart.LaunchArg, "-")
	if name == autostart.LaunchArg {
		t.Fatalf("launch arg %q is not a flag", autostart.LaunchArg)
	}
	if flag.Lookup(name) == nil {
		t.Fatalf("autostart launches with %q but no -%s flag is defined", autostart.LaunchArg, name)
	}
}
