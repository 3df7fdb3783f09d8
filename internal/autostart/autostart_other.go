//go:build !windows

package autostart

import "fmt"

func enableWindows() error {
	return fmt.Errorf("not on windows")
}

func disableWindows() error {
	return fmt.Errorf("not on windows")
}

func isEnabledWindows() bool {
	return false
}
