//go:build windows

package sysdll

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// resolveCreate loads dinput8.dll strictly from the system directory and
// resolves DirectInput8Create by name. NewLazySystemDLL refuses to search
// the application directory, which matters here: the wrapper itself is
// typically installed under the same name next to the executable.
func resolveCreate() (uintptr, error) {
	dll := windows.NewLazySystemDLL("dinput8.dll")
	if err := dll.Load(); err != nil {
		return 0, fmt.Errorf("sysdll: loading system dinput8.dll: %w", err)
	}
	proc := dll.NewProc("DirectInput8Create")
	if err := proc.Find(); err != nil {
		return 0, fmt.Errorf("sysdll: resolving DirectInput8Create: %w", err)
	}
	return proc.Addr(), nil
}
