//go:build windows

package main

import (
	"syscall"

	"github.com/lxn/win"
)

// alert raises a message box; when launched from the shell the tray app has
// no console for errors.
func alert(title, text string) {
	t, _ := syscall.UTF16PtrFromString(text)
	c, _ := syscall.UTF16PtrFromString(title)
	win.MessageBox(0, t, c, win.MB_OK|win.MB_ICONERROR)
}
