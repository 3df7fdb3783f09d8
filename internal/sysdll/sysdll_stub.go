//go:build !windows

package sysdll

func resolveCreate() (uintptr, error) {
	return 0, ErrUnsupported
}
