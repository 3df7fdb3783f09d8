// Package sysdll locates the genuine system input library and resolves its
// creation entry point. The resolved address is cached process-wide on
// success; a failed load is not cached, so a later call gets to retry.
package sysdll

import (
	"errors"
	"sync"
)

// ErrUnsupported is returned on platforms without the system input library.
var ErrUnsupported = errors.New("sysdll: dinput8 passthrough requires windows")

// loader is a process-wide lazy resolver. Success is remembered forever;
// failure leaves the loader untouched so the next call retries. The mutex is
// held across the resolve so concurrent first uses converge on one attempt.
type loader struct {
	mu      sync.Mutex
	addr    uintptr
	resolve func() (uintptr, error)
}

func (l *loader) get() (uintptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addr != 0 {
		return l.addr, nil
	}
	addr, err := l.resolve()
	if err != nil {
		return 0, err
	}
	l.addr = addr
	return addr, nil
}

var create = loader{resolve: resolveCreate}

// DirectInput8Create returns the address of the genuine library's creation
// export, loading the library from the system directory on first use.
func DirectInput8Create() (uintptr, error) {
	return create.get()
}
