package sysdll

import (
	"errors"
	"runtime"
	"testing"
)

// TestLoaderCachesSuccess verifies a successful resolve happens once.
func TestLoaderCachesSuccess(t *testing.T) {
	calls := 0
	l := loader{resolve: func() (uintptr, error) {
		calls++
		return 0xBEEF, nil
	}}

	for i := 0; i < 3; i++ {
		addr, err := l.get()
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if addr != 0xBEEF {
			t.Fatalf("addr = %#x", addr)
		}
	}
	if calls != 1 {
		t.Errorf("resolve called %d times, want 1", calls)
	}
}

// TestLoaderRetriesAfterFailure verifies failure is not cached: a later call
// retries the load and can succeed.
func TestLoaderRetriesAfterFailure(t *testing.T) {
	boom := errors.New("no library")
	calls := 0
	l := loader{resolve: func() (uintptr, error) {
		calls++
		if calls < 3 {
			return 0, boom
		}
		return 0xF00D, nil
	}}

	for i := 0; i < 2; i++ {
		if _, err := l.get(); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: err = %v, want %v", i+1, err, boom)
		}
	}
	addr, err := l.get()
	if err != nil {
		t.Fatalf("retry after failure did not succeed: %v", err)
	}
	if addr != 0xF00D {
		t.Fatalf("addr = %#x", addr)
	}
	if calls != 3 {
		t.Errorf("resolve called %d times, want 3", calls)
	}
}

// TestStubUnsupported verifies the non-windows resolver reports the sentinel.
func TestStubUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub resolver not built on windows")
	}
	if _, err := DirectInput8Create(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}
