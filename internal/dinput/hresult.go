package dinput

import (
	ole "github.com/go-ole/go-ole"
)

// Result codes surfaced by the wrapper. Failures coming out of the real
// implementation are carried verbatim; the wrapper itself only ever produces
// EFail (library load/resolve failure) and ENoInterface.
const (
	SOK          = 0x00000000
	SFalse       = 0x00000001
	ENoInterface = 0x80004002
	EFail        = 0x80004005
	EPointer     = 0x80004003
)

// Succeeded reports whether a result code signals success (non-negative
// HRESULT).
func Succeeded(hr uintptr) bool {
	return int32(hr) >= 0
}

// ErrorOf converts a result code into an error value: nil on success, an
// *ole.OleError carrying the exact code otherwise.
func ErrorOf(hr uintptr) error {
	if Succeeded(hr) {
		return nil
	}
	return ole.NewError(hr)
}

// ResultOf performs the reverse mapping for results crossing back into the
// COM boundary. Errors that do not carry a result code collapse to EFail;
// the wrapper introduces no error categories of its own.
func ResultOf(err error) uintptr {
	if err == nil {
		return SOK
	}
	if oleErr, ok := err.(*ole.OleError); ok {
		return oleErr.Code()
	}
	return EFail
}
