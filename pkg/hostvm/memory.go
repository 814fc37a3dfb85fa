// Package hostvm is a reference host for the invocation trap: it decodes
// call frames exactly as the VM's sol_invoke_signed_c syscall does, enforces
// the caller's privileges, and runs a registered callee program over the
// caller's memory. It exists so the entry points can be exercised
// end-to-end without a real VM.
package hostvm

import (
	"errors"
	"unsafe"
)

var ErrBadAccess = errors.New("bad memory access")

// Memory is the host's view of the calling program's address space.
type Memory interface {
	Translate(addr uint64, size uint64, write bool) ([]byte, error)
}

// RawMemory translates guest addresses 1:1 to host addresses: the reference
// host runs in the same process as the caller, so the raw addresses in the
// call frame are directly dereferenceable.
type RawMemory struct{}

func (RawMemory) Translate(addr uint64, size uint64, write bool) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if addr == 0 {
		return nil, ErrBadAccess
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), size), nil
}
