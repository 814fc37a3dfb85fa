package cpi

import "errors"

// Errors raised locally, before any host trap is issued. A call that fails
// with one of these has had no externally observable effect.
var (
	// ErrMissingAccount - an instruction meta references an address that is
	// not among the accounts visible to this call.
	ErrMissingAccount = errors.New("ErrMissingAccount")

	// ErrPrivilegeEscalation - a meta requests writable or signer access the
	// caller does not hold and cannot derive from the supplied seeds.
	ErrPrivilegeEscalation = errors.New("ErrPrivilegeEscalation")

	// ErrAccountBorrowOutstanding - an account named by the instruction is
	// still borrowed in a way that conflicts with the requested access.
	ErrAccountBorrowOutstanding = errors.New("ErrAccountBorrowOutstanding")

	// ErrTooManySigners - more signer seed groups than the trap accepts.
	ErrTooManySigners = errors.New("ErrTooManySigners")
)

const MaxSigners = 16
