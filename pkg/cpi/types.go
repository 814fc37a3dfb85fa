// Package cpi implements the caller-side cross-program invocation entry
// points. The call frame handed to the host trap is laid out in a single
// allocation over the caller's already-resident account and instruction
// memory; no account data, payload or seed bytes are copied on the fast
// paths.
package cpi

import (
	"github.com/gagliardetto/solana-go"

	"go.solift.io/solift/pkg/cu"
)

type AccountMeta struct {
	Pubkey     solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is the logical instruction to invoke. It is owned by the
// caller and read-only to this package.
type Instruction struct {
	Accounts  []AccountMeta
	Data      []byte
	ProgramId solana.PublicKey
}

// AccountHandle is a non-owning view of an account's live state. The Data
// buffer and the Lamports cell are mutated in place by the callee through
// the addresses captured in the call frame; this package never reallocates
// or copies them. The handle must stay at a stable address for the duration
// of a call, which is why handles are always passed by pointer.
type AccountHandle struct {
	Key        solana.PublicKey
	Owner      solana.PublicKey
	Lamports   *uint64
	Data       []byte
	IsSigner   bool
	IsWritable bool
	Executable bool
	RentEpoch  uint64

	lamportsBorrows borrowCell
	dataBorrows     borrowCell
}

// NewAccountHandle wires up a handle over caller-owned state. The lamports
// cell is shared, not copied.
func NewAccountHandle(key, owner solana.PublicKey, lamports *uint64, data []byte) *AccountHandle {
	return &AccountHandle{Key: key, Owner: owner, Lamports: lamports, Data: data}
}

// Trap is the host's invocation entry: the single call this package issues
// per invocation. It is injected rather than global so tests can substitute
// a fake host.
type Trap interface {
	InvokeSigned(instructionAddr, accountInfosAddr, accountInfosLen, signerSeedsAddr, signerSeedsLen uint64) uint64
}

// TrapFunc adapts a plain function to the Trap interface.
type TrapFunc func(instructionAddr, accountInfosAddr, accountInfosLen, signerSeedsAddr, signerSeedsLen uint64) uint64

func (f TrapFunc) InvokeSigned(instructionAddr, accountInfosAddr, accountInfosLen, signerSeedsAddr, signerSeedsLen uint64) uint64 {
	return f(instructionAddr, accountInfosAddr, accountInfosLen, signerSeedsAddr, signerSeedsLen)
}

// Runtime is the execution context of the calling program: its own program
// id (the base for signer-seed derivations), the host trap, and the compute
// meter the guest-side work is charged against.
type Runtime struct {
	programID solana.PublicKey
	trap      Trap
	meter     *cu.ComputeMeter
}

func NewRuntime(programID solana.PublicKey, trap Trap, meter *cu.ComputeMeter) *Runtime {
	return &Runtime{programID: programID, trap: trap, meter: meter}
}

func (rt *Runtime) ProgramID() solana.PublicKey {
	return rt.programID
}

func (rt *Runtime) ComputeMeter() *cu.ComputeMeter {
	return rt.meter
}
