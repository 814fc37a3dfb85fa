package cpi

import "runtime"

// Invoke performs a cross-program invocation after re-validating that the
// instruction requests no privilege the caller does not hold and that no
// conflicting account borrows are outstanding.
func (rt *Runtime) Invoke(ix *Instruction, accounts []*AccountHandle) error {
	return rt.InvokeSigned(ix, accounts, nil)
}

// InvokeUnchecked performs a cross-program invocation without local
// re-validation; the host rejects privilege escalation instead. This is the
// only behavioral difference from Invoke.
func (rt *Runtime) InvokeUnchecked(ix *Instruction, accounts []*AccountHandle) error {
	return rt.InvokeSignedUnchecked(ix, accounts, nil)
}

// InvokeSigned is Invoke with signer seed groups: any account whose address
// derives from one of the groups under the caller's program id counts as a
// signer for this call.
func (rt *Runtime) InvokeSigned(ix *Instruction, accounts []*AccountHandle, signersSeeds [][][]byte) error {
	if err := checkBorrowConsistency(ix, accounts); err != nil {
		return err
	}

	resolved, err := resolveAccounts(ix, accounts)
	if err != nil {
		return err
	}

	derivedSigners, err := deriveSigners(rt.programID, signersSeeds)
	if err != nil {
		return err
	}

	if err = rt.consume(uint64(len(ix.Accounts)) * CUCpiPrivilegeCheckUnits); err != nil {
		return err
	}

	if err = checkPrivileges(ix, resolved, derivedSigners); err != nil {
		return err
	}

	return rt.dispatch(ix, resolved, signersSeeds)
}

// InvokeSignedUnchecked is InvokeUnchecked with signer seed groups.
func (rt *Runtime) InvokeSignedUnchecked(ix *Instruction, accounts []*AccountHandle, signersSeeds [][][]byte) error {
	resolved, err := resolveAccounts(ix, accounts)
	if err != nil {
		return err
	}

	return rt.dispatch(ix, resolved, signersSeeds)
}

// dispatch builds the call frame and issues the single host trap. On
// success there is nothing to write back: the frame pointed at the caller's
// own lamport cells and data buffers, so callee mutations are already
// visible through the handles.
func (rt *Runtime) dispatch(ix *Instruction, resolved []*AccountHandle, signersSeeds [][][]byte) error {
	frame := buildCallFrame(ix, resolved, signersSeeds)

	status := rt.trap.InvokeSigned(
		frame.instructionAddr,
		frame.accountInfosAddr,
		frame.accountInfosLen,
		frame.signerSeedsAddr,
		frame.signerSeedsLen,
	)
	runtime.KeepAlive(frame)

	return DecodeStatus(status)
}

func (rt *Runtime) consume(cost uint64) error {
	if rt.meter == nil {
		return nil
	}
	return rt.meter.Consume(cost)
}
