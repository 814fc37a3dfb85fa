package cpi

// The baseline entry points reproduce the standard serializing invocation
// path: every byte the trap will look at is first cloned into fresh
// allocations, the trap runs over the clones, and callee mutations are
// copied back into the caller's handles afterwards. Behaviorally identical
// to Invoke; kept as the reference the zero-copy paths are measured
// against.

// InvokeBaseline is the serializing equivalent of Invoke.
func (rt *Runtime) InvokeBaseline(ix *Instruction, accounts []*AccountHandle) error {
	return rt.InvokeSignedBaseline(ix, accounts, nil)
}

// InvokeSignedBaseline is the serializing equivalent of InvokeSigned.
func (rt *Runtime) InvokeSignedBaseline(ix *Instruction, accounts []*AccountHandle, signersSeeds [][][]byte) error {
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

	// Clone the instruction. Metas and payload each cost one buffer copy.
	copyCost := uint64(2*CUMemOpBaseCost) + uint64(len(ix.Data))/CUCpiBytesPerUnit
	ixClone := &Instruction{
		Accounts:  append([]AccountMeta(nil), ix.Accounts...),
		Data:      append([]byte(nil), ix.Data...),
		ProgramId: ix.ProgramId,
	}

	// Clone the accounts, deduplicated so repeated metas share one clone
	// and mutations stay coherent for the copy-back.
	cloneByOrig := make(map[*AccountHandle]*AccountHandle, len(resolved))
	clones := make([]*AccountHandle, len(resolved))
	for i, acct := range resolved {
		clone, ok := cloneByOrig[acct]
		if !ok {
			lamports := *acct.Lamports
			clone = &AccountHandle{
				Key:        acct.Key,
				Owner:      acct.Owner,
				Lamports:   &lamports,
				Data:       append([]byte(nil), acct.Data...),
				IsSigner:   acct.IsSigner,
				IsWritable: acct.IsWritable,
				Executable: acct.Executable,
				RentEpoch:  acct.RentEpoch,
			}
			cloneByOrig[acct] = clone
			copyCost += CUMemOpBaseCost + uint64(len(acct.Data))/CUCpiBytesPerUnit
		}
		clones[i] = clone
	}

	seedsClone := make([][][]byte, len(signersSeeds))
	for gi, group := range signersSeeds {
		seedsClone[gi] = make([][]byte, len(group))
		for si, seed := range group {
			seedsClone[gi][si] = append([]byte(nil), seed...)
			copyCost += CUMemOpBaseCost
		}
	}

	if err = rt.consume(copyCost); err != nil {
		return err
	}

	if err = rt.dispatch(ixClone, clones, seedsClone); err != nil {
		return err
	}

	// Sync callee mutations back into the caller's view.
	for orig, clone := range cloneByOrig {
		*orig.Lamports = *clone.Lamports
		copy(orig.Data, clone.Data)
		orig.Owner = clone.Owner
	}
	return nil
}
