package cpi

import (
	"github.com/gagliardetto/solana-go"

	solift "go.solift.io/solift/pkg/solana"
)

// deriveSigners computes the program-derived address of every seed group
// under the caller's program id. An account whose address matches one of
// these is treated as a signer for the call even when its handle is not.
func deriveSigners(programID solana.PublicKey, signersSeeds [][][]byte) (map[solana.PublicKey]struct{}, error) {
	if len(signersSeeds) == 0 {
		return nil, nil
	}
	if len(signersSeeds) > MaxSigners {
		return nil, ErrTooManySigners
	}

	derived := make(map[solana.PublicKey]struct{}, len(signersSeeds))
	for _, seeds := range signersSeeds {
		pda, err := solift.CreateProgramAddress(seeds, programID)
		if err != nil {
			return nil, err
		}
		derived[pda] = struct{}{}
	}
	return derived, nil
}

// checkPrivileges enforces that the instruction requests no privilege the
// caller does not hold. The flags presented to the host are always the
// instruction's own; when this check passes they are already the
// intersection of request and grant, so nothing is rewritten. The unchecked
// entry points skip this entirely and let the host reject escalation.
func checkPrivileges(ix *Instruction, resolved []*AccountHandle, derivedSigners map[solana.PublicKey]struct{}) error {
	for i := range ix.Accounts {
		meta := &ix.Accounts[i]
		acct := resolved[i]

		if meta.IsWritable && !acct.IsWritable {
			return ErrPrivilegeEscalation
		}
		if meta.IsSigner && !acct.IsSigner {
			if _, ok := derivedSigners[meta.Pubkey]; !ok {
				return ErrPrivilegeEscalation
			}
		}
	}
	return nil
}
