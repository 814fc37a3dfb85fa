package cpi

import "github.com/gagliardetto/solana-go"

// resolveAccounts maps each instruction meta to the caller-visible handle
// with the same address. The result is parallel to ix.Accounts. Duplicate
// addresses in the meta list resolve to the same handle, so mutations made
// through one occurrence are visible through the others.
func resolveAccounts(ix *Instruction, accounts []*AccountHandle) ([]*AccountHandle, error) {
	byKey := make(map[solana.PublicKey]*AccountHandle, len(accounts))
	for _, acct := range accounts {
		if _, dup := byKey[acct.Key]; !dup {
			byKey[acct.Key] = acct
		}
	}

	resolved := make([]*AccountHandle, len(ix.Accounts))
	for i := range ix.Accounts {
		acct, ok := byKey[ix.Accounts[i].Pubkey]
		if !ok {
			return nil, ErrMissingAccount
		}
		resolved[i] = acct
	}
	return resolved, nil
}
