package hostvm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"go.solift.io/solift/pkg/cpi"
	"go.solift.io/solift/pkg/safemath"
)

// BorrowedAccount is the host's handle on one account for the duration of a
// callee's execution. Its lamport, data and owner views alias the calling
// program's own memory, so every mutation made here is immediately visible
// to the caller.
type BorrowedAccount struct {
	Key        solana.PublicKey
	lamports   []byte // 8-byte little-endian cell
	data       []byte
	owner      []byte // 32 bytes
	IsSigner   bool   // effective: includes signer-seed elevation
	IsWritable bool
	Executable bool
	RentEpoch  uint64
}

func (acct *BorrowedAccount) Lamports() uint64 {
	return binary.LittleEndian.Uint64(acct.lamports)
}

func (acct *BorrowedAccount) setLamports(v uint64) {
	binary.LittleEndian.PutUint64(acct.lamports, v)
}

func (acct *BorrowedAccount) CheckedAddLamports(amount uint64) error {
	sum, err := safemath.CheckedAddU64(acct.Lamports(), amount)
	if err != nil {
		return cpi.ErrInvalidArgument
	}
	acct.setLamports(sum)
	return nil
}

func (acct *BorrowedAccount) CheckedSubLamports(amount uint64) error {
	diff, err := safemath.CheckedSubU64(acct.Lamports(), amount)
	if err != nil {
		return cpi.ErrInsufficientFunds
	}
	acct.setLamports(diff)
	return nil
}

func (acct *BorrowedAccount) Data() []byte {
	return acct.data
}

func (acct *BorrowedAccount) Owner() solana.PublicKey {
	return solana.PublicKeyFromBytes(acct.owner)
}

func (acct *BorrowedAccount) SetOwner(owner solana.PublicKey) {
	copy(acct.owner, owner[:])
}
