package cpi

import (
	"unsafe"

	"go.solift.io/solift/pkg/abi"
)

// callFrame is the transient argument block for one trap: the instruction
// header, the account meta and account info arrays, and the signer seeds
// descriptors, all laid out in one exactly-sized allocation. Every address
// field points either into that allocation or at memory the caller already
// owns; nothing is duplicated.
//
// The frame holds Go references to everything its raw addresses point at,
// so the referents stay reachable until the trap returns. It must not be
// retained after the call.
type callFrame struct {
	buf []byte

	instructionAddr  uint64
	accountInfosAddr uint64
	accountInfosLen  uint64
	signerSeedsAddr  uint64
	signerSeedsLen   uint64

	ix           *Instruction
	accounts     []*AccountHandle
	signersSeeds [][][]byte
}

func rawAddr(p unsafe.Pointer) uint64 {
	return uint64(uintptr(p))
}

// sliceAddr returns the address of a byte slice's backing array. Empty
// slices get the fallback address so the host always sees a well-formed
// (addr, 0) pair instead of a null pointer.
func sliceAddr(b []byte, fallback uint64) uint64 {
	if len(b) == 0 {
		return fallback
	}
	return rawAddr(unsafe.Pointer(unsafe.SliceData(b)))
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// buildCallFrame lays out the trap arguments over the resolved accounts.
// resolved must be parallel to ix.Accounts; all account lookups are
// complete by the time any address is captured here, so the addresses stay
// valid for the life of the frame.
func buildCallFrame(ix *Instruction, resolved []*AccountHandle, signersSeeds [][][]byte) *callFrame {
	nAccounts := len(ix.Accounts)
	nGroups := len(signersSeeds)
	nSeeds := 0
	for _, group := range signersSeeds {
		nSeeds += len(group)
	}

	metasOff := abi.SolInstructionSize
	infosOff := metasOff + nAccounts*abi.SolAccountMetaSize
	outerOff := infosOff + nAccounts*abi.SolAccountInfoSize
	innerOff := outerOff + nGroups*abi.VectorDescrSize
	total := innerOff + nSeeds*abi.VectorDescrSize

	frame := &callFrame{
		buf:          make([]byte, total),
		ix:           ix,
		accounts:     resolved,
		signersSeeds: signersSeeds,
	}
	base := rawAddr(unsafe.Pointer(unsafe.SliceData(frame.buf)))

	instr := abi.SolInstruction{
		ProgramIdAddr: rawAddr(unsafe.Pointer(&ix.ProgramId)),
		AccountsAddr:  base + uint64(metasOff),
		AccountsLen:   uint64(nAccounts),
		DataAddr:      sliceAddr(ix.Data, base),
		DataLen:       uint64(len(ix.Data)),
	}
	instr.MarshalInto(frame.buf)

	for i := range ix.Accounts {
		meta := abi.SolAccountMeta{
			PubkeyAddr: rawAddr(unsafe.Pointer(&ix.Accounts[i].Pubkey)),
			IsSigner:   boolToByte(ix.Accounts[i].IsSigner),
			IsWritable: boolToByte(ix.Accounts[i].IsWritable),
		}
		meta.MarshalInto(frame.buf[metasOff+i*abi.SolAccountMetaSize:])
	}

	for i, acct := range resolved {
		info := abi.SolAccountInfo{
			KeyAddr:      rawAddr(unsafe.Pointer(&acct.Key)),
			LamportsAddr: rawAddr(unsafe.Pointer(acct.Lamports)),
			DataLen:      uint64(len(acct.Data)),
			DataAddr:     sliceAddr(acct.Data, base),
			OwnerAddr:    rawAddr(unsafe.Pointer(&acct.Owner)),
			RentEpoch:    acct.RentEpoch,
			IsSigner:     boolToByte(acct.IsSigner),
			IsWritable:   boolToByte(acct.IsWritable),
			Executable:   boolToByte(acct.Executable),
		}
		info.MarshalInto(frame.buf[infosOff+i*abi.SolAccountInfoSize:])
	}

	innerCursor := innerOff
	for gi, group := range signersSeeds {
		outer := abi.VectorDescr{
			Addr: base + uint64(innerCursor),
			Len:  uint64(len(group)),
		}
		outer.MarshalInto(frame.buf[outerOff+gi*abi.VectorDescrSize:])

		for _, seed := range group {
			descr := abi.VectorDescr{
				Addr: sliceAddr(seed, base),
				Len:  uint64(len(seed)),
			}
			descr.MarshalInto(frame.buf[innerCursor:])
			innerCursor += abi.VectorDescrSize
		}
	}

	frame.instructionAddr = base
	frame.accountInfosAddr = base + uint64(infosOff)
	frame.accountInfosLen = uint64(nAccounts)
	frame.signerSeedsAddr = base + uint64(outerOff)
	frame.signerSeedsLen = uint64(nGroups)
	return frame
}
