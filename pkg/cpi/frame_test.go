package cpi

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.solift.io/solift/pkg/abi"
)

func readMem(t *testing.T, addr uint64, size uint64) []byte {
	t.Helper()
	if size == 0 {
		return nil
	}
	require.NotZero(t, addr)
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), size)
}

func TestBuildCallFrameLayout(t *testing.T) {
	program := solana.NewWallet().PublicKey()
	keyA := solana.NewWallet().PublicKey()
	keyB := solana.NewWallet().PublicKey()

	lamportsA := uint64(500)
	lamportsB := uint64(900)
	acctA := NewAccountHandle(keyA, solana.SystemProgramID, &lamportsA, []byte{1, 2, 3, 4})
	acctA.IsSigner = true
	acctA.IsWritable = true
	acctB := NewAccountHandle(keyB, solana.SystemProgramID, &lamportsB, nil)
	acctB.IsWritable = true

	ix := &Instruction{
		ProgramId: program,
		Accounts: []AccountMeta{
			{Pubkey: keyA, IsSigner: true, IsWritable: true},
			{Pubkey: keyB, IsWritable: true},
		},
		Data: []byte{9, 8, 7},
	}
	seeds := [][][]byte{{[]byte("vault"), {42}}}

	frame := buildCallFrame(ix, []*AccountHandle{acctA, acctB}, seeds)

	// Exactly one allocation, sized to the call.
	wantSize := abi.SolInstructionSize +
		2*abi.SolAccountMetaSize +
		2*abi.SolAccountInfoSize +
		1*abi.VectorDescrSize +
		2*abi.VectorDescrSize
	assert.Equal(t, wantSize, len(frame.buf))

	var instr abi.SolInstruction
	require.NoError(t, instr.Unmarshal(bytes.NewReader(readMem(t, frame.instructionAddr, abi.SolInstructionSize))))
	assert.Equal(t, uint64(2), instr.AccountsLen)
	assert.Equal(t, uint64(3), instr.DataLen)

	// The header references the caller's memory, not copies of it.
	assert.Equal(t, program[:], readMem(t, instr.ProgramIdAddr, 32))
	assert.Equal(t, ix.Data, readMem(t, instr.DataAddr, instr.DataLen))

	metas := bytes.NewReader(readMem(t, instr.AccountsAddr, 2*abi.SolAccountMetaSize))
	var metaA, metaB abi.SolAccountMeta
	require.NoError(t, metaA.Unmarshal(metas))
	require.NoError(t, metaB.Unmarshal(metas))
	assert.Equal(t, keyA[:], readMem(t, metaA.PubkeyAddr, 32))
	assert.Equal(t, byte(1), metaA.IsSigner)
	assert.Equal(t, byte(1), metaA.IsWritable)
	assert.Equal(t, keyB[:], readMem(t, metaB.PubkeyAddr, 32))
	assert.Equal(t, byte(0), metaB.IsSigner)

	infos := bytes.NewReader(readMem(t, frame.accountInfosAddr, 2*abi.SolAccountInfoSize))
	var infoA, infoB abi.SolAccountInfo
	require.NoError(t, infoA.Unmarshal(infos))
	require.NoError(t, infoB.Unmarshal(infos))

	// Writing through the frame's raw addresses mutates the handles: the
	// descriptors alias the caller's cells.
	binary.LittleEndian.PutUint64(readMem(t, infoA.LamportsAddr, 8), 777)
	assert.Equal(t, uint64(777), lamportsA)
	readMem(t, infoA.DataAddr, infoA.DataLen)[0] = 0xAA
	assert.Equal(t, byte(0xAA), acctA.Data[0])

	// Zero-length data still gets a well-formed descriptor.
	assert.Equal(t, uint64(0), infoB.DataLen)
	assert.NotZero(t, infoB.DataAddr)
	assert.Equal(t, keyB[:], readMem(t, infoB.KeyAddr, 32))

	// Seeds: outer descriptor chain leads to the caller's seed bytes.
	var outer abi.VectorDescr
	require.NoError(t, outer.Unmarshal(bytes.NewReader(readMem(t, frame.signerSeedsAddr, abi.VectorDescrSize))))
	assert.Equal(t, uint64(2), outer.Len)

	inner := bytes.NewReader(readMem(t, outer.Addr, 2*abi.VectorDescrSize))
	var seed0, seed1 abi.VectorDescr
	require.NoError(t, seed0.Unmarshal(inner))
	require.NoError(t, seed1.Unmarshal(inner))
	assert.Equal(t, []byte("vault"), readMem(t, seed0.Addr, seed0.Len))
	assert.Equal(t, []byte{42}, readMem(t, seed1.Addr, seed1.Len))
}

func TestBuildCallFrameEmpty(t *testing.T) {
	ix := &Instruction{ProgramId: solana.NewWallet().PublicKey()}

	frame := buildCallFrame(ix, nil, nil)
	assert.Equal(t, abi.SolInstructionSize, len(frame.buf))

	var instr abi.SolInstruction
	require.NoError(t, instr.Unmarshal(bytes.NewReader(readMem(t, frame.instructionAddr, abi.SolInstructionSize))))
	assert.Equal(t, uint64(0), instr.AccountsLen)
	assert.Equal(t, uint64(0), instr.DataLen)
	assert.NotZero(t, instr.AccountsAddr)
	assert.NotZero(t, instr.DataAddr)
	assert.Equal(t, uint64(0), frame.accountInfosLen)
	assert.Equal(t, uint64(0), frame.signerSeedsLen)
	assert.NotZero(t, frame.accountInfosAddr)
	assert.NotZero(t, frame.signerSeedsAddr)
}
