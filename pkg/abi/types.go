// Package abi defines the C-ABI structures consumed by the host's invocation
// trap. Every Addr field is a raw address into the calling program's memory;
// the structures themselves are packed little-endian with no padding.
package abi

import (
	"encoding/binary"
	"io"
)

const SolInstructionSize = 40

// SolInstruction is the instruction header handed to the trap: the target
// program id plus (addr, len) pairs for the account metas and the payload.
type SolInstruction struct {
	ProgramIdAddr uint64
	AccountsAddr  uint64
	AccountsLen   uint64
	DataAddr      uint64
	DataLen       uint64
}

const SolAccountMetaSize = 10

type SolAccountMeta struct {
	PubkeyAddr uint64
	IsSigner   byte
	IsWritable byte
}

const SolAccountInfoSize = 51

// SolAccountInfo describes one account to the callee. LamportsAddr, DataAddr
// and OwnerAddr point at the caller's own cells, so callee mutations are
// visible to the caller without any copy-back.
type SolAccountInfo struct {
	KeyAddr      uint64
	LamportsAddr uint64
	DataLen      uint64
	DataAddr     uint64
	OwnerAddr    uint64
	RentEpoch    uint64
	IsSigner     byte
	IsWritable   byte
	Executable   byte
}

const VectorDescrSize = 16

// VectorDescr is the (addr, len) pair used for the signer seeds encoding:
// the outer array holds one descriptor per seed group, each pointing at an
// array of descriptors for that group's seed byte slices.
type VectorDescr struct {
	Addr uint64
	Len  uint64
}

func (solInstr *SolInstruction) MarshalInto(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:], solInstr.ProgramIdAddr)
	binary.LittleEndian.PutUint64(buf[8:], solInstr.AccountsAddr)
	binary.LittleEndian.PutUint64(buf[16:], solInstr.AccountsLen)
	binary.LittleEndian.PutUint64(buf[24:], solInstr.DataAddr)
	binary.LittleEndian.PutUint64(buf[32:], solInstr.DataLen)
}

func (accountMeta *SolAccountMeta) MarshalInto(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:], accountMeta.PubkeyAddr)
	buf[8] = accountMeta.IsSigner
	buf[9] = accountMeta.IsWritable
}

func (accountInfo *SolAccountInfo) MarshalInto(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:], accountInfo.KeyAddr)
	binary.LittleEndian.PutUint64(buf[8:], accountInfo.LamportsAddr)
	binary.LittleEndian.PutUint64(buf[16:], accountInfo.DataLen)
	binary.LittleEndian.PutUint64(buf[24:], accountInfo.DataAddr)
	binary.LittleEndian.PutUint64(buf[32:], accountInfo.OwnerAddr)
	binary.LittleEndian.PutUint64(buf[40:], accountInfo.RentEpoch)
	buf[48] = accountInfo.IsSigner
	buf[49] = accountInfo.IsWritable
	buf[50] = accountInfo.Executable
}

func (vectorDescr *VectorDescr) MarshalInto(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:], vectorDescr.Addr)
	binary.LittleEndian.PutUint64(buf[8:], vectorDescr.Len)
}

func (solInstr *SolInstruction) Unmarshal(buf io.Reader) error {
	err := binary.Read(buf, binary.LittleEndian, &solInstr.ProgramIdAddr)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &solInstr.AccountsAddr)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &solInstr.AccountsLen)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &solInstr.DataAddr)
	if err != nil {
		return err
	}

	return binary.Read(buf, binary.LittleEndian, &solInstr.DataLen)
}

func (accountMeta *SolAccountMeta) Unmarshal(buf io.Reader) error {
	err := binary.Read(buf, binary.LittleEndian, &accountMeta.PubkeyAddr)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &accountMeta.IsSigner)
	if err != nil {
		return err
	}

	return binary.Read(buf, binary.LittleEndian, &accountMeta.IsWritable)
}

func (accountInfo *SolAccountInfo) Unmarshal(buf io.Reader) error {
	err := binary.Read(buf, binary.LittleEndian, &accountInfo.KeyAddr)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &accountInfo.LamportsAddr)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &accountInfo.DataLen)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &accountInfo.DataAddr)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &accountInfo.OwnerAddr)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &accountInfo.RentEpoch)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &accountInfo.IsSigner)
	if err != nil {
		return err
	}

	err = binary.Read(buf, binary.LittleEndian, &accountInfo.IsWritable)
	if err != nil {
		return err
	}

	return binary.Read(buf, binary.LittleEndian, &accountInfo.Executable)
}

func (vectorDescr *VectorDescr) Unmarshal(buf io.Reader) error {
	err := binary.Read(buf, binary.LittleEndian, &vectorDescr.Addr)
	if err != nil {
		return err
	}

	return binary.Read(buf, binary.LittleEndian, &vectorDescr.Len)
}
