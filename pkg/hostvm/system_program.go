package hostvm

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"

	"go.solift.io/solift/pkg/cpi"
)

var SystemProgramAddr = solana.SystemProgramID

const (
	SystemProgramInstrTypeCreateAccount = iota
	SystemProgramInstrTypeAssign
	SystemProgramInstrTypeTransfer
)

type SystemInstrTransfer struct {
	Lamports uint64
}

func (instr *SystemInstrTransfer) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	instr.Lamports, err = decoder.ReadUint64(bin.LE)
	return err
}

func (instr *SystemInstrTransfer) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteUint64(instr.Lamports, bin.LE)
}

type SystemInstrAssign struct {
	Owner solana.PublicKey
}

func (instr *SystemInstrAssign) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	owner, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(instr.Owner[:], owner)
	return nil
}

func (instr *SystemInstrAssign) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteBytes(instr.Owner[:], false)
}

// NewTransferInstruction moves lamports between two system accounts.
func NewTransferInstruction(from, to solana.PublicKey, lamports uint64) *cpi.Instruction {
	accountMetas := []cpi.AccountMeta{
		{Pubkey: from, IsSigner: true, IsWritable: true},
		{Pubkey: to, IsSigner: false, IsWritable: true},
	}

	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)

	if err := encoder.WriteUint32(SystemProgramInstrTypeTransfer, bin.LE); err != nil {
		panic("shouldn't fail")
	}
	txInstr := SystemInstrTransfer{Lamports: lamports}
	if err := txInstr.MarshalWithEncoder(encoder); err != nil {
		panic("shouldn't fail")
	}

	return &cpi.Instruction{Accounts: accountMetas, Data: buf.Bytes(), ProgramId: SystemProgramAddr}
}

// NewAssignInstruction sets the owning program of an account.
func NewAssignInstruction(account, owner solana.PublicKey) *cpi.Instruction {
	accountMetas := []cpi.AccountMeta{
		{Pubkey: account, IsSigner: true, IsWritable: true},
	}

	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)

	if err := encoder.WriteUint32(SystemProgramInstrTypeAssign, bin.LE); err != nil {
		panic("shouldn't fail")
	}
	assignInstr := SystemInstrAssign{Owner: owner}
	if err := assignInstr.MarshalWithEncoder(encoder); err != nil {
		panic("shouldn't fail")
	}

	return &cpi.Instruction{Accounts: accountMetas, Data: buf.Bytes(), ProgramId: SystemProgramAddr}
}

// SystemProgram handles the subset of system instructions the reference
// host supports.
func SystemProgram(h *Host, instr *cpi.Instruction, accounts []*BorrowedAccount) error {
	if err := h.meter.Consume(cpi.CUSystemProgramDefaultComputeUnits); err != nil {
		return err
	}

	decoder := bin.NewBinDecoder(instr.Data)
	instrType, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return cpi.ErrInvalidInstructionData
	}

	switch instrType {
	case SystemProgramInstrTypeTransfer:
		var transfer SystemInstrTransfer
		if err = transfer.UnmarshalWithDecoder(decoder); err != nil {
			return cpi.ErrInvalidInstructionData
		}
		if len(accounts) < 2 {
			return cpi.ErrNotEnoughAccountKeys
		}
		return transferInternal(accounts[0], accounts[1], transfer.Lamports)

	case SystemProgramInstrTypeAssign:
		var assign SystemInstrAssign
		if err = assign.UnmarshalWithDecoder(decoder); err != nil {
			return cpi.ErrInvalidInstructionData
		}
		if len(accounts) < 1 {
			return cpi.ErrNotEnoughAccountKeys
		}
		return assignInternal(accounts[0], assign.Owner)

	default:
		return cpi.ErrInvalidInstructionData
	}
}

func transferInternal(from, to *BorrowedAccount, lamports uint64) error {
	if !from.IsSigner {
		klog.Errorf("Transfer: 'from' account %s must sign", from.Key)
		return cpi.ErrMissingRequiredSignatures
	}
	if !from.IsWritable || !to.IsWritable {
		return cpi.ErrInvalidArgument
	}
	if len(from.Data()) != 0 {
		klog.Errorf("Transfer: 'from' must not carry data")
		return cpi.ErrInvalidArgument
	}
	if lamports > from.Lamports() {
		klog.Errorf("Transfer: insufficient lamports %d, need %d", from.Lamports(), lamports)
		return cpi.ErrInsufficientFunds
	}

	if err := from.CheckedSubLamports(lamports); err != nil {
		return err
	}
	return to.CheckedAddLamports(lamports)
}

func assignInternal(acct *BorrowedAccount, owner solana.PublicKey) error {
	if !acct.IsSigner {
		return cpi.ErrMissingRequiredSignatures
	}
	if !acct.IsWritable {
		return cpi.ErrInvalidArgument
	}
	acct.SetOwner(owner)
	return nil
}
