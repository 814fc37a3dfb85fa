package hostvm

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"

	"go.solift.io/solift/pkg/abi"
	"go.solift.io/solift/pkg/cpi"
	"go.solift.io/solift/pkg/cu"
	"go.solift.io/solift/pkg/safemath"
	solift "go.solift.io/solift/pkg/solana"
)

// Program executes a callee instruction over the accounts resolved for it.
// accounts is parallel to instr.Accounts; duplicate metas share one
// BorrowedAccount.
type Program func(h *Host, instr *cpi.Instruction, accounts []*BorrowedAccount) error

// Host dispatches invocation traps for one calling program.
type Host struct {
	caller    solana.PublicKey
	mem       Memory
	meter     *cu.ComputeMeter
	programs  map[solana.PublicKey]Program
	syscalls  SyscallRegistry
	trapCount uint64
}

func NewHost(caller solana.PublicKey, meter *cu.ComputeMeter) *Host {
	h := &Host{
		caller:   caller,
		mem:      RawMemory{},
		meter:    meter,
		programs: make(map[solana.PublicKey]Program),
		syscalls: NewSyscallRegistry(),
	}
	h.syscalls.Register(InvokeSignedSymbol, h.invokeSigned)
	h.RegisterProgram(SystemProgramAddr, SystemProgram)
	return h
}

func (h *Host) RegisterProgram(programID solana.PublicKey, prog Program) {
	h.programs[programID] = prog
}

// Trap returns the invocation entry registered under the trap's symbol
// hash, suitable for wiring into a cpi.Runtime.
func (h *Host) Trap() cpi.Trap {
	fn, ok := h.syscalls.Lookup(InvokeSignedSymbol)
	if !ok {
		panic("invoke syscall not registered")
	}
	return fn
}

func (h *Host) ComputeMeter() *cu.ComputeMeter {
	return h.meter
}

// TrapCount reports how many traps this host has served, successful or not.
func (h *Host) TrapCount() uint64 {
	return h.trapCount
}

// invokeSigned is the trap implementation. Every failure is reported to the
// caller as an encoded status word, never as a panic.
func (h *Host) invokeSigned(instructionAddr, accountInfosAddr, accountInfosLen, signerSeedsAddr, signerSeedsLen uint64) uint64 {
	h.trapCount++

	if err := h.meter.Consume(cpi.CUInvokeUnits); err != nil {
		return cpi.EncodeStatus(err)
	}

	ix, err := h.translateInstruction(instructionAddr)
	if err != nil {
		return cpi.EncodeStatus(err)
	}

	accounts, err := h.translateAccountInfos(accountInfosAddr, accountInfosLen)
	if err != nil {
		return cpi.EncodeStatus(err)
	}

	pdaSigners, err := h.translateSigners(signerSeedsAddr, signerSeedsLen)
	if err != nil {
		return cpi.EncodeStatus(err)
	}
	for _, acct := range accounts {
		if _, ok := pdaSigners[acct.Key]; ok {
			acct.IsSigner = true
		}
	}

	resolved, err := h.checkAuthority(ix, accounts)
	if err != nil {
		return cpi.EncodeStatus(err)
	}

	prog, ok := h.programs[ix.ProgramId]
	if !ok {
		return cpi.EncodeStatus(cpi.ErrIncorrectProgramId)
	}

	klog.V(2).Infof("CPI %s -> %s, %d accounts, %d signers",
		h.caller, ix.ProgramId, len(ix.Accounts), len(pdaSigners))

	return cpi.EncodeStatus(prog(h, ix, resolved))
}

func (h *Host) translateInstruction(addr uint64) (*cpi.Instruction, error) {
	ixData, err := h.mem.Translate(addr, abi.SolInstructionSize, false)
	if err != nil {
		return nil, cpi.ErrInvalidInstructionData
	}

	byteReader := bytes.NewReader(ixData)
	var solInstr abi.SolInstruction
	if err = solInstr.Unmarshal(byteReader); err != nil {
		return nil, cpi.ErrInvalidInstructionData
	}

	pkData, err := h.mem.Translate(solInstr.ProgramIdAddr, solana.PublicKeyLength, false)
	if err != nil {
		return nil, cpi.ErrInvalidInstructionData
	}
	programId := solana.PublicKeyFromBytes(pkData)

	metasSize := safemath.SaturatingMulU64(solInstr.AccountsLen, abi.SolAccountMetaSize)
	metasData, err := h.mem.Translate(solInstr.AccountsAddr, metasSize, false)
	if err != nil {
		return nil, cpi.ErrInvalidInstructionData
	}

	byteReader.Reset(metasData)
	accounts := make([]cpi.AccountMeta, 0, solInstr.AccountsLen)
	for count := uint64(0); count < solInstr.AccountsLen; count++ {
		var am abi.SolAccountMeta
		if err = am.Unmarshal(byteReader); err != nil {
			return nil, cpi.ErrInvalidInstructionData
		}
		if am.IsSigner > 1 || am.IsWritable > 1 {
			return nil, cpi.ErrInvalidArgument
		}

		pubkeyData, err := h.mem.Translate(am.PubkeyAddr, solana.PublicKeyLength, false)
		if err != nil {
			return nil, cpi.ErrInvalidInstructionData
		}

		accounts = append(accounts, cpi.AccountMeta{
			Pubkey:     solana.PublicKeyFromBytes(pubkeyData),
			IsSigner:   am.IsSigner == 1,
			IsWritable: am.IsWritable == 1,
		})
	}

	data, err := h.mem.Translate(solInstr.DataAddr, solInstr.DataLen, false)
	if err != nil {
		return nil, cpi.ErrInvalidInstructionData
	}

	return &cpi.Instruction{Accounts: accounts, Data: data, ProgramId: programId}, nil
}

func (h *Host) translateAccountInfos(addr, count uint64) ([]*BorrowedAccount, error) {
	infosSize := safemath.SaturatingMulU64(count, abi.SolAccountInfoSize)
	infosData, err := h.mem.Translate(addr, infosSize, false)
	if err != nil {
		return nil, cpi.ErrInvalidAccountData
	}

	byteReader := bytes.NewReader(infosData)
	accounts := make([]*BorrowedAccount, 0, count)
	for i := uint64(0); i < count; i++ {
		var info abi.SolAccountInfo
		if err = info.Unmarshal(byteReader); err != nil {
			return nil, cpi.ErrInvalidAccountData
		}
		if info.IsSigner > 1 || info.IsWritable > 1 || info.Executable > 1 {
			return nil, cpi.ErrInvalidArgument
		}

		keyData, err := h.mem.Translate(info.KeyAddr, solana.PublicKeyLength, false)
		if err != nil {
			return nil, cpi.ErrInvalidAccountData
		}
		lamports, err := h.mem.Translate(info.LamportsAddr, 8, true)
		if err != nil {
			return nil, cpi.ErrInvalidAccountData
		}
		data, err := h.mem.Translate(info.DataAddr, info.DataLen, true)
		if err != nil {
			return nil, cpi.ErrInvalidAccountData
		}
		owner, err := h.mem.Translate(info.OwnerAddr, solana.PublicKeyLength, true)
		if err != nil {
			return nil, cpi.ErrInvalidAccountData
		}

		accounts = append(accounts, &BorrowedAccount{
			Key:        solana.PublicKeyFromBytes(keyData),
			lamports:   lamports,
			data:       data,
			owner:      owner,
			IsSigner:   info.IsSigner == 1,
			IsWritable: info.IsWritable == 1,
			Executable: info.Executable == 1,
			RentEpoch:  info.RentEpoch,
		})
	}
	return accounts, nil
}

func (h *Host) translateSigners(addr, count uint64) (map[solana.PublicKey]struct{}, error) {
	if count == 0 {
		return nil, nil
	}
	if count > cpi.MaxSigners {
		return nil, cpi.ErrInvalidArgument
	}

	outerSize := safemath.SaturatingMulU64(count, abi.VectorDescrSize)
	outerData, err := h.mem.Translate(addr, outerSize, false)
	if err != nil {
		return nil, cpi.ErrInvalidSeeds
	}

	byteReader := bytes.NewReader(outerData)
	pdas := make(map[solana.PublicKey]struct{}, count)
	for i := uint64(0); i < count; i++ {
		var group abi.VectorDescr
		if err = group.Unmarshal(byteReader); err != nil {
			return nil, cpi.ErrInvalidSeeds
		}
		if group.Len > solift.MaxSeeds {
			return nil, cpi.ErrMaxSeedLengthExceeded
		}

		innerSize := safemath.SaturatingMulU64(group.Len, abi.VectorDescrSize)
		innerData, err := h.mem.Translate(group.Addr, innerSize, false)
		if err != nil {
			return nil, cpi.ErrInvalidSeeds
		}

		seedReader := bytes.NewReader(innerData)
		seeds := make([][]byte, 0, group.Len)
		for j := uint64(0); j < group.Len; j++ {
			var descr abi.VectorDescr
			if err = descr.Unmarshal(seedReader); err != nil {
				return nil, cpi.ErrInvalidSeeds
			}
			seedBytes, err := h.mem.Translate(descr.Addr, descr.Len, false)
			if err != nil {
				return nil, cpi.ErrInvalidSeeds
			}
			seeds = append(seeds, seedBytes)
		}

		pda, err := solift.CreateProgramAddress(seeds, h.caller)
		if err != nil {
			return nil, cpi.ErrInvalidSeeds
		}
		pdas[pda] = struct{}{}
	}
	return pdas, nil
}

// checkAuthority rejects any meta requesting a privilege the caller did not
// hand over in the account infos, and resolves each meta to its borrowed
// account. Duplicate metas resolve to the same BorrowedAccount.
func (h *Host) checkAuthority(ix *cpi.Instruction, accounts []*BorrowedAccount) ([]*BorrowedAccount, error) {
	byKey := make(map[solana.PublicKey]*BorrowedAccount, len(accounts))
	for _, acct := range accounts {
		if _, dup := byKey[acct.Key]; !dup {
			byKey[acct.Key] = acct
		}
	}

	resolved := make([]*BorrowedAccount, len(ix.Accounts))
	for i := range ix.Accounts {
		meta := &ix.Accounts[i]
		acct, ok := byKey[meta.Pubkey]
		if !ok {
			klog.V(2).Infof("CPI account %s not visible to caller %s", meta.Pubkey, h.caller)
			return nil, cpi.ErrMissingAccountHost
		}
		if meta.IsWritable && !acct.IsWritable {
			return nil, cpi.ErrPrivilegeEscalationHost
		}
		if meta.IsSigner && !acct.IsSigner {
			return nil, cpi.ErrPrivilegeEscalationHost
		}
		resolved[i] = acct
	}
	return resolved, nil
}
