package hostvm

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.solift.io/solift/pkg/cpi"
	"go.solift.io/solift/pkg/cu"
	solift "go.solift.io/solift/pkg/solana"
)

type testEnv struct {
	caller           solana.PublicKey
	host             *Host
	rt               *cpi.Runtime
	meter            *cu.ComputeMeter
	sender, receiver solana.PublicKey
	senderLamports   uint64
	receiverLamports uint64
	accounts         []*cpi.AccountHandle
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		caller:           solana.NewWallet().PublicKey(),
		sender:           solana.NewWallet().PublicKey(),
		receiver:         solana.NewWallet().PublicKey(),
		senderLamports:   1_000_000_000,
		receiverLamports: 1_000_000_000,
	}
	env.meter = cu.NewComputeMeterDefault()
	env.host = NewHost(env.caller, env.meter)
	env.rt = cpi.NewRuntime(env.caller, env.host.Trap(), env.meter)
	env.accounts = []*cpi.AccountHandle{
		{Key: env.sender, Owner: SystemProgramAddr, Lamports: &env.senderLamports, IsSigner: true, IsWritable: true},
		{Key: env.receiver, Owner: SystemProgramAddr, Lamports: &env.receiverLamports, IsWritable: true},
	}
	return env
}

func TestTransferEquivalence(t *testing.T) {
	paths := []struct {
		name   string
		invoke func(env *testEnv, ix *cpi.Instruction) error
	}{
		{"baseline", func(env *testEnv, ix *cpi.Instruction) error { return env.rt.InvokeBaseline(ix, env.accounts) }},
		{"invoke", func(env *testEnv, ix *cpi.Instruction) error { return env.rt.Invoke(ix, env.accounts) }},
		{"invoke_unchecked", func(env *testEnv, ix *cpi.Instruction) error { return env.rt.InvokeUnchecked(ix, env.accounts) }},
	}

	for _, path := range paths {
		t.Run(path.name, func(t *testing.T) {
			env := newTestEnv(t)
			ix := NewTransferInstruction(env.sender, env.receiver, 1)

			require.NoError(t, path.invoke(env, ix))

			assert.Equal(t, uint64(999_999_999), env.senderLamports)
			assert.Equal(t, uint64(1_000_000_001), env.receiverLamports)
			assert.Equal(t, uint64(1), env.host.TrapCount())
		})
	}
}

func TestTransferResourceCost(t *testing.T) {
	env := newTestEnv(t)

	used := make(map[string]uint64)
	measure := func(name string, invoke func() error) {
		before := env.meter.Used()
		require.NoError(t, invoke(), name)
		used[name] = env.meter.Used() - before
	}

	ix := NewTransferInstruction(env.sender, env.receiver, 1)
	measure("baseline", func() error { return env.rt.InvokeBaseline(ix, env.accounts) })
	measure("invoke", func() error { return env.rt.Invoke(ix, env.accounts) })
	measure("invoke_unchecked", func() error { return env.rt.InvokeUnchecked(ix, env.accounts) })

	assert.Equal(t, uint64(999_999_997), env.senderLamports)
	assert.Equal(t, uint64(1_000_000_003), env.receiverLamports)

	// The zero-copy paths must be strictly cheaper, and skipping the local
	// re-validation cheaper still.
	assert.Greater(t, used["baseline"], used["invoke"])
	assert.Greater(t, used["invoke"], used["invoke_unchecked"])
}

func TestPrivilegeEscalationDeferredToHost(t *testing.T) {
	env := newTestEnv(t)
	env.accounts[0].IsSigner = false // transfer's meta still demands a signer

	ix := NewTransferInstruction(env.sender, env.receiver, 1)

	err := env.rt.Invoke(ix, env.accounts)
	assert.ErrorIs(t, err, cpi.ErrPrivilegeEscalation)
	assert.Zero(t, env.host.TrapCount(), "local rejection must not reach the host")

	err = env.rt.InvokeUnchecked(ix, env.accounts)
	assert.ErrorIs(t, err, cpi.ErrPrivilegeEscalationHost)
	assert.Equal(t, uint64(1), env.host.TrapCount())

	assert.Equal(t, uint64(1_000_000_000), env.senderLamports)
	assert.Equal(t, uint64(1_000_000_000), env.receiverLamports)
}

func TestDuplicateAccountMetas(t *testing.T) {
	env := newTestEnv(t)

	program := solana.NewWallet().PublicKey()
	env.host.RegisterProgram(program, func(h *Host, instr *cpi.Instruction, accounts []*BorrowedAccount) error {
		// Both metas must resolve to the same borrowed account, so a write
		// through one occurrence is visible through the other.
		accounts[0].Data()[0] = 7
		if accounts[1].Data()[0] != 7 {
			return cpi.ErrInvalidAccountData
		}
		return nil
	})

	key := solana.NewWallet().PublicKey()
	lamports := uint64(100)
	data := make([]byte, 4)
	acct := &cpi.AccountHandle{Key: key, Owner: program, Lamports: &lamports, Data: data, IsSigner: true, IsWritable: true}

	ix := &cpi.Instruction{
		ProgramId: program,
		Accounts: []cpi.AccountMeta{
			{Pubkey: key, IsSigner: true, IsWritable: true},
			{Pubkey: key, IsWritable: true},
		},
	}

	require.NoError(t, env.rt.Invoke(ix, []*cpi.AccountHandle{acct}))
	assert.Equal(t, byte(7), data[0], "callee writes land in the caller's buffer")
}

func TestZeroAccountsZeroPayload(t *testing.T) {
	env := newTestEnv(t)

	program := solana.NewWallet().PublicKey()
	env.host.RegisterProgram(program, func(h *Host, instr *cpi.Instruction, accounts []*BorrowedAccount) error {
		if len(instr.Accounts) != 0 || len(instr.Data) != 0 || len(accounts) != 0 {
			return cpi.ErrInvalidArgument
		}
		return nil
	})

	ix := &cpi.Instruction{ProgramId: program}
	assert.NoError(t, env.rt.Invoke(ix, nil))
	assert.NoError(t, env.rt.InvokeUnchecked(ix, nil))
	assert.Equal(t, uint64(2), env.host.TrapCount())
}

func TestSignerSeedsElevation(t *testing.T) {
	for _, unchecked := range []bool{false, true} {
		env := newTestEnv(t)

		seeds := [][]byte{[]byte("vault"), {1}}
		pda, bump, err := solift.FindProgramAddress(seeds, env.caller)
		require.NoError(t, err)
		group := append(seeds, []byte{bump})

		pdaLamports := uint64(50)
		env.accounts[0] = &cpi.AccountHandle{
			Key:        pda,
			Owner:      SystemProgramAddr,
			Lamports:   &pdaLamports,
			IsWritable: true,
			// deliberately not a signer; the seeds prove authority
		}

		ix := NewTransferInstruction(pda, env.receiver, 5)

		if unchecked {
			err = env.rt.InvokeSignedUnchecked(ix, env.accounts, [][][]byte{group})
		} else {
			err = env.rt.InvokeSigned(ix, env.accounts, [][][]byte{group})
		}
		require.NoError(t, err)
		assert.Equal(t, uint64(45), pdaLamports)
		assert.Equal(t, uint64(1_000_000_005), env.receiverLamports)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)

	ix := NewTransferInstruction(env.sender, env.receiver, 2_000_000_000)

	err := env.rt.Invoke(ix, env.accounts)
	assert.ErrorIs(t, err, cpi.ErrInsufficientFunds)
	assert.Equal(t, uint64(1_000_000_000), env.senderLamports)
	assert.Equal(t, uint64(1_000_000_000), env.receiverLamports)
}

func TestAssignOwnerWrittenInPlace(t *testing.T) {
	env := newTestEnv(t)

	newOwner := solana.NewWallet().PublicKey()
	ix := NewAssignInstruction(env.sender, newOwner)

	require.NoError(t, env.rt.Invoke(ix, env.accounts))
	assert.Equal(t, newOwner, env.accounts[0].Owner, "owner rewritten through the frame's owner pointer")
}

func TestUnknownCalleeProgram(t *testing.T) {
	env := newTestEnv(t)

	ix := &cpi.Instruction{ProgramId: solana.NewWallet().PublicKey()}
	err := env.rt.Invoke(ix, nil)
	assert.ErrorIs(t, err, cpi.ErrIncorrectProgramId)
}

func TestSyscallRegistry(t *testing.T) {
	reg := NewSyscallRegistry()

	hash, ok := reg.Register("sol_test", func(_, _, _, _, _ uint64) uint64 { return 0 })
	require.True(t, ok)
	assert.Equal(t, SymbolHash("sol_test"), hash)

	// Duplicate registration is refused.
	_, ok = reg.Register("sol_test", func(_, _, _, _, _ uint64) uint64 { return 1 })
	assert.False(t, ok)

	fn, ok := reg.Lookup("sol_test")
	require.True(t, ok)
	assert.Equal(t, uint64(0), fn.InvokeSigned(0, 0, 0, 0, 0))
}
