package main

import (
	"flag"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"go.solift.io/solift/pkg/cpi"
	"go.solift.io/solift/pkg/cu"
	"go.solift.io/solift/pkg/hostvm"
)

var cmd = cobra.Command{
	Use:   "cpibench",
	Short: "compare the invocation entry points against the serializing baseline",
}

var transferCmd = cobra.Command{
	Use:   "transfer",
	Short: "run the same 1-lamport transfer through each entry point and report CU usage",
	Run:   runTransfer,
}

var lamports uint64

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	transferCmd.Flags().Uint64Var(&lamports, "lamports", 1, "lamports to move per transfer")
	cmd.AddCommand(&transferCmd)
}

func runTransfer(_ *cobra.Command, _ []string) {
	callerProgram := solana.NewWallet().PublicKey()
	sender := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()

	meter := cu.NewComputeMeterDefault()
	host := hostvm.NewHost(callerProgram, meter)
	rt := cpi.NewRuntime(callerProgram, host.Trap(), meter)

	senderLamports := uint64(1_000_000_000)
	receiverLamports := uint64(1_000_000_000)
	accounts := []*cpi.AccountHandle{
		{Key: sender, Owner: hostvm.SystemProgramAddr, Lamports: &senderLamports, IsSigner: true, IsWritable: true},
		{Key: receiver, Owner: hostvm.SystemProgramAddr, Lamports: &receiverLamports, IsWritable: true},
	}
	transfer := hostvm.NewTransferInstruction(sender, receiver, lamports)

	paths := []struct {
		name   string
		invoke func() error
	}{
		{"baseline", func() error { return rt.InvokeBaseline(transfer, accounts) }},
		{"invoke", func() error { return rt.Invoke(transfer, accounts) }},
		{"invoke_unchecked", func() error { return rt.InvokeUnchecked(transfer, accounts) }},
	}

	for _, path := range paths {
		before := meter.Used()
		if err := path.invoke(); err != nil {
			klog.Exitf("%s failed: %v", path.name, err)
		}
		klog.Infof("%s: %d CUs (sender=%d receiver=%d)",
			path.name, meter.Used()-before, senderLamports, receiverLamports)
	}
}

func main() {
	cobra.CheckErr(cmd.Execute())
}
