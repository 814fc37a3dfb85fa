package hostvm

import (
	"github.com/spaolacci/murmur3"

	"go.solift.io/solift/pkg/cpi"
)

// InvokeSignedSymbol is the symbol the invocation trap is registered under.
const InvokeSignedSymbol = "sol_invoke_signed_c"

// SymbolHash returns the murmur3 32-bit hash of a syscall symbol name.
func SymbolHash(s string) uint32 {
	return murmur3.Sum32([]byte(s))
}

// SyscallRegistry maps symbol hashes to trap implementations.
type SyscallRegistry map[uint32]cpi.TrapFunc

func NewSyscallRegistry() SyscallRegistry {
	return make(SyscallRegistry)
}

func (s SyscallRegistry) Register(name string, fn cpi.TrapFunc) (hash uint32, ok bool) {
	hash = SymbolHash(name)
	if _, exist := s[hash]; exist {
		return 0, false // collision or duplicate
	}
	s[hash] = fn
	ok = true
	return
}

func (s SyscallRegistry) Lookup(name string) (cpi.TrapFunc, bool) {
	fn, ok := s[SymbolHash(name)]
	return fn, ok
}
