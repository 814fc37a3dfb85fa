package cpi

// Compute unit costs. CUInvokeUnits is charged by the host per trap; the
// rest model the guest-side work of each entry point, which is what makes
// the serializing baseline measurably more expensive than the zero-copy
// paths.
const (
	CUInvokeUnits                      = 1000
	CUCpiBytesPerUnit                  = 250
	CUMemOpBaseCost                    = 10
	CUCpiPrivilegeCheckUnits           = 40
	CUSystemProgramDefaultComputeUnits = 150
	CUMaxCpiInstructionSize            = 1280
)
