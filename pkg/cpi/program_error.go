package cpi

import (
	"errors"
	"fmt"
)

// StatusSuccess is the trap's zero return value.
const StatusSuccess = uint64(0)

// Program errors decoded from a non-zero trap status. The host owns the
// numbering; this table mirrors it and nothing outside this file depends on
// the numeric values.
var (
	ErrCustomZero                = errors.New("ErrCustomZero")
	ErrInvalidArgument           = errors.New("ErrInvalidArgument")
	ErrInvalidInstructionData    = errors.New("ErrInvalidInstructionData")
	ErrInvalidAccountData        = errors.New("ErrInvalidAccountData")
	ErrAccountDataTooSmall       = errors.New("ErrAccountDataTooSmall")
	ErrInsufficientFunds         = errors.New("ErrInsufficientFunds")
	ErrIncorrectProgramId        = errors.New("ErrIncorrectProgramId")
	ErrMissingRequiredSignatures = errors.New("ErrMissingRequiredSignatures")
	ErrAccountAlreadyInitialized = errors.New("ErrAccountAlreadyInitialized")
	ErrUninitializedAccount      = errors.New("ErrUninitializedAccount")
	ErrNotEnoughAccountKeys      = errors.New("ErrNotEnoughAccountKeys")
	ErrAccountBorrowFailed       = errors.New("ErrAccountBorrowFailed")
	ErrMaxSeedLengthExceeded     = errors.New("ErrMaxSeedLengthExceeded")
	ErrInvalidSeeds              = errors.New("ErrInvalidSeeds")
	ErrIllegalOwner              = errors.New("ErrIllegalOwner")

	// Host extensions beyond the common set.
	ErrPrivilegeEscalationHost = errors.New("ErrPrivilegeEscalationHost")
	ErrMissingAccountHost      = errors.New("ErrMissingAccountHost")
)

// Builtin kinds occupy the upper 32 bits of the status word; custom program
// errors carry their code in the lower 32 bits with the upper word clear.
// Custom code zero has its own builtin value so it cannot collide with
// success.
const (
	statusCustomZero                = uint64(1) << 32
	statusInvalidArgument           = uint64(2) << 32
	statusInvalidInstructionData    = uint64(3) << 32
	statusInvalidAccountData        = uint64(4) << 32
	statusAccountDataTooSmall       = uint64(5) << 32
	statusInsufficientFunds         = uint64(6) << 32
	statusIncorrectProgramId        = uint64(7) << 32
	statusMissingRequiredSignatures = uint64(8) << 32
	statusAccountAlreadyInitialized = uint64(9) << 32
	statusUninitializedAccount      = uint64(10) << 32
	statusNotEnoughAccountKeys      = uint64(11) << 32
	statusAccountBorrowFailed       = uint64(12) << 32
	statusMaxSeedLengthExceeded     = uint64(13) << 32
	statusInvalidSeeds              = uint64(14) << 32
	statusIllegalOwner              = uint64(18) << 32
	statusPrivilegeEscalation       = uint64(19) << 32
	statusMissingAccount            = uint64(20) << 32
)

var statusToErr = map[uint64]error{
	statusCustomZero:                ErrCustomZero,
	statusInvalidArgument:           ErrInvalidArgument,
	statusInvalidInstructionData:    ErrInvalidInstructionData,
	statusInvalidAccountData:        ErrInvalidAccountData,
	statusAccountDataTooSmall:       ErrAccountDataTooSmall,
	statusInsufficientFunds:         ErrInsufficientFunds,
	statusIncorrectProgramId:        ErrIncorrectProgramId,
	statusMissingRequiredSignatures: ErrMissingRequiredSignatures,
	statusAccountAlreadyInitialized: ErrAccountAlreadyInitialized,
	statusUninitializedAccount:      ErrUninitializedAccount,
	statusNotEnoughAccountKeys:      ErrNotEnoughAccountKeys,
	statusAccountBorrowFailed:       ErrAccountBorrowFailed,
	statusMaxSeedLengthExceeded:     ErrMaxSeedLengthExceeded,
	statusInvalidSeeds:              ErrInvalidSeeds,
	statusIllegalOwner:              ErrIllegalOwner,
	statusPrivilegeEscalation:       ErrPrivilegeEscalationHost,
	statusMissingAccount:            ErrMissingAccountHost,
}

var errToStatus = func() map[error]uint64 {
	m := make(map[error]uint64, len(statusToErr))
	for status, err := range statusToErr {
		m[err] = status
	}
	return m
}()

// CustomError is the numeric error a callee program returned.
type CustomError uint32

func (e CustomError) Error() string {
	return fmt.Sprintf("custom program error: %#x", uint32(e))
}

// UnrecognizedError carries a status word this table does not know.
type UnrecognizedError uint64

func (e UnrecognizedError) Error() string {
	return fmt.Sprintf("unrecognized program error: %#x", uint64(e))
}

// DecodeStatus maps a non-zero trap status to a program error. The mapping
// is total: unknown codes decode to CustomError or UnrecognizedError rather
// than failing.
func DecodeStatus(status uint64) error {
	if status == StatusSuccess {
		return nil
	}
	if err, ok := statusToErr[status]; ok {
		return err
	}
	if status>>32 == 0 {
		return CustomError(uint32(status))
	}
	return UnrecognizedError(status)
}

// EncodeStatus is the host-side inverse of DecodeStatus.
func EncodeStatus(err error) uint64 {
	if err == nil {
		return StatusSuccess
	}
	if status, ok := errToStatus[err]; ok {
		return status
	}
	var custom CustomError
	if errors.As(err, &custom) {
		if custom == 0 {
			return statusCustomZero
		}
		return uint64(custom)
	}
	return statusInvalidArgument
}
