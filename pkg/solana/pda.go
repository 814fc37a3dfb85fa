// Package solana carries the program-derived address (PDA) math used to prove
// signing authority for program-owned accounts.
package solana

import (
	"crypto/sha256"
	"errors"
	"math"

	"filippo.io/edwards25519"
	sgo "github.com/gagliardetto/solana-go"
)

const MaxSeeds = 16
const MaxSeedLen = 32
const PublicKeyLength = 32
const PdaMarker = "ProgramDerivedAddress"

var (
	ErrTooManySeeds        = errors.New("max seeds (16) exceeded")
	ErrSeedTooLong         = errors.New("max seed length (32) exceeded")
	ErrAddressLength       = errors.New("wrong key length; addresses are 32 bytes long")
	ErrOnCurveInvalidSeeds = errors.New("invalid seeds - generated address must be off-curve")
	ErrNoViableBump        = errors.New("unable to find a viable program address bump seed")
)

// CreateProgramAddressBytes derives the address for the given seeds under
// programID. The result must land off the ed25519 curve; on-curve results are
// rejected so a derived address can never collide with a real keypair.
func CreateProgramAddressBytes(seeds [][]byte, programID []byte) ([]byte, error) {
	if len(seeds) > MaxSeeds {
		return nil, ErrTooManySeeds
	}

	if len(programID) != PublicKeyLength {
		return nil, ErrAddressLength
	}

	hasher := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return nil, ErrSeedTooLong
		}
		hasher.Write(seed)
	}

	hasher.Write(programID)
	hasher.Write([]byte(PdaMarker))
	hash := hasher.Sum(nil)

	if IsOnCurve(hash) {
		return nil, ErrOnCurveInvalidSeeds
	}

	return hash, nil
}

// CreateProgramAddress is CreateProgramAddressBytes over typed public keys.
func CreateProgramAddress(seeds [][]byte, programID sgo.PublicKey) (sgo.PublicKey, error) {
	addr, err := CreateProgramAddressBytes(seeds, programID[:])
	if err != nil {
		return sgo.PublicKey{}, err
	}
	return sgo.PublicKeyFromBytes(addr), nil
}

// FindProgramAddress searches bump seeds downward from 255 for the first
// off-curve derivation of seeds+[bump] under programID.
func FindProgramAddress(seeds [][]byte, programID sgo.PublicKey) (sgo.PublicKey, uint8, error) {
	if len(seeds)+1 > MaxSeeds {
		return sgo.PublicKey{}, 0, ErrTooManySeeds
	}

	for bump := uint8(math.MaxUint8); bump > 0; bump-- {
		seedsWithBump := make([][]byte, len(seeds), len(seeds)+1)
		copy(seedsWithBump, seeds)
		seedsWithBump = append(seedsWithBump, []byte{bump})

		addr, err := CreateProgramAddressBytes(seedsWithBump, programID[:])
		if err == nil {
			return sgo.PublicKeyFromBytes(addr), bump, nil
		}
	}

	return sgo.PublicKey{}, 0, ErrNoViableBump
}

// IsOnCurve checks if 'b' is on the ed25519 curve
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
