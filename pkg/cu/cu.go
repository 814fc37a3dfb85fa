// Package cu implements the compute meter shared between the caller-side
// invocation entry points and the host.
package cu

import (
	"errors"

	"go.solift.io/solift/pkg/safemath"
)

var ErrComputeExceeded = errors.New("compute budget exceeded")

// DefaultBudget is the per-invocation compute unit allowance.
const DefaultBudget = 200_000

type ComputeMeter struct {
	remaining uint64
	budget    uint64
	exceeded  bool
}

func NewComputeMeter(budget uint64) *ComputeMeter {
	return &ComputeMeter{remaining: budget, budget: budget}
}

func NewComputeMeterDefault() *ComputeMeter {
	return NewComputeMeter(DefaultBudget)
}

// Consume deducts cost from the meter, saturating at zero. Once the meter is
// exhausted every further Consume reports ErrComputeExceeded.
func (cm *ComputeMeter) Consume(cost uint64) error {
	if cm.remaining < cost {
		cm.exceeded = true
	}
	cm.remaining = safemath.SaturatingSubU64(cm.remaining, cost)
	if cm.exceeded {
		return ErrComputeExceeded
	}
	return nil
}

func (cm *ComputeMeter) Remaining() uint64 {
	return cm.remaining
}

func (cm *ComputeMeter) Used() uint64 {
	return cm.budget - cm.remaining
}

func (cm *ComputeMeter) Exceeded() bool {
	return cm.exceeded
}
