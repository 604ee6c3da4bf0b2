package executor

import "btor2run/internal/utils"

// EffectiveLimit returns the number of concurrent tasks the pool should run.
// When the host cannot sustain requested concurrent children, the limit is
// lowered to what it can sustain instead of failing the batch.
func EffectiveLimit(requested int) int {
	if requested < 1 {
		requested = 1
	}
	capacity, ok := hostCapacityFn()
	if !ok || capacity >= requested {
		return requested
	}
	limit := utils.Clamp(capacity, 1, requested)
	logWarnf("Host can sustain %d concurrent tasks; lowering concurrency from %d to %d", capacity, requested, limit)
	return limit
}
