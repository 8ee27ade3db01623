package flow

import "flowguard/internal/models"

// Classification thresholds for the rotation-count flow value.
const (
	// NoiseThreshold pins flow changes smaller than this to the previous
	// value, so sensor jitter cannot flip the status back and forth.
	NoiseThreshold = 2

	// SafeThreshold is the adjusted flow above which a reading is dangerous.
	SafeThreshold = 120
)

// Classify debounces the raw flow value against the previously persisted one
// and applies the danger threshold. The threshold on the adjusted value is
// the whole rule: there is no spike-magnitude trigger, since a large jump
// from zero is normal device-restart behavior, not a surge.
//
// The previous flow must come from the stored latest record, read fresh for
// each call. Classify itself keeps no state.
func Classify(current, previous int64) (models.Status, int64) {
	adjusted := current
	if abs(current-previous) < NoiseThreshold {
		adjusted = previous
	}
	if adjusted > SafeThreshold {
		return models.StatusDanger, adjusted
	}
	return models.StatusSafe, adjusted
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
