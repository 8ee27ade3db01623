package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flowguard/internal/models"
)

func TestClassify(t *testing.T) {
	tt := []struct {
		name      string
		current   int64
		previous  int64
		expStatus models.Status
		expAdjust int64
	}{
		{name: "steady safe", current: 50, previous: 50, expStatus: models.StatusSafe, expAdjust: 50},
		{name: "small change pinned to previous", current: 51, previous: 50, expStatus: models.StatusSafe, expAdjust: 50},
		{name: "small drop pinned to previous", current: 49, previous: 50, expStatus: models.StatusSafe, expAdjust: 50},
		{name: "change at threshold passes through", current: 52, previous: 50, expStatus: models.StatusSafe, expAdjust: 52},
		{name: "exactly safe limit", current: 120, previous: 100, expStatus: models.StatusSafe, expAdjust: 120},
		{name: "just above safe limit", current: 121, previous: 100, expStatus: models.StatusDanger, expAdjust: 121},
		{name: "cold start small value", current: 3, previous: 0, expStatus: models.StatusSafe, expAdjust: 3},
		{name: "cold start large value", current: 133, previous: 0, expStatus: models.StatusDanger, expAdjust: 133},
		{name: "noise pin near danger boundary", current: 121, previous: 120, expStatus: models.StatusSafe, expAdjust: 120},
		{name: "sustained danger", current: 150, previous: 149, expStatus: models.StatusDanger, expAdjust: 149},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			status, adjusted := Classify(tc.current, tc.previous)
			assert.Equal(t, tc.expStatus, status)
			assert.Equal(t, tc.expAdjust, adjusted)
		})
	}
}

func TestClassifyNoSpikeTrigger(t *testing.T) {
	// A large jump alone must never force DANGER; only the adjusted value
	// crossing the safe limit does.
	status, adjusted := Classify(100, 0)
	assert.Equal(t, models.StatusSafe, status)
	assert.Equal(t, int64(100), adjusted)
}
