package flow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowguard/internal/models"
)

func TestNormalize(t *testing.T) {
	tt := []struct {
		name    string
		payload string
		exp     models.CompactReading
	}{
		{
			name:    "long form",
			payload: `{"pulses": 10, "rotations": 42, "lat": -6.2, "lon": 106.8}`,
			exp:     models.CompactReading{P: 10, R: 42, La: -6.2, Lo: 106.8},
		},
		{
			name:    "short form",
			payload: `{"p": 10, "r": 42, "la": -6.2, "lo": 106.8}`,
			exp:     models.CompactReading{P: 10, R: 42, La: -6.2, Lo: 106.8},
		},
		{
			name:    "long form wins over short form",
			payload: `{"rotations": 42, "r": 99}`,
			exp:     models.CompactReading{R: 42},
		},
		{
			name:    "non-numeric degrades to zero",
			payload: `{"pulses": "abc", "rotations": null, "lat": true, "lon": {"x": 1}}`,
			exp:     models.CompactReading{},
		},
		{
			name:    "numeric strings coerce",
			payload: `{"pulses": "10", "rotations": " 42 ", "lat": "-6.2"}`,
			exp:     models.CompactReading{P: 10, R: 42, La: -6.2},
		},
		{
			name:    "missing fields default to zero",
			payload: `{"rotations": 42}`,
			exp:     models.CompactReading{R: 42},
		},
		{
			name:    "empty object",
			payload: `{}`,
			exp:     models.CompactReading{},
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var raw map[string]any
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &raw))
			assert.Equal(t, tc.exp, Normalize(raw))
		})
	}
}
