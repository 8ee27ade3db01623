package flow

import (
	"encoding/json"
	"strconv"
	"strings"

	"flowguard/internal/models"
)

// Normalize compresses a raw wire reading into the canonical compact form.
// The device sends either long-form (pulses/rotations/lat/lon) or short-form
// (p/r/la/lo) field names; short-form counts only when the long-form key is
// absent. Anything non-numeric, including null or a missing field, degrades
// to zero instead of rejecting the reading — the device is noisy and partial
// samples are still worth keeping.
func Normalize(raw map[string]any) models.CompactReading {
	return models.CompactReading{
		P:  int64(pick(raw, "pulses", "p")),
		R:  int64(pick(raw, "rotations", "r")),
		La: pick(raw, "lat", "la"),
		Lo: pick(raw, "lon", "lo"),
	}
}

func pick(raw map[string]any, long, short string) float64 {
	if v, ok := raw[long]; ok {
		return toNumber(v)
	}
	if v, ok := raw[short]; ok {
		return toNumber(v)
	}
	return 0
}

// toNumber coerces a decoded JSON value to a float64, with 0 for anything
// that is not a number.
func toNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
