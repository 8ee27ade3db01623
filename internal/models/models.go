package models

import (
	"strings"
	"time"
)

// Status classifies a reading as safe or dangerous.
type Status string

const (
	StatusSafe   Status = "SAFE"
	StatusDanger Status = "DANGER"
)

// NormalizeStatus maps any stored textual status onto the canonical enum.
// Old rows carry legacy values like "NORMAL" or mixed casing; everything
// except a case-insensitive "DANGER" reads back as SAFE.
func NormalizeStatus(s string) Status {
	if strings.EqualFold(s, string(StatusDanger)) {
		return StatusDanger
	}
	return StatusSafe
}

// CompactReading is the canonical internal form of one sensor sample.
// Numeric coercion happens before this point, so the fields never carry
// anything but numbers.
type CompactReading struct {
	P  int64   `json:"p"`
	R  int64   `json:"r"`
	La float64 `json:"la"`
	Lo float64 `json:"lo"`
}

// HistoryEntry is an immutable point-in-time copy of the device state,
// ordered by T.
type HistoryEntry struct {
	CompactReading
	S Status `json:"s"`
	T int64  `json:"t"` // epoch millis
	D string `json:"d"` // calendar day in the data timezone
}

// LatestRecord is the singleton current-state row. LastAlert is owned by the
// store's commit path and must never be taken from process memory.
type LatestRecord struct {
	HistoryEntry
	LastAlert int64 `json:"lastAlert"`
}

// ReadingView is the wire vocabulary served to clients.
type ReadingView struct {
	Pulses    int64   `json:"pulses"`
	Rotations int64   `json:"rotations"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Status    Status  `json:"status"`
	Timestamp int64   `json:"timestamp"`
	Date      string  `json:"date"`
}

// View projects a history entry into the wire vocabulary, normalizing the
// status so legacy stored values never leak to a client.
func (e HistoryEntry) View() ReadingView {
	return ReadingView{
		Pulses:    e.P,
		Rotations: e.R,
		Lat:       e.La,
		Lon:       e.Lo,
		Status:    NormalizeStatus(string(e.S)),
		Timestamp: e.T,
		Date:      e.D,
	}
}

// DayString formats an epoch-millis timestamp as YYYY-MM-DD in loc.
func DayString(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format("2006-01-02")
}

// DayBounds returns the [start, end) epoch-millis range covering a
// YYYY-MM-DD calendar day in loc.
func DayBounds(day string, loc *time.Location) (int64, int64, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return 0, 0, err
	}
	return t.UnixMilli(), t.AddDate(0, 0, 1).UnixMilli(), nil
}
