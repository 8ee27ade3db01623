package flow

import (
	"context"
	"fmt"
	"log"
	"time"

	"flowguard/internal/metrics"
	"flowguard/internal/models"
)

// SaveIntervalMS throttles history appends: a new history entry is written
// only when this much time has passed since the previously stored timestamp.
// The latest record itself is overwritten on every accepted reading.
const SaveIntervalMS = 3000

// Store is the persistence surface the processor needs.
type Store interface {
	// Latest returns a snapshot of the current-state row, with found=false
	// when no reading has ever been accepted.
	Latest(ctx context.Context) (models.LatestRecord, bool, error)

	// CommitLatest atomically overwrites the latest record and applies the
	// alert cooldown gate against the persisted lastAlert, reporting whether
	// an outbound alert should fire.
	CommitLatest(ctx context.Context, rec models.LatestRecord, now int64) (bool, error)

	// AppendHistory writes one immutable history entry.
	AppendHistory(ctx context.Context, entry models.HistoryEntry) error

	// TrimHistory deletes the oldest entries above the retention cap and
	// returns how many were removed.
	TrimHistory(ctx context.Context) (int64, error)
}

// Notifier delivers an outbound alert for a dangerous reading.
type Notifier interface {
	Notify(entry models.HistoryEntry)
}

// Result is the outcome of processing one reading.
type Result struct {
	Status   models.Status
	Flow     int64
	Alerted  bool
	Appended bool
}

// Processor runs the classification and persistence pipeline for a reading.
// It keeps no state between calls: previous flow, status and alert time are
// always read back from the store, so overlapping instances handling the
// same device stay consistent.
type Processor struct {
	store    Store
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

// NewProcessor creates a processor writing day fields in loc.
func NewProcessor(store Store, notifier Notifier, loc *time.Location) *Processor {
	return &Processor{store: store, notifier: notifier, loc: loc, now: time.Now}
}

// Process classifies a normalized reading, commits it, throttles the history
// append, and fires the alert side effect when the cooldown gate opens. The
// alert is dispatched on a detached goroutine and cannot fail the caller.
func (p *Processor) Process(ctx context.Context, reading models.CompactReading) (Result, error) {
	prev, found, err := p.store.Latest(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load latest: %w", err)
	}

	var prevFlow, prevT int64
	if found {
		prevFlow = prev.R
		prevT = prev.T
	}

	status, adjusted := Classify(reading.R, prevFlow)
	reading.R = adjusted

	now := p.now().UnixMilli()
	rec := models.LatestRecord{
		HistoryEntry: models.HistoryEntry{
			CompactReading: reading,
			S:              status,
			T:              now,
			D:              models.DayString(now, p.loc),
		},
	}

	alerted, err := p.store.CommitLatest(ctx, rec, now)
	if err != nil {
		return Result{}, fmt.Errorf("commit latest: %w", err)
	}
	if status == models.StatusDanger {
		metrics.DangerReadings.Inc()
	}

	res := Result{Status: status, Flow: adjusted, Alerted: alerted}

	if alerted && p.notifier != nil {
		go p.notifier.Notify(rec.HistoryEntry)
	}

	if now-prevT > SaveIntervalMS {
		if err := p.store.AppendHistory(ctx, rec.HistoryEntry); err != nil {
			return res, fmt.Errorf("append history: %w", err)
		}
		res.Appended = true
		metrics.HistoryAppends.Inc()

		// Trim runs only after a successful append. A failed trim is not
		// fatal: the next append recomputes the full overflow and catches up.
		trimmed, err := p.store.TrimHistory(ctx)
		if err != nil {
			log.Printf("History trim failed, deferring to next append: %v", err)
		} else if trimmed > 0 {
			metrics.HistoryTrimmed.Add(float64(trimmed))
		}
	}

	return res, nil
}
