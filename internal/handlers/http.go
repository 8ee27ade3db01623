package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"flowguard/internal/flow"
	"flowguard/internal/metrics"
	"flowguard/internal/models"
)

// MaxBodyBytes is the ingestion payload ceiling. Readings are tiny; anything
// larger is rejected before parsing to protect the backend tier.
const MaxBodyBytes = 512

// historyPageLimit bounds interactive history views; exportPageLimit bounds
// CSV exports.
const (
	historyPageLimit = 2000
	exportPageLimit  = 5000
)

// Ingestor processes one normalized reading.
type Ingestor interface {
	Process(ctx context.Context, reading models.CompactReading) (flow.Result, error)
}

// ReadStore is the query surface the HTTP layer needs.
type ReadStore interface {
	Latest(ctx context.Context) (models.LatestRecord, bool, error)
	History(ctx context.Context, day string, limit int64, asc bool) ([]models.HistoryEntry, error)
	Ping(ctx context.Context) error
	Stats() map[string]interface{}
}

// Handler serves the HTTP API.
type Handler struct {
	processor Ingestor
	store     ReadStore
	loc       *time.Location
}

// NewHandler creates a new handler.
func NewHandler(processor Ingestor, store ReadStore, loc *time.Location) *Handler {
	return &Handler{
		processor: processor,
		store:     store,
		loc:       loc,
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, apiError{Code: code, Message: message, Details: details})
}

// SubmitReading handles POST /readings.
func (h *Handler) SubmitReading(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(r.Method, "/readings").Observe(time.Since(start).Seconds())
	}()

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.RequestsTotal.WithLabelValues(r.Method, "/readings", "413").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large",
				"payload exceeds 512 bytes", nil)
			return
		}
		metrics.RequestsTotal.WithLabelValues(r.Method, "/readings", "400").Inc()
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read request body", nil)
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		// Echo the raw payload so a flaky device can be diagnosed remotely.
		metrics.RequestsTotal.WithLabelValues(r.Method, "/readings", "400").Inc()
		writeError(w, http.StatusBadRequest, "invalid_payload", "payload is not a JSON object", string(body))
		return
	}

	reading := flow.Normalize(raw)

	res, err := h.processor.Process(r.Context(), reading)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/readings", "500").Inc()
		writeError(w, http.StatusInternalServerError, "store_unavailable", err.Error(), nil)
		return
	}

	metrics.ReadingsReceived.Inc()
	metrics.RequestsTotal.WithLabelValues(r.Method, "/readings", "200").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  res.Status,
		"flow":    res.Flow,
		"alerted": res.Alerted,
	})
}

// GetLatest handles GET /latest.
func (h *Handler) GetLatest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(r.Method, "/latest").Observe(time.Since(start).Seconds())
	}()

	rec, found, err := h.store.Latest(r.Context())
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/latest", "500").Inc()
		writeError(w, http.StatusInternalServerError, "store_unavailable", err.Error(), nil)
		return
	}

	metrics.RequestsTotal.WithLabelValues(r.Method, "/latest", "200").Inc()
	if !found {
		// No readings yet is a normal state, not an error.
		writeJSON(w, http.StatusOK, map[string]any{"empty": true})
		return
	}
	writeJSON(w, http.StatusOK, rec.View())
}

// GetHistory handles GET /history?date=YYYY-MM-DD.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(r.Method, "/history").Observe(time.Since(start).Seconds())
	}()

	day := r.URL.Query().Get("date")
	if day == "" {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/history", "400").Inc()
		writeError(w, http.StatusBadRequest, "missing_parameter", "date parameter is required (YYYY-MM-DD)", nil)
		return
	}
	if _, _, err := models.DayBounds(day, h.loc); err != nil {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/history", "400").Inc()
		writeError(w, http.StatusBadRequest, "invalid_format", "date must be YYYY-MM-DD", day)
		return
	}

	entries, err := h.store.History(r.Context(), day, historyPageLimit, false)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/history", "500").Inc()
		writeError(w, http.StatusInternalServerError, "store_unavailable", err.Error(), nil)
		return
	}

	views := make([]models.ReadingView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.View())
	}

	metrics.RequestsTotal.WithLabelValues(r.Method, "/history", "200").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"date":     day,
		"count":    len(views),
		"readings": views,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	redisOK := h.store.Ping(r.Context()) == nil

	status := "healthy"
	httpStatus := http.StatusOK
	if !redisOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"redis":     redisOK,
		"pool":      h.store.Stats(),
		"timestamp": time.Now(),
	})
}
