package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"flowguard/internal/metrics"
	"flowguard/internal/models"
)

var csvHeader = []string{"pulses", "rotations", "lat", "lon", "status", "timestamp", "datetime"}

// ExportCSV handles GET /export. The date parameter is optional: without it
// the most recent retained entries are exported. Rows come out in ascending
// time order, with both the raw epoch timestamp and a human-readable time in
// the data timezone.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(r.Method, "/export").Observe(time.Since(start).Seconds())
	}()

	day := r.URL.Query().Get("date")
	name := "all"
	if day != "" {
		if _, _, err := models.DayBounds(day, h.loc); err != nil {
			metrics.RequestsTotal.WithLabelValues(r.Method, "/export", "400").Inc()
			writeError(w, http.StatusBadRequest, "invalid_format", "date must be YYYY-MM-DD", day)
			return
		}
		name = day
	}

	entries, err := h.store.History(r.Context(), day, exportPageLimit, true)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(r.Method, "/export", "500").Inc()
		writeError(w, http.StatusInternalServerError, "store_unavailable", err.Error(), nil)
		return
	}

	metrics.RequestsTotal.WithLabelValues(r.Method, "/export", "200").Inc()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="flow-history-%s.csv"`, name))

	cw := csv.NewWriter(w)
	cw.Write(csvHeader)
	for _, e := range entries {
		v := e.View()
		cw.Write([]string{
			strconv.FormatInt(v.Pulses, 10),
			strconv.FormatInt(v.Rotations, 10),
			strconv.FormatFloat(v.Lat, 'f', -1, 64),
			strconv.FormatFloat(v.Lon, 'f', -1, 64),
			string(v.Status),
			strconv.FormatInt(v.Timestamp, 10),
			time.UnixMilli(v.Timestamp).In(h.loc).Format("2006-01-02 15:04:05"),
		})
	}
	cw.Flush()
}
