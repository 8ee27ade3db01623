package alert

import (
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"flowguard/internal/metrics"
	"flowguard/internal/models"
)

// CooldownMS is the minimum gap between two outbound alerts. Alerting is
// level-triggered on purpose: a sustained danger condition re-notifies once
// per cooldown window instead of only on the SAFE-to-DANGER edge, and never
// more than once per window regardless of how often the device reports.
const CooldownMS = 60000

// Due reports whether a new outbound alert should fire given the previously
// persisted alert time. The store's commit script evaluates this same gate
// atomically against the stored record.
func Due(status models.Status, lastAlert, now int64) bool {
	return status == models.StatusDanger && now-lastAlert > CooldownMS
}

// Notifier delivers push alerts to the notification provider. Delivery is
// best-effort: failures are logged, never retried and never surfaced to the
// ingestion path.
type Notifier struct {
	client *resty.Client
	url    string
	key    string
}

// NewNotifier creates a notifier posting to url with the given credential.
// An empty url disables outbound alerts.
func NewNotifier(url, key string, timeout time.Duration) *Notifier {
	return &Notifier{
		client: resty.New().SetTimeout(timeout),
		url:    url,
		key:    key,
	}
}

type pushMessage struct {
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Notify pushes one alert for a dangerous reading.
func (n *Notifier) Notify(entry models.HistoryEntry) {
	if n.url == "" {
		return
	}

	msg := pushMessage{
		Title: "Water flow alert",
		Message: fmt.Sprintf("Dangerous flow detected: %d rotations at (%.5f, %.5f)",
			entry.R, entry.La, entry.Lo),
		Lat: entry.La,
		Lon: entry.Lo,
	}

	resp, err := n.client.R().
		SetHeader("Authorization", "Basic "+n.key).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(n.url)
	if err != nil {
		metrics.AlertsSent.WithLabelValues("error").Inc()
		log.Printf("Alert delivery failed: %v", err)
		return
	}
	if resp.IsError() {
		metrics.AlertsSent.WithLabelValues("error").Inc()
		log.Printf("Alert delivery rejected: %s: %s", resp.Status(), resp.Body())
		return
	}

	metrics.AlertsSent.WithLabelValues("success").Inc()
	log.Printf("Alert delivered: %d rotations", entry.R)
}
