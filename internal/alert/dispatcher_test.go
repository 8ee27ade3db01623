package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowguard/internal/models"
)

func TestDue(t *testing.T) {
	now := int64(1_700_000_000_000)
	tt := []struct {
		name      string
		status    models.Status
		lastAlert int64
		exp       bool
	}{
		{name: "danger past cooldown", status: models.StatusDanger, lastAlert: now - CooldownMS - 1, exp: true},
		{name: "danger within cooldown", status: models.StatusDanger, lastAlert: now - CooldownMS, exp: false},
		{name: "danger just alerted", status: models.StatusDanger, lastAlert: now - 5000, exp: false},
		{name: "danger never alerted", status: models.StatusDanger, lastAlert: 0, exp: true},
		{name: "safe never alerts", status: models.StatusSafe, lastAlert: 0, exp: false},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, Due(tc.status, tc.lastAlert, now))
		})
	}
}

func TestNotifyDelivers(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "secret-key", time.Second)
	n.Notify(models.HistoryEntry{
		CompactReading: models.CompactReading{R: 150, La: -6.2, Lo: 106.8},
		S:              models.StatusDanger,
	})

	assert.Equal(t, "Basic secret-key", gotAuth)
	assert.Equal(t, "Water flow alert", gotBody["title"])
	assert.Contains(t, gotBody["message"], "150 rotations")
	assert.Contains(t, gotBody["message"], "-6.20000")
}

func TestNotifySwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	// Neither a provider error nor an unreachable host may panic or block.
	n := NewNotifier(srv.URL, "k", time.Second)
	n.Notify(models.HistoryEntry{S: models.StatusDanger})

	n = NewNotifier("http://127.0.0.1:1", "k", 100*time.Millisecond)
	n.Notify(models.HistoryEntry{S: models.StatusDanger})
}

func TestNotifyDisabledWithoutURL(t *testing.T) {
	n := NewNotifier("", "", time.Second)
	n.Notify(models.HistoryEntry{S: models.StatusDanger})
}
