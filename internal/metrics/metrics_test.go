package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	rec.Intent("shuffle_round", OutcomeApplied)
	rec.Intent("shuffle_round", OutcomeApplied)
	rec.Intent("shuffle_round", OutcomeRefused)
	rec.Refusal("insufficient_players")
	rec.MatchClosed(25 * time.Minute)
	rec.MatchClosed(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.intents.WithLabelValues("shuffle_round", OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.intents.WithLabelValues("shuffle_round", OutcomeRefused)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.refusals.WithLabelValues("insufficient_players")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.matchDuration))

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cueboard_intents_total")
	assert.Contains(t, rr.Body.String(), "cueboard_match_duration_seconds_count 1")
}

func TestNilRecorder(t *testing.T) {
	var rec *Recorder

	assert.NotPanics(t, func() {
		rec.Intent("start_match", OutcomeFailed)
		rec.Refusal("open_matches")
		rec.MatchClosed(time.Minute)
	})
}
