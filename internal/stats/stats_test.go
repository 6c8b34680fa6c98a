package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	assert.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.updateChan, "expected updateChan to be initialized")
	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")
}

func TestStatsUpdater_IncrDecr(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	su.RegisterMetric(NumActiveClients)
	su.RegisterMetric(NumActiveClients) // registering twice keeps the counter
	su.Run()
	defer su.Stop()

	su.Incr(NumActiveClients)
	su.Incr(NumActiveClients)
	su.Decr(NumActiveClients)

	assert.Eventually(t, func() bool {
		return su.vars.Get(NumActiveClients).String() == "1"
	}, time.Second, 10*time.Millisecond, "expected counter to settle at 1")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body[NumActiveClients], "expected counter in response")
	assert.Contains(t, body, "Uptime", "expected uptime in response")
}

func TestStatsUpdater_updateAfterStop(t *testing.T) {
	su := NewStatsUpdater(http.NewServeMux())
	su.RegisterMetric(NumChatMessages)
	su.Run()

	su.Incr(NumChatMessages)
	assert.Eventually(t, func() bool {
		return su.vars.Get(NumChatMessages).String() == "1"
	}, time.Second, 10*time.Millisecond, "expected counter to reach 1")

	su.Stop()
	su.Stop()

	assert.NotPanics(t, func() {
		for i := 0; i < cap(su.updateChan)+1; i++ {
			su.Incr(NumChatMessages)
			su.Decr(NumChatMessages)
		}
	}, "expected updates after Stop to be dropped")
}
