package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/ping-relay/internal/infra"
	"github.com/fpt/ping-relay/internal/repository"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		state      func() string
		wantCode   int
		wantStatus string
	}{
		{"no gateway", nil, http.StatusOK, "ok"},
		{"connected", func() string { return "connected" }, http.StatusOK, "ok"},
		{"reconnecting", func() string { return "connecting" }, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(Options{Service: "relay", GatewayState: tt.state})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			var body healthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, "relay", body.Service)
		})
	}
}

func TestQueueDepth(t *testing.T) {
	store, err := infra.OpenQueueStore("sqlite://"+filepath.Join(t.TempDir(), "queues.db"), infra.QueueStoreOptions{})
	require.NoError(t, err)
	defer store.Close()

	q := store.Queue("pingqueue")
	for i := 0; i < 3; i++ {
		_, err := q.Send(context.Background(), "body")
		require.NoError(t, err)
	}

	router := NewRouter(Options{Service: "relay", Queues: []repository.Queue{q}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/queues/pingqueue", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"pingqueue","depth":3}`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/queues/other", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/queues/pingqueue", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
