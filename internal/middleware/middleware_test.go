package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantHealth string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ReadinessHandler(map[string]HealthChecker{
				"store": &StoreHealthChecker{Store: fakePinger{err: tt.err}},
			})
			rec := httptest.NewRecorder()

			h(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantHealth, got.Status)
			assert.Equal(t, tt.wantHealth, got.Checks["store"].Status)
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), got.Checks["store"].Message)
			}
		})
	}
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/analysis", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/analysis", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, 5, fields["bytes"])
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Post("/admin/records/{id}/feedback", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodPost, "/admin/records/{id}/feedback", "202")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/records/"+id+"/feedback", nil))
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestObserveAnalysis(t *testing.T) {
	counter := analysesTotal.WithLabelValues(OutcomeSaved)
	before := testutil.ToFloat64(counter)

	ObserveAnalysis(OutcomeSaved)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
