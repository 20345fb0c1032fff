package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_Middleware(t *testing.T) {
	m := NewHTTPMetrics("farmmarket")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/products/:id", okHandler)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/products/1", "/products/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `farmmarket_http_requests_total{method="GET",route="/products/:id",status="200"} 2`))
	assert.Contains(t, body, "farmmarket_http_request_duration_seconds_bucket")
	assert.Contains(t, body, "go_goroutines")
}

func TestNewHTTPMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewHTTPMetrics("a")
		NewHTTPMetrics("a")
	})
}
