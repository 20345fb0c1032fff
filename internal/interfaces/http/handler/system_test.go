package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveSystem(h *SystemHandler, path string) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.GET("/health", h.Health)
	engine.GET("/system/info", h.GetSystemInfo)
	engine.GET("/system/ping", h.Ping)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSystemHandler_Info(t *testing.T) {
	w := serveSystem(NewSystemHandler("Farm Market API", "1.2.3"), "/system/info")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data SystemInfoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Farm Market API", body.Data.Name)
	assert.Equal(t, "1.2.3", body.Data.Version)
	assert.NotEmpty(t, body.Data.GoVersion)
}

func TestSystemHandler_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }

	t.Run("healthy", func(t *testing.T) {
		h := NewSystemHandler("api", "dev").AddCheck("database", ok).AddCheck("redis", ok)
		w := serveSystem(h, "/health")

		require.Equal(t, http.StatusOK, w.Code)
		var body HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, body.Checks)
	})

	t.Run("failing dependency", func(t *testing.T) {
		h := NewSystemHandler("api", "dev").
			AddCheck("database", ok).
			AddCheck("redis", func(context.Context) error { return errors.New("dial tcp: refused") })
		w := serveSystem(h, "/health")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "ok", body.Checks["database"])
		assert.Equal(t, "error", body.Checks["redis"])
		assert.NotContains(t, w.Body.String(), "refused")
	})

	t.Run("checks see a deadline", func(t *testing.T) {
		var hasDeadline bool
		h := NewSystemHandler("api", "dev").AddCheck("database", func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		})
		serveSystem(h, "/health")
		assert.True(t, hasDeadline)
	})
}

func TestSystemHandler_Ping(t *testing.T) {
	w := serveSystem(NewSystemHandler("api", "dev"), "/system/ping")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pong"`)
}
