package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/interfaces/http/dto"
	"github.com/farmmarket/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Success bool           `json:"success"`
	Error   *dto.ErrorInfo `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error, "expected an error payload: %s", w.Body.String())
	return body
}

func runHandler(t *testing.T, fn gin.HandlerFunc, mw ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	engine := gin.New()
	handlers := append(mw, fn)
	engine.GET("/items/:id", handlers...)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/"+uuid.NewString(), nil))
	return w
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found suffix", shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found"), http.StatusNotFound, "ERR_PRODUCT_NOT_FOUND"},
		{"invalid prefix", shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive"), http.StatusBadRequest, "ERR_INVALID_QUANTITY"},
		{"conflict table", shared.NewDomainError("EMAIL_TAKEN", "Email already registered"), http.StatusConflict, "ERR_EMAIL_TAKEN"},
		{"forbidden", shared.NewDomainError("FORBIDDEN", "Not your order"), http.StatusForbidden, dto.ErrCodeForbidden},
		{"business rule", shared.NewDomainError("ORDER_NOT_CANCELLABLE", "Order already shipped"), http.StatusUnprocessableEntity, "ERR_ORDER_NOT_CANCELLABLE"},
		{"wrapped domain error", fmt.Errorf("checkout: %w", shared.NewDomainError("CART_EMPTY", "Cart is empty")), http.StatusUnprocessableEntity, "ERR_CART_EMPTY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := runHandler(t, func(c *gin.Context) { h.HandleError(c, tt.err) })

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestBaseHandler_HandleError_HidesUnknownErrors(t *testing.T) {
	h := &BaseHandler{}
	w := runHandler(t, func(c *gin.Context) {
		h.HandleError(c, errors.New("pq: connection refused to 10.0.0.5"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeInternal, body.Error.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestBaseHandler_ErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/fail", func(c *gin.Context) { h.BadRequest(c, "nope") })

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	body := decodeError(t, w)
	assert.Equal(t, "req-123", body.Error.RequestID)
}

func TestBaseHandler_Responses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("accepted", func(t *testing.T) {
		w := runHandler(t, func(c *gin.Context) { h.Accepted(c, map[string]string{"status": "pending"}) })
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"pending"`)
	})

	t.Run("no content", func(t *testing.T) {
		w := runHandler(t, func(c *gin.Context) { h.NoContent(c) })
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("paginated meta", func(t *testing.T) {
		page := shared.NewPaginated([]string{"a", "b"}, 5, 2, 2)
		w := runHandler(t, func(c *gin.Context) { Paginated(c, page) })

		require.Equal(t, http.StatusOK, w.Code)
		var body dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.NotNil(t, body.Meta)
		assert.Equal(t, int64(5), body.Meta.Total)
		assert.Equal(t, 2, body.Meta.Page)
		assert.Equal(t, 2, body.Meta.PageSize)
		assert.Equal(t, 3, body.Meta.TotalPages)
	})
}

func TestBaseHandler_Params(t *testing.T) {
	h := &BaseHandler{}

	t.Run("user required", func(t *testing.T) {
		w := runHandler(t, func(c *gin.Context) {
			if _, ok := h.userID(c); ok {
				c.Status(http.StatusOK)
			}
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, w).Error.Code)
	})

	t.Run("path uuid", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/items/:id", func(c *gin.Context) {
			if _, ok := h.pathUUID(c, "id"); ok {
				c.Status(http.StatusOK)
			}
		})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid id format", decodeError(t, w).Error.Message)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("query uuid", func(t *testing.T) {
		var got *uuid.UUID
		engine := gin.New()
		engine.GET("/items", func(c *gin.Context) {
			got = nil
			if h.queryUUID(c, "category_id", &got) {
				c.Status(http.StatusOK)
			}
		})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, got)

		id := uuid.New()
		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items?category_id="+id.String(), nil))
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, got)
		assert.Equal(t, id, *got)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items?category_id=nope", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
