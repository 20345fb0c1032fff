package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	catalogapp "github.com/farmmarket/backend/internal/application/catalog"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingNames(t *testing.T, m *market, query string) []string {
	t.Helper()
	w := m.send(http.MethodGet, "/catalog/products"+query, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	listings := decodeData[[]ListingResponse](t, w)
	names := make([]string, len(listings))
	for i, l := range listings {
		names[i] = l.Name
	}
	return names
}

func TestCatalogHandler_BrowseQuery(t *testing.T) {
	m := setupMarket(t)
	_, farmer := m.signUp(t, identity.RoleFarmer, "Hill Farm")
	m.listProduct(t, farmer, "Carrots", "2.50", false, 10)
	m.listProduct(t, farmer, "Kale", "3.50", true, 0)
	m.listProduct(t, farmer, "Honey", "9.00", false, 4)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"min price", "?min_price=3&sort=price_asc", []string{"Kale", "Honey"}},
		{"max price", "?max_price=3.50&sort=price_asc", []string{"Carrots", "Kale"}},
		{"organic", "?organic=true", []string{"Kale"}},
		{"in stock", "?in_stock=true&sort=name_asc", []string{"Carrots", "Honey"}},
		{"price descending", "?sort=price_desc", []string{"Honey", "Kale", "Carrots"}},
		{"search", "?search=hon", []string{"Honey"}},
		{"unknown sort falls back to newest", "?sort=cheapest", []string{"Honey", "Kale", "Carrots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listingNames(t, m, tt.query))
		})
	}

	t.Run("paging meta", func(t *testing.T) {
		w := m.send(http.MethodGet, "/catalog/products?page=2&page_size=2&sort=name_asc", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var body dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.NotNil(t, body.Meta)
		assert.Equal(t, int64(3), body.Meta.Total)
		assert.Equal(t, 2, body.Meta.TotalPages)
		assert.Equal(t, []string{"Kale"}, listingNames(t, m, "?page=2&page_size=2&sort=name_asc"))
	})

	t.Run("malformed parameters", func(t *testing.T) {
		for _, query := range []string{"?min_price=cheap", "?organic=maybe", "?category_id=nope", "?page_size=500"} {
			w := m.send(http.MethodGet, "/catalog/products"+query, nil, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, query)
		}
	})
}

func TestCatalogHandler_GetProduct(t *testing.T) {
	m := setupMarket(t)
	_, farmer := m.signUp(t, identity.RoleFarmer, "Hill Farm")
	listed := m.listProduct(t, farmer, "Sweet Corn", "1.20", false, 6)

	for _, key := range []string{listed.Slug, listed.ID.String()} {
		w := m.send(http.MethodGet, "/catalog/products/"+key, nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decodeData[catalogapp.ProductResponse](t, w)
		assert.Equal(t, listed.ID, got.ID)
		require.Len(t, got.Variants, 1)
		assert.Equal(t, 6, got.Variants[0].Stock)
	}

	w := m.send(http.MethodPost, "/farmer/products", map[string]any{"name": "Draft Beans", "unit": "kg", "price": "3.00"}, farmer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decodeData[catalogapp.ProductResponse](t, w)

	w = m.send(http.MethodGet, "/catalog/products/"+draft.Slug, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_PRODUCT_NOT_FOUND", decodeError(t, w).Error.Code)
}

func TestProductHandler_PlanLimitIsUnprocessable(t *testing.T) {
	m := setupMarket(t)
	_, farmer := m.signUp(t, identity.RoleFarmer, "Small Plot")

	// the free plan holds five products
	for _, name := range []string{"Apples", "Pears", "Plums", "Figs", "Quince"} {
		w := m.send(http.MethodPost, "/farmer/products", map[string]any{"name": name, "unit": "kg", "price": "2.00"}, farmer)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := m.send(http.MethodPost, "/farmer/products", map[string]any{"name": "Cherries", "unit": "kg", "price": "6.00"}, farmer)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_PLAN_LIMIT_REACHED", decodeError(t, w).Error.Code)
}
