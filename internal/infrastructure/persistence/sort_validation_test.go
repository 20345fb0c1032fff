package persistence

import (
	"testing"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "DESC"},
		{"asc", "ASC"},
		{"  ASC ", "ASC"},
		{"desc", "DESC"},
		{"ascending", "DESC"},
		{"ASC; DROP TABLE orders;--", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowed  map[string]bool
		fallback string
		expected string
	}{
		{"listing price", "price", ProductSortFields, "created_at", "price"},
		{"best sellers", " sold_count ", ProductSortFields, "created_at", "sold_count"},
		{"order total", "total", OrderSortFields, "created_at", "total"},
		{"event start", "starts_at", FarmEventSortFields, "created_at", "starts_at"},
		{"column of another table", "price", OrderSortFields, "created_at", "created_at"},
		{"password hash never sortable", "password_hash", UserSortFields, "created_at", "created_at"},
		{"case sensitive", "PRICE", ProductSortFields, "created_at", "created_at"},
		{"empty uses fallback", "", SubscriptionSortFields, "current_period_end", "current_period_end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, tt.allowed, tt.fallback))
		})
	}
}

func TestValidateSortField_RejectsInjection(t *testing.T) {
	payloads := []string{
		"price; DROP TABLE products;--",
		"price' OR '1'='1",
		"price UNION SELECT password_hash FROM users",
		"(SELECT email FROM users LIMIT 1)",
		"price/**/DESC",
		"price\n; DELETE FROM orders",
	}
	for _, payload := range payloads {
		assert.Equal(t, "created_at", ValidateSortField(payload, ProductSortFields, "created_at"), payload)
		assert.Equal(t, "DESC", ValidateSortOrder(payload), payload)
	}
}

func TestApplyPaging_BuildsSafeOrderClause(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	dry := db.Session(&gorm.Session{DryRun: true})

	tests := []struct {
		name   string
		filter shared.Filter
		want   string
	}{
		{
			name:   "allowed field and direction",
			filter: shared.Filter{Page: 3, PageSize: 10, OrderBy: "price", OrderDir: "asc"},
			want:   "ORDER BY price ASC",
		},
		{
			name:   "unknown field falls back",
			filter: shared.Filter{Page: 1, PageSize: 20, OrderBy: "farmer_id; --", OrderDir: "sideways"},
			want:   "ORDER BY created_at DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var products []catalog.Product
			stmt := applyPaging(dry.Model(&catalog.Product{}), tt.filter, ProductSortFields, "created_at").
				Find(&products).Statement
			sql := stmt.SQL.String()
			assert.Contains(t, sql, tt.want)
			assert.NotContains(t, sql, "--")
			assert.Contains(t, sql, "LIMIT")
		})
	}
}
