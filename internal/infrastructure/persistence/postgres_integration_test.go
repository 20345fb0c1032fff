//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/infrastructure/migration"
	"github.com/farmmarket/backend/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupPostgres starts a throwaway PostgreSQL container and applies the
// embedded migrations. Run with: go test -tags integration ./...
func setupPostgres(t *testing.T) (*gorm.DB, *migration.Migrator) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("farmmarket_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m := migrateUp(t, sqlDB)
	return db, m
}

func migrateUp(t *testing.T, sqlDB *sql.DB) *migration.Migrator {
	t.Helper()
	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return m
}

func TestPostgres_MigrationsRoundTrip(t *testing.T) {
	db, m := setupPostgres(t)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.NotZero(t, version)

	require.NoError(t, m.Down())
	var tables int64
	require.NoError(t, db.Raw(`
		SELECT COUNT(*) FROM pg_tables
		WHERE schemaname = 'public' AND tablename != 'schema_migrations'
	`).Scan(&tables).Error)
	assert.Zero(t, tables)

	require.NoError(t, m.Up())
}

func TestPostgres_UserEmailIsUnique(t *testing.T) {
	db, _ := setupPostgres(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	first, err := identity.NewUser("ann@farm.test", "Harvest2024", "Ann", identity.RoleBuyer)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	dup, err := identity.NewUser("ANN@farm.test", "Harvest2024", "Ann again", identity.RoleBuyer)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)

	found, err := repo.FindByEmail(ctx, "Ann@Farm.Test")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestPostgres_ListingsAndStockLedger(t *testing.T) {
	db, _ := setupPostgres(t)
	ctx := context.Background()
	farmer := createTestFarmer(t, db, "bob@farm.test", "Sunny Side")
	product := createTestProduct(t, db, farmer.ID, "Wildflower Honey", true)

	stock := NewGormStockRepository(db)
	item, err := inventory.NewStockItem(farmer.ID, product.ID, product.Variants[0].ID)
	require.NoError(t, err)
	require.NoError(t, stock.Create(ctx, item))
	restock, err := item.Restock(8, "spring harvest", nil)
	require.NoError(t, err)
	require.NoError(t, stock.Save(ctx, item, restock))

	listings, err := NewGormProductRepository(db).ListActiveListings(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Sunny Side", listings[0].FarmName)
	assert.Equal(t, 8, listings[0].Stock)

	stale, err := stock.FindByVariant(ctx, item.VariantID)
	require.NoError(t, err)
	sale, err := item.Deduct(3, "ORD-1")
	require.NoError(t, err)
	require.NoError(t, stock.Save(ctx, item, sale))

	// a second writer holding the pre-sale copy must not overwrite it
	_, err = stale.Deduct(8, "ORD-2")
	require.NoError(t, err)
	assert.ErrorIs(t, stock.Save(ctx, stale), shared.ErrConcurrencyConflict)

	current, err := stock.FindByVariant(ctx, item.VariantID)
	require.NoError(t, err)
	assert.Equal(t, 5, current.Quantity)
}

func TestPostgres_OrderRevenue(t *testing.T) {
	db, _ := setupPostgres(t)
	ctx := context.Background()
	farmer := createTestFarmer(t, db, "cy@farm.test", "Orchard Lane")
	buyer, err := identity.NewUser("dee@buyer.test", "Harvest2024", "Dee", identity.RoleBuyer)
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(ctx, buyer))

	repo := NewGormOrderRepository(db)
	placed := newTestOrder(t, buyer.ID, farmer.ID, 6)
	require.NoError(t, repo.Create(ctx, placed))

	revenue, err := repo.SumRevenue(ctx, &farmer.ID)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.NewFromInt(12)), "got %s", revenue)

	counts, err := repo.CountByStatus(ctx, &farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[order.StatusPending])
}
