package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/farmmarket/backend/internal/domain/cart"
	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/content"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/job"
	"github.com/farmmarket/backend/internal/domain/moderation"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/farmmarket/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMarketTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: opens a separate database
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&identity.User{},
		&catalog.Category{},
		&catalog.Product{},
		&catalog.ProductVariant{},
		&inventory.StockItem{},
		&inventory.StockMovement{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.Item{},
		&subscription.Subscription{},
		&content.BlogPost{},
		&content.FarmEvent{},
		&moderation.Dispute{},
		&moderation.Message{},
		&job.Job{},
	)
	require.NoError(t, err)
	return db
}

func createTestFarmer(t *testing.T, db *gorm.DB, email, farmName string) *identity.User {
	t.Helper()
	farmer, err := identity.NewUser(email, "Harvest2024", "Farmer "+farmName, identity.RoleFarmer)
	require.NoError(t, err)
	farmer.FarmName = farmName
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), farmer))
	return farmer
}

func createTestProduct(t *testing.T, db *gorm.DB, farmerID uuid.UUID, name string, publish bool) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(farmerID, name, "kg", decimal.NewFromFloat(4.5), "USD")
	require.NoError(t, err)
	if publish {
		require.NoError(t, p.Publish())
	}
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func TestProductRepository_SaveReconcilesVariants(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	farmer := createTestFarmer(t, db, "ann@farm.test", "Green Acres")

	p := createTestProduct(t, db, farmer.ID, "Heirloom Tomatoes", false)
	_, err := p.AddVariant("TOM-5KG", "5 kg crate", decimal.NewFromInt(20))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	loaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Variants, 2)
	assert.Equal(t, p.Version, loaded.PersistedVersion())

	bulk := loaded.FindVariantBySKU("TOM-5KG")
	require.NotNil(t, bulk)
	require.NoError(t, loaded.RemoveVariant(bulk.ID))
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.FindByVariantID(ctx, loaded.Variants[0].ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Variants, 1)

	exists, err := repo.ExistsBySlug(ctx, "heirloom-tomatoes")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProductRepository_SaveDetectsStaleCopy(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	farmer := createTestFarmer(t, db, "ann@farm.test", "Green Acres")
	p := createTestProduct(t, db, farmer.ID, "Kale", false)

	first, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	name := "Curly Kale"
	require.NoError(t, first.Update(catalog.ProductUpdate{Name: &name}))
	require.NoError(t, repo.Save(ctx, first))

	other := "Lacinato Kale"
	require.NoError(t, second.Update(catalog.ProductUpdate{Name: &other}))
	assert.ErrorIs(t, repo.Save(ctx, second), shared.ErrConcurrencyConflict)
}

func TestProductRepository_SaleCountSurvivesStaleEdit(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	farmer := createTestFarmer(t, db, "ann@farm.test", "Green Acres")
	p := createTestProduct(t, db, farmer.ID, "Honey", true)

	editing, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	selling, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	selling.RecordSale(7)
	require.NoError(t, repo.Save(ctx, selling))

	name := "Raw Honey"
	require.NoError(t, editing.Update(catalog.ProductUpdate{Name: &name}))
	assert.ErrorIs(t, repo.Save(ctx, editing), shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.SoldCount)
}

func TestProductRepository_ListActiveListings(t *testing.T) {
	db := setupMarketTestDB(t)
	ctx := context.Background()
	farmer := createTestFarmer(t, db, "ann@farm.test", "Green Acres")

	active := createTestProduct(t, db, farmer.ID, "Honey", true)
	createTestProduct(t, db, farmer.ID, "Draft Jam", false)

	stock := NewGormStockRepository(db)
	item, err := inventory.NewStockItem(farmer.ID, active.ID, active.Variants[0].ID)
	require.NoError(t, err)
	require.NoError(t, stock.Create(ctx, item))
	m, err := item.Restock(12, "first jars", nil)
	require.NoError(t, err)
	require.NoError(t, stock.Save(ctx, item, m))

	listings, err := NewGormProductRepository(db).ListActiveListings(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, active.ID, listings[0].ProductID)
	assert.Equal(t, "Green Acres", listings[0].FarmName)
	assert.Equal(t, 12, listings[0].Stock)
	assert.True(t, listings[0].Price.Equal(decimal.NewFromFloat(4.5)))
}

func TestStockRepository_SaveAppendsLedger(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()
	farmerID, productID := uuid.New(), uuid.New()

	item, err := inventory.NewStockItem(farmerID, productID, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, item))

	restock, err := item.Restock(10, "harvest", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, item, restock))
	sale, err := item.Deduct(4, "ORD-1")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, item, sale))
	require.NoError(t, item.SetLowStockThreshold(6))
	require.NoError(t, repo.Save(ctx, item))

	stored, err := repo.FindByVariant(ctx, item.VariantID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Quantity)

	low, err := repo.CountLowStock(ctx, farmerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), low)

	movements, total, err := repo.ListMovements(ctx, farmerID, inventory.MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, movements, 2)
	balances := []int{movements[0].BalanceAfter, movements[1].BalanceAfter}
	assert.ElementsMatch(t, []int{10, 6}, balances)

	saleType := inventory.MovementTypeSale
	sales, total, err := repo.ListMovements(ctx, farmerID, inventory.MovementFilter{Type: &saleType})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, -4, sales[0].Quantity)
}

func TestTxManager_RollsBackRepositoryWrites(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormStockRepository(db)
	txm := NewGormTxManager(db)
	ctx := context.Background()

	item, err := inventory.NewStockItem(uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)

	err = txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, item); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = repo.FindByID(ctx, item.ID)
	assert.Equal(t, shared.ErrNotFound, err)
}

func TestCartRepository_ReplacesLines(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()
	buyerID := uuid.New()

	c := cart.NewCart(buyerID, valueobject.USD)
	line := func(name string) cart.LineInput {
		return cart.LineInput{
			ProductID:   uuid.New(),
			VariantID:   uuid.New(),
			FarmerID:    uuid.New(),
			ProductName: name,
			VariantName: "Default",
			UnitPrice:   decimal.NewFromInt(3),
		}
	}
	first, err := c.AddItem(line("Apples"), 2)
	require.NoError(t, err)
	_, err = c.AddItem(line("Pears"), 1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	stored, err := repo.FindByBuyer(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)

	require.NoError(t, stored.RemoveItem(first.ID))
	require.NoError(t, repo.Save(ctx, stored))

	stored, err = repo.FindByBuyer(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Pears", stored.Items[0].ProductName)

	require.NoError(t, repo.DeleteByBuyer(ctx, buyerID))
	_, err = repo.FindByBuyer(ctx, buyerID)
	assert.Equal(t, shared.ErrNotFound, err)
}

func newTestOrder(t *testing.T, buyerID, farmerID uuid.UUID, unitPrice int64) *order.Order {
	t.Helper()
	o, err := order.NewOrder(order.Placement{
		BuyerID:        buyerID,
		FarmerID:       farmerID,
		Currency:       valueobject.USD,
		DeliveryMethod: order.DeliveryMethodPickup,
		PaymentMethod:  order.PaymentMethodCashOnDelivery,
	}, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, o.AddItem(uuid.New(), uuid.New(), "Eggs", "Dozen", "EGG-12", decimal.NewFromInt(unitPrice), 2))
	require.NoError(t, o.Place())
	return o
}

func TestOrderRepository_CreateAndAggregate(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	buyerID, farmerID := uuid.New(), uuid.New()

	kept := newTestOrder(t, buyerID, farmerID, 5)
	require.NoError(t, repo.Create(ctx, kept))
	cancelled := newTestOrder(t, buyerID, farmerID, 7)
	require.NoError(t, repo.Create(ctx, cancelled))
	require.NoError(t, cancelled.Cancel(buyerID, "changed my mind"))
	require.NoError(t, repo.Save(ctx, cancelled))

	found, err := repo.FindByNumber(ctx, kept.OrderNumber)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "EGG-12", found.Items[0].SKU)

	revenue, err := repo.SumRevenue(ctx, &farmerID)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.NewFromInt(10)), "got %s", revenue)

	counts, err := repo.CountByStatus(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[order.StatusPending])
	assert.Equal(t, int64(1), counts[order.StatusCancelled])

	orders, total, err := repo.FindAll(ctx, shared.Filter{}.With(order.FilterStatus, string(order.StatusCancelled)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, cancelled.ID, orders[0].ID)

	exists, err := repo.ExistsForProduct(ctx, found.Items[0].ProductID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSubscriptionRepository_FindDue(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	due, err := subscription.NewSubscription(uuid.New(), subscription.PlanGrower, now.Add(-40*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, due))
	current, err := subscription.NewSubscription(uuid.New(), subscription.PlanPro, now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, current))

	subs, err := repo.FindDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, due.ID, subs[0].ID)

	counts, err := repo.CountActiveByPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[subscription.PlanGrower])
	assert.Equal(t, int64(1), counts[subscription.PlanPro])
}

func TestFarmEventRepository_FindUpcoming(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormFarmEventRepository(db)
	ctx := context.Background()
	farmerID := uuid.New()
	now := time.Now().UTC()

	newEvent := func(title string, starts time.Time) *content.FarmEvent {
		e, err := content.NewFarmEvent(farmerID, content.EventDetails{
			Title:    title,
			Location: "Barn",
			StartsAt: starts,
			EndsAt:   starts.Add(2 * time.Hour),
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, e))
		return e
	}
	later := newEvent("Harvest festival", now.Add(14*24*time.Hour))
	sooner := newEvent("Open farm day", now.Add(2*24*time.Hour))
	cancelled := newEvent("Cheese class", now.Add(3*24*time.Hour))
	require.NoError(t, cancelled.Cancel())
	require.NoError(t, repo.Save(ctx, cancelled))

	events, total, err := repo.FindUpcoming(ctx, &farmerID, now, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, events, 2)
	assert.Equal(t, sooner.ID, events[0].ID)
	assert.Equal(t, later.ID, events[1].ID)
}

func TestMessageRepository_FiltersByParticipant(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	toBob, err := moderation.NewUserMessage(alice, &bob, moderation.KindDirect, "Pickup time", "Is 5pm fine?")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, toBob))
	support, err := moderation.NewUserMessage(bob, nil, moderation.KindSupport, "Payout", "When do I get paid?")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, support))

	messages, total, err := repo.FindAll(ctx, shared.Filter{}.With(moderation.FilterParticipant, alice))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, toBob.ID, messages[0].ID)

	unread, err := repo.CountUnreadSupport(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, support.MarkRead())
	require.NoError(t, repo.Save(ctx, support))
	unread, err = repo.CountUnreadSupport(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestJobRepository_ActiveAndPending(t *testing.T) {
	db := setupMarketTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	export, err := job.NewJob(job.KindDataExport, userID)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, export))

	active, err := repo.FindActive(ctx, userID, job.KindDataExport)
	require.NoError(t, err)
	assert.Equal(t, export.ID, active.ID)

	_, err = repo.FindActive(ctx, userID, job.KindInventoryExport)
	assert.Equal(t, shared.ErrNotFound, err)

	require.NoError(t, active.Start())
	require.NoError(t, active.Succeed("exports/x/data.json", "application/json"))
	require.NoError(t, repo.Save(ctx, active))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	jobs, err := repo.ListByUser(ctx, userID, 5)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.StatusSucceeded, jobs[0].Status)
}
