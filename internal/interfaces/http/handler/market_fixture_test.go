package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	cartapp "github.com/farmmarket/backend/internal/application/cart"
	catalogapp "github.com/farmmarket/backend/internal/application/catalog"
	functionsapp "github.com/farmmarket/backend/internal/application/functions"
	inventoryapp "github.com/farmmarket/backend/internal/application/inventory"
	orderapp "github.com/farmmarket/backend/internal/application/order"
	subscriptionapp "github.com/farmmarket/backend/internal/application/subscription"
	"github.com/farmmarket/backend/internal/domain/cart"
	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/job"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/farmmarket/backend/internal/domain/subscription"
	"github.com/farmmarket/backend/internal/infrastructure/auth"
	"github.com/farmmarket/backend/internal/infrastructure/cache"
	"github.com/farmmarket/backend/internal/infrastructure/config"
	"github.com/farmmarket/backend/internal/infrastructure/event"
	"github.com/farmmarket/backend/internal/infrastructure/persistence"
	"github.com/farmmarket/backend/internal/infrastructure/storage"
	"github.com/farmmarket/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// market is the storefront, farmer and buyer API wired against sqlite
type market struct {
	engine *gin.Engine
	jwt    *auth.JWTService
	users  *persistence.GormUserRepository
	queued *queuedJobs
}

// queuedJobs records what the function service hands to the worker pool
type queuedJobs struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (q *queuedJobs) Submit(jobID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, jobID)
	return nil
}

func (q *queuedJobs) Resume(jobID uuid.UUID, _ int) error {
	return q.Submit(jobID)
}

func (q *queuedJobs) IDs() []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]uuid.UUID(nil), q.ids...)
}

func setupMarket(t *testing.T) *market {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
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
		&job.Job{},
	))

	log := zap.NewNop()
	bus := event.NewInMemoryEventBus(log)
	listings := cache.NewInMemoryCatalogCache(time.Minute)
	bus.Subscribe(catalogapp.NewCacheInvalidator(listings, log))

	txManager := persistence.NewGormTxManager(db)
	users := persistence.NewGormUserRepository(db)
	products := persistence.NewGormProductRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	stock := persistence.NewGormStockRepository(db)
	carts := persistence.NewGormCartRepository(db)
	orders := persistence.NewGormOrderRepository(db)

	plans := subscriptionapp.NewSubscriptionService(persistence.NewGormSubscriptionRepository(db), products, bus, log)
	browseService := catalogapp.NewBrowseService(products, categories, stock, listings, log)
	productService := catalogapp.NewProductService(
		products, categories, stock, orders, plans, txManager, bus, string(valueobject.USD), log,
	)
	stockService := inventoryapp.NewStockService(stock, products, bus, log)
	cartService := cartapp.NewCartService(carts, products, stock, valueobject.USD, log)
	checkoutService := orderapp.NewCheckoutService(
		carts, products, stock, orders, txManager, cache.NewInMemoryIdempotencyStore(), bus,
		orderapp.CheckoutConfig{
			Currency:              valueobject.USD,
			ShippingFee:           decimal.RequireFromString("5.00"),
			FreeShippingThreshold: decimal.RequireFromString("50.00"),
			PickupEnabled:         true,
			IdempotencyTTL:        time.Hour,
		}, log,
	)
	queued := &queuedJobs{}
	functionService := functionsapp.NewFunctionService(functionsapp.Deps{
		Jobs:      persistence.NewGormJobRepository(db),
		Users:     users,
		Store:     storage.NewMemoryObjectStorage(time.Minute),
		Publisher: bus,
	}, time.Minute, log)
	functionService.SetDispatcher(queued)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "market-handler-test-secret-of-enough-length",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "farmmarket-test",
		MaxRefreshCount:        5,
	})
	jwtAuth := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: auth.NewInMemoryTokenBlacklist(),
		Logger:         log,
	})

	catalogHandler := NewCatalogHandler(browseService)
	productHandler := NewProductHandler(productService)
	stockHandler := NewStockHandler(stockService)
	cartHandler := NewCartHandler(cartService)
	checkoutHandler := NewCheckoutHandler(checkoutService)
	functionHandler := NewFunctionHandler(functionService)

	engine := gin.New()
	engine.GET("/catalog/products", catalogHandler.Browse)
	engine.GET("/catalog/products/:idOrSlug", catalogHandler.GetProduct)

	signedIn := engine.Group("", jwtAuth)
	signedIn.POST("/farmer/products", productHandler.Create)
	signedIn.POST("/farmer/products/:id/publish", productHandler.Publish)
	signedIn.GET("/farmer/stock", stockHandler.List)
	signedIn.POST("/farmer/stock/:variant_id/restock", stockHandler.Restock)
	signedIn.POST("/farmer/stock/:variant_id/adjust", stockHandler.Adjust)
	signedIn.GET("/cart", cartHandler.Get)
	signedIn.POST("/cart/items", cartHandler.AddItem)
	signedIn.PUT("/cart/items/:id", cartHandler.UpdateItem)
	signedIn.DELETE("/cart/items/:id", cartHandler.RemoveItem)
	signedIn.DELETE("/cart", cartHandler.Clear)
	signedIn.POST("/checkout/quote", checkoutHandler.Quote)
	signedIn.POST("/checkout/orders", checkoutHandler.PlaceOrder)
	signedIn.POST("/functions/data-export", functionHandler.DataExport)
	signedIn.POST("/functions/inventory-export", functionHandler.InventoryExport)
	signedIn.GET("/functions/jobs", functionHandler.ListJobs)
	signedIn.GET("/functions/jobs/:id", functionHandler.GetJob)

	return &market{engine: engine, jwt: jwtService, users: users, queued: queued}
}

// signUp stores an active account and returns it with an access token
func (m *market) signUp(t *testing.T, role identity.Role, farmName string) (*identity.User, string) {
	t.Helper()
	u, err := identity.NewUser(uuid.NewString()[:8]+"@example.com", "harvest2026", "Test "+string(role), role)
	require.NoError(t, err)
	if farmName != "" {
		require.NoError(t, u.SetFarmName(farmName))
	}
	require.NoError(t, m.users.Save(context.Background(), u))
	u.ClearDomainEvents()

	pair, err := m.jwt.GenerateTokenPair(auth.Subject{UserID: u.ID, Role: string(u.Role), Email: u.Email})
	require.NoError(t, err)
	return u, pair.AccessToken
}

// send issues a JSON request; headers are given as name, value pairs
func (m *market) send(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	m.engine.ServeHTTP(w, req)
	return w
}

// listProduct creates and publishes a product, optionally with stock
func (m *market) listProduct(t *testing.T, token, name, price string, organic bool, stock int) catalogapp.ProductResponse {
	t.Helper()
	w := m.send(http.MethodPost, "/farmer/products", map[string]any{
		"name": name, "unit": "kg", "price": price, "organic": organic,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[catalogapp.ProductResponse](t, w)

	w = m.send(http.MethodPost, "/farmer/products/"+created.ID.String()+"/publish", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	published := decodeData[catalogapp.ProductResponse](t, w)

	if stock > 0 {
		w = m.send(http.MethodPost, "/farmer/stock/"+published.Variants[0].ID.String()+"/restock",
			map[string]any{"quantity": stock, "note": "harvest"}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	return published
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Data
}
