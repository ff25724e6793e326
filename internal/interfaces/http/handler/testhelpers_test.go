package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inventrack/backend/internal/application/livequery"
	"github.com/inventrack/backend/internal/application/retry"
	appsales "github.com/inventrack/backend/internal/application/sales"
	appstock "github.com/inventrack/backend/internal/application/stock"
	"github.com/inventrack/backend/internal/infrastructure/cache"
	"github.com/inventrack/backend/internal/infrastructure/event"
	"github.com/inventrack/backend/internal/infrastructure/logger"
	"github.com/inventrack/backend/internal/infrastructure/persistence"
	"github.com/inventrack/backend/internal/interfaces/http/dto"
	"github.com/inventrack/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const (
	userA = "user-a"
	userB = "user-b"
)

// testEnv is the HTTP surface over real services on an in-memory database
type testEnv struct {
	router *gin.Engine
	db     *persistence.Database
	hub    *livequery.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := persistence.NewDatabaseWithDialector(sqlite.Open(":memory:"), nil, nil)
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	log := zap.NewNop()
	policy := retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	bus := event.NewInMemoryEventBus(log)

	itemService := appstock.NewItemService(persistence.NewGormItemRepository(db.DB), log, appstock.ItemServiceConfig{
		Retry:             policy,
		LowStockThreshold: 5,
	})
	itemService.SetEventPublisher(bus)
	categoryService := appstock.NewCategoryService(persistence.NewGormCategoryRepository(db.DB), log)
	categoryService.SetEventPublisher(bus)
	saleService := appsales.NewSaleService(
		persistence.NewGormTransactionScope(db.DB),
		persistence.NewGormSaleRepository(db.DB),
		log,
		appsales.Config{Retry: policy, Location: time.UTC},
	)
	saleService.SetEventPublisher(bus)

	hub := livequery.NewHub(itemService, saleService, log, livequery.Config{LoadTimeout: time.Second})
	bus.Subscribe(hub)
	t.Cleanup(hub.Close)

	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })

	sales := NewSaleHandler(saleService, SaleHandlerConfig{Idempotency: idempotency, Location: time.UTC})
	items := NewItemHandler(itemService)
	categories := NewCategoryHandler(categoryService)
	live := NewLiveHandler(hub, 50*time.Millisecond, time.UTC)

	router := gin.New()
	router.Use(middleware.RequestID(), logger.GinMiddleware(log), logger.Recovery(log))
	router.GET("/health", NewHealthHandler(db, hub.SubscriptionCount).Health)

	api := router.Group("/api/v1", middleware.Auth(middleware.AuthConfig{AllowHeaderUser: true}))
	api.POST("/sales", sales.Create)
	api.GET("/sales", sales.List)
	api.POST("/sales/purge", sales.Purge)
	api.POST("/sales/purge-today", sales.PurgeToday)
	api.GET("/sales/:id", sales.Get)
	api.PUT("/sales/:id", sales.Update)
	api.DELETE("/sales/:id", sales.Delete)
	api.POST("/items", items.Create)
	api.GET("/items", items.List)
	api.DELETE("/items", items.DeleteAll)
	api.GET("/items/low-stock", items.LowStock)
	api.GET("/items/:id", items.Get)
	api.PUT("/items/:id", items.Update)
	api.DELETE("/items/:id", items.Delete)
	api.POST("/categories", categories.Create)
	api.GET("/categories", categories.List)
	api.DELETE("/categories/:id", categories.Delete)
	api.GET("/live/:query", live.Stream)

	return &testEnv{router: router, db: db, hub: hub}
}

// do sends a request as user with an optional JSON body and extra headers
func (e *testEnv) do(t *testing.T, method, path, user string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.DefaultUserHeader, user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope and, when data is non-nil, its data field
func decode(t *testing.T, w *httptest.ResponseRecorder, data any) dto.Response {
	t.Helper()

	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data), w.Body.String())
	}
	return raw.Response
}

// createItem adds an item selling at 100 and costing 60
func (e *testEnv) createItem(t *testing.T, user, name string, quantity int) appstock.ItemResponse {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/items", user, map[string]any{
		"name":          name,
		"category":      "Tools",
		"quantity":      quantity,
		"buying_price":  "60",
		"selling_price": "100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var item appstock.ItemResponse
	decode(t, w, &item)
	return item
}

func (e *testEnv) quantityOf(t *testing.T, user string, item appstock.ItemResponse) int {
	t.Helper()

	w := e.do(t, http.MethodGet, "/api/v1/items/"+item.ID.String(), user, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var current appstock.ItemResponse
	decode(t, w, &current)
	return current.Quantity
}
