package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/config"
	"github.com/yeremiapane/snooker-cafe/database"
	"github.com/yeremiapane/snooker-cafe/live"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/router"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
)

var (
	t0    = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	dbSeq atomic.Int64
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testApp struct {
	db     *gorm.DB
	clock  *stepClock
	svc    *services.Services
	router *gin.Engine
	tables []models.Table
}

// setupApp builds the full router on a seeded SQLite in-memory DB. Seed gives Snooker
// tables 1-4 (5/min, 120/frame) and Pool tables 5-10.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	db, err := database.Open("sqlite", fmt.Sprintf("file:ctrl_%d?mode=memory&cache=shared", dbSeq.Add(1)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db))

	app := &testApp{db: db, clock: &stepClock{now: t0}}
	app.svc = services.New(db, billing.NewEstimator(app.clock, billing.DefaultConfig()))
	app.router = router.SetupRouter(router.Deps{
		DB:       db,
		Services: app.svc,
		Hub:      live.NewHub(),
		Config: config.Config{
			CORSOrigin:         "*",
			RateLimitPerSecond: 10000,
			CurrencySymbol:     "₹",
			UPIPayeeID:         "cafe@upi",
			UPIPayeeName:       "Cue Club",
		},
	})
	require.NoError(t, db.Order("id").Find(&app.tables).Error)
	return app
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}
