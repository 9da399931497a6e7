package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/config"
	"github.com/yeremiapane/snooker-cafe/database"
	"github.com/yeremiapane/snooker-cafe/live"
	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/router"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestEndToEndIntegration runs the main flow against a real HTTP server:
// 1. A dashboard subscribes to /ws
// 2. Staff start a 1-minute timer and add a snack
// 3. The booked minute runs out and the session is auto-billed
// 4. The dashboard sees the bill and the table is free again
func TestEndToEndIntegration(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := database.Open("sqlite", "file:e2e?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db))

	clock := &manualClock{now: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)}
	svc := services.New(db, billing.NewEstimator(clock, billing.DefaultConfig()))
	hub := live.NewHub()
	changes := services.NewChangeMonitor(db, hub, time.Second)
	autoBill := services.NewAutoBillMonitor(svc.Sessions, time.Second)

	srv := httptest.NewServer(router.SetupRouter(router.Deps{
		DB:       db,
		Services: svc,
		Hub:      hub,
		Config:   config.Config{CORSOrigin: "*", RateLimitPerSecond: 1000, CurrencySymbol: "₹"},
	}))
	defer srv.Close()

	// 1. Dashboard connects
	ws := dialDashboard(t, srv.URL)
	defer ws.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// 2. Start a session and order a snack
	var table models.Table
	require.NoError(t, db.Order("id").First(&table).Error)
	menu := models.MenuItem{Name: "Nachos", Price: 90, Stock: 4, Available: true}
	require.NoError(t, db.Create(&menu).Error)

	var session models.ActiveSession
	postJSON(t, srv.URL+"/activetables/start", map[string]interface{}{
		"table_id": table.ID, "booking_type": "timer", "duration_minutes": 1, "customer_name": "Walk-in",
	}, http.StatusCreated, &session)

	req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/activetables/%d", srv.URL, session.ID),
		strings.NewReader(fmt.Sprintf(`{"cart_adjust":[{"menu_item_id":%d,"delta":1}]}`, menu.ID)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Positive(t, changes.RunOnce())
	waitEvent(t, ws, live.EventSessionStart)

	// 3. Time runs out
	clock.Advance(61 * time.Second)
	bills := autoBill.RunOnce(context.Background())
	require.Len(t, bills, 1)
	assert.True(t, bills[0].AutoGenerated)
	assert.InDelta(t, 5.0+90.0, bills[0].TotalAmount, 0.001)
	assert.Empty(t, autoBill.RunOnce(context.Background()))

	assert.Positive(t, changes.RunOnce())
	msg := waitEvent(t, ws, live.EventAutoBill)
	assert.Contains(t, string(msg.Data), bills[0].BillNumber)

	// 4. Table free, stock taken
	var after models.Table
	require.NoError(t, db.First(&after, table.ID).Error)
	assert.Equal(t, models.TableAvailable, after.Status)

	var stocked models.MenuItem
	require.NoError(t, db.First(&stocked, menu.ID).Error)
	assert.Equal(t, 3, stocked.Stock)
}

func dialDashboard(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws?client=e2e"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return ws
}

type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// waitEvent reads until the given event arrives, skipping the others.
func waitEvent(t *testing.T, ws *websocket.Conn, event string) wsMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg wsMessage
		require.NoError(t, ws.ReadJSON(&msg))
		if msg.Event == event {
			return msg
		}
	}
}

func postJSON(t *testing.T, url string, body interface{}, wantCode int, out interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantCode, resp.StatusCode)

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}
