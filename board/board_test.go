package board

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/snooker-cafe/models"
	"github.com/yeremiapane/snooker-cafe/reconcile"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
)

var t0 = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

// fakeAPI serves a canned floor. Patches are recorded but only show up in the snapshot
// when the test says so.
type fakeAPI struct {
	mu        sync.Mutex
	tables    []models.Table
	sessions  []models.ActiveSession
	patches   []services.PatchRequest
	patchCode int
	url       string
}

func (f *fakeAPI) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/tables", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		utils.RespondJSON(c, http.StatusOK, "List of tables", f.tables)
	})
	r.GET("/activetables", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		views := make([]services.SessionView, 0, len(f.sessions))
		for _, s := range f.sessions {
			views = append(views, services.SessionView{Session: s, Table: f.tables[s.TableID-1]})
		}
		utils.RespondJSON(c, http.StatusOK, "Active tables", views)
	})
	r.PUT("/activetables/:id", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var req services.PatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		if f.patchCode != 0 {
			utils.RespondError(c, f.patchCode, services.ErrSessionNotRunning)
			return
		}
		f.patches = append(f.patches, req)
		utils.RespondJSON(c, http.StatusOK, "Session updated", f.sessions[0])
	})
	return r
}

func (f *fakeAPI) recorded() []services.PatchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]services.PatchRequest(nil), f.patches...)
}

func (f *fakeAPI) set(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

func newTestBoard(t *testing.T) (*Board, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{
		tables: []models.Table{
			{ID: 1, Name: "Snooker 1", Status: models.TableOccupied, PricePerMinute: 5, FrameCharge: 120},
			{ID: 2, Name: "Snooker 2", Status: models.TableAvailable, PricePerMinute: 5, FrameCharge: 120},
		},
		sessions: []models.ActiveSession{{
			ID: 11, TableID: 1, CustomerName: "Ravi", BookingType: "timer",
			StartTime: t0, DurationMinutes: 1, Status: models.SessionRunning, Version: 1,
		}},
	}
	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)
	api.url = srv.URL
	return New(NewClient(srv.URL, time.Second), "front-desk"), api
}

func TestPollAndTick(t *testing.T) {
	b, _ := newTestBoard(t)
	require.NoError(t, b.Poll(context.Background()))

	assert.Empty(t, b.Tick(t0.Add(30*time.Second)))
	rows := b.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "-00:00:30", rows[0].Clock)
	assert.InDelta(t, 5.0, rows[0].GrandTotal, 0.001)
	assert.Equal(t, models.TableAvailable, rows[1].Status)

	signals := b.Tick(t0.Add(61 * time.Second))
	require.Len(t, signals, 1)
	assert.Equal(t, uint(11), signals[0].SessionID)
	assert.Equal(t, "Snooker 1", signals[0].TableName)
	assert.Empty(t, b.Tick(t0.Add(62*time.Second)))
}

func TestAddMinutesSurvivesStalePoll(t *testing.T) {
	b, api := newTestBoard(t)
	ctx := context.Background()
	require.NoError(t, b.Poll(ctx))

	require.NoError(t, b.AddMinutes(ctx, 11, 1))
	patches := api.recorded()
	require.Len(t, patches, 1)
	assert.Equal(t, 1, patches[0].AddMinutes)
	assert.Equal(t, int64(1), patches[0].OpSeq)
	assert.Equal(t, "front-desk", patches[0].ClientID)

	// backend has not stored the extension yet
	require.NoError(t, b.Poll(ctx))
	assert.Empty(t, b.Tick(t0.Add(61*time.Second)))
	assert.Equal(t, 1, b.Rows()[0].Pending)

	api.set(func() {
		api.sessions[0].DurationMinutes = 2
		api.sessions[0].Version = 2
		api.sessions[0].AppliedSeqs = reconcile.Acks{"front-desk": 1}
	})
	require.NoError(t, b.Poll(ctx))
	assert.Equal(t, 0, b.Rows()[0].Pending)
	assert.Empty(t, b.Tick(t0.Add(90*time.Second)))
	assert.Len(t, b.Tick(t0.Add(121*time.Second)), 1)
}

func TestTwoBoardsKeepTheirOwnEdits(t *testing.T) {
	desk, api := newTestBoard(t)
	bar := New(NewClient(api.url, time.Second), "bar")
	ctx := context.Background()
	require.NoError(t, desk.Poll(ctx))
	require.NoError(t, bar.Poll(ctx))

	require.NoError(t, desk.AddMinutes(ctx, 11, 5))
	for i := 0; i < 3; i++ {
		require.NoError(t, bar.AddMinutes(ctx, 11, 1))
	}

	// the bar's three edits are stored, the desk's is still in flight
	api.set(func() {
		api.sessions[0].DurationMinutes = 4
		api.sessions[0].Version = 4
		api.sessions[0].AppliedSeqs = reconcile.Acks{"bar": 3}
	})
	require.NoError(t, desk.Poll(ctx))
	desk.Tick(t0.Add(8 * time.Minute))
	row := desk.Rows()[0]
	assert.Equal(t, "-00:01:00", row.Clock)
	assert.Equal(t, 1, row.Pending)

	require.NoError(t, bar.Poll(ctx))
	bar.Tick(t0.Add(3 * time.Minute))
	assert.Equal(t, "-00:01:00", bar.Rows()[0].Clock)
	assert.Equal(t, 0, bar.Rows()[0].Pending)

	api.set(func() {
		api.sessions[0].DurationMinutes = 9
		api.sessions[0].Version = 5
		api.sessions[0].AppliedSeqs = reconcile.Acks{"bar": 3, "front-desk": 1}
	})
	require.NoError(t, desk.Poll(ctx))
	desk.Tick(t0.Add(8 * time.Minute))
	row = desk.Rows()[0]
	assert.Equal(t, "-00:01:00", row.Clock)
	assert.Equal(t, 0, row.Pending)
}

func TestExtensionRearmsAutoBill(t *testing.T) {
	b, api := newTestBoard(t)
	ctx := context.Background()
	require.NoError(t, b.Poll(ctx))
	require.Len(t, b.Tick(t0.Add(61*time.Second)), 1)

	api.set(func() {
		api.sessions[0].DurationMinutes = 5
		api.sessions[0].Version = 2
	})
	require.NoError(t, b.Poll(ctx))
	assert.Empty(t, b.Tick(t0.Add(2*time.Minute)))
	assert.Len(t, b.Tick(t0.Add(5*time.Minute)), 1)
}

func TestAddMinutesRejected(t *testing.T) {
	b, api := newTestBoard(t)
	ctx := context.Background()
	require.NoError(t, b.Poll(ctx))
	api.set(func() { api.patchCode = http.StatusConflict })

	err := b.AddMinutes(ctx, 11, 10)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, services.ErrSessionNotRunning.Error(), apiErr.Message)

	assert.Equal(t, 0, b.Rows()[0].Pending)
	assert.Len(t, b.Tick(t0.Add(61*time.Second)), 1)

	assert.Error(t, b.AddMinutes(ctx, 99, 1))
}

func TestPollDropsEndedSessions(t *testing.T) {
	b, api := newTestBoard(t)
	ctx := context.Background()
	require.NoError(t, b.Poll(ctx))

	api.set(func() {
		api.sessions = nil
		api.tables[0].Status = models.TableAvailable
	})
	require.NoError(t, b.Poll(ctx))
	assert.Empty(t, b.Tick(t0.Add(time.Hour)))
	assert.Equal(t, uint(0), b.Rows()[0].SessionID)

	var out bytes.Buffer
	require.NoError(t, b.Render(&out))
	assert.Contains(t, out.String(), "Snooker 1")
	assert.Contains(t, out.String(), "available")
}

func TestRenderMarksPendingEdits(t *testing.T) {
	b, api := newTestBoard(t)
	ctx := context.Background()
	require.NoError(t, b.Poll(ctx))
	require.NoError(t, b.AddMinutes(ctx, 11, 4))
	require.Len(t, api.recorded(), 1)
	b.Tick(t0.Add(time.Minute))

	var out bytes.Buffer
	require.NoError(t, b.Render(&out))
	assert.Contains(t, out.String(), "-00:04:00*")
	assert.Contains(t, out.String(), "Ravi")
}
