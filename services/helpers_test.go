package services

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/database"
	"github.com/yeremiapane/snooker-cafe/models"
	"gorm.io/gorm"
)

var t0 = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var dbSeq atomic.Int64

type fixture struct {
	db    *gorm.DB
	clock *testClock
	svc   *Services
	// snooker: 2 tables at 2/min and 50/frame
	game   models.Game
	tables []models.Table
	tea    models.MenuItem
	member models.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	f := &fixture{db: db, clock: &testClock{now: t0}}
	f.game = models.Game{Name: "Snooker"}
	require.NoError(t, db.Create(&f.game).Error)
	for i := 1; i <= 2; i++ {
		table := models.Table{
			GameID:         f.game.ID,
			Name:           fmt.Sprintf("Snooker %d", i),
			Status:         models.TableAvailable,
			PricePerMinute: 2,
			FrameCharge:    50,
		}
		require.NoError(t, db.Create(&table).Error)
		f.tables = append(f.tables, table)
	}
	f.tea = models.MenuItem{Name: "Tea", Category: "Drinks", Price: 20, Stock: 10, Available: true}
	require.NoError(t, db.Create(&f.tea).Error)
	f.member = models.Customer{Name: "Ravi", Phone: "9000000001", WalletBalance: 500}
	require.NoError(t, db.Create(&f.member).Error)

	f.svc = New(db, billing.NewEstimator(f.clock, billing.DefaultConfig()))
	return f
}

func (f *fixture) table(t *testing.T, id uint) models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, f.db.First(&table, id).Error)
	return table
}

func (f *fixture) customer(t *testing.T) models.Customer {
	t.Helper()
	var c models.Customer
	require.NoError(t, f.db.First(&c, f.member.ID).Error)
	return c
}

func ptr[T any](v T) *T { return &v }
