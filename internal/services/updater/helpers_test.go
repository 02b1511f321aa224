package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/LimitAL/cafemaker-web/internal/config"
	"github.com/LimitAL/cafemaker-web/internal/database"
	"github.com/LimitAL/cafemaker-web/internal/models"
	"github.com/LimitAL/cafemaker-web/internal/services/companion"
	"github.com/LimitAL/cafemaker-web/internal/services/market"
	"github.com/LimitAL/cafemaker-web/internal/services/names"
	"github.com/LimitAL/cafemaker-web/internal/services/tokens"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig() config.UpdaterConfig {
	return config.UpdaterConfig{
		MaxItemsPerRun:     50,
		MaxItemsPerRequest: 10,
		ItemUpdateDelay:    180 * time.Second,
		RunTimeout:         55 * time.Second,
		AsyncDelay:         time.Millisecond,
		ErrorThreshold:     5,
		ExceptionLookback:  time.Hour,
		AlertCooldown:      time.Minute,
	}
}

// stubSight plays the upstream two-phase contract: the first settle of any
// key answers pending, every later settle of the same key answers whatever
// the responder returns.
type stubSight struct {
	mu        sync.Mutex
	keyCalls  map[string]int
	itemCalls map[string]int
	respond   func(req companion.Request) ([]byte, error)
}

func newStubSight(respond func(req companion.Request) ([]byte, error)) *stubSight {
	return &stubSight{
		keyCalls:  make(map[string]int),
		itemCalls: make(map[string]int),
		respond:   respond,
	}
}

func (s *stubSight) Settle(_ context.Context, reqs []companion.Request) map[string]companion.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	settled := make(map[string]companion.Response, len(reqs))
	for _, req := range reqs {
		s.keyCalls[req.Key]++
		s.itemCalls[fmt.Sprintf("%d_%s", req.Item, req.Kind)]++

		if s.keyCalls[req.Key] == 1 {
			settled[req.Key] = companion.Response{Key: req.Key, Body: []byte(`{"state":"pending"}`)}
			continue
		}
		body, err := s.respond(req)
		settled[req.Key] = companion.Response{Key: req.Key, Body: body, Err: err}
	}
	return settled
}

func (s *stubSight) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.keyCalls {
		total += n
	}
	return total
}

func (s *stubSight) callsPerKey() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.keyCalls))
	for k, v := range s.keyCalls {
		out[k] = v
	}
	return out
}

func (s *stubSight) callsForItem(itemID int, kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemCalls[fmt.Sprintf("%d_%s", itemID, kind)]
}

type noopAnalytics struct{}

func (noopAnalytics) TrackItem(int) time.Duration { return 0 }
func (noopAnalytics) TrackEvent(string)           {}

type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingSink) Send(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type testEnv struct {
	db      *gorm.DB
	cfg     config.UpdaterConfig
	updater *Updater
	sight   *stubSight
	tracker *Tracker
	sink    *recordingSink
	docs    *market.Store
}

func newTestEnv(t *testing.T, cfg config.UpdaterConfig, respond func(req companion.Request) ([]byte, error)) *testEnv {
	t.Helper()

	db := openTestDB(t)
	sight := newStubSight(respond)
	sink := &recordingSink{}
	tracker := NewTracker(db, sink, noopAnalytics{}, cfg.ErrorThreshold, cfg.ExceptionLookback)
	docs := market.NewStore(db)

	u := New(db, cfg, docs, names.NewResolver(db), tokens.NewManager(db), sight, tracker, noopAnalytics{})

	return &testEnv{
		db:      db,
		cfg:     cfg,
		updater: u,
		sight:   sight,
		tracker: tracker,
		sink:    sink,
		docs:    docs,
	}
}

func seedToken(t *testing.T, db *gorm.DB, server string) {
	t.Helper()
	require.NoError(t, db.Create(&models.CompanionToken{
		Server:     server,
		Token:      "token-" + server,
		Online:     true,
		LastOnline: time.Now(),
	}).Error)
}

func seedEntry(t *testing.T, db *gorm.DB, itemID int, server string, priority int, lastUpdated time.Time) models.MarketItemEntry {
	t.Helper()
	entry := models.MarketItemEntry{
		Item:        itemID,
		Server:      server,
		Priority:    priority,
		LastUpdated: lastUpdated,
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func reloadEntry(t *testing.T, db *gorm.DB, id uint) models.MarketItemEntry {
	t.Helper()
	var entry models.MarketItemEntry
	require.NoError(t, db.First(&entry, id).Error)
	return entry
}

func pricesBody(t *testing.T, entries ...companion.PriceEntry) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"entries": entries})
	require.NoError(t, err)
	return body
}

func historyBody(t *testing.T, rows ...companion.HistoryEntry) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"history": rows})
	require.NoError(t, err)
	return body
}

func errorBody(reason string) []byte {
	return []byte(fmt.Sprintf(`{"error":true,"reason":%q}`, reason))
}
