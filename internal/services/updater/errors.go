package updater

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LimitAL/cafemaker-web/internal/models"
	"gorm.io/gorm"
)

// AlertSink receives composed alert messages. Dedup and cooldown are the
// caller's job; the sink just delivers.
type AlertSink interface {
	Send(message string)
}

// EventSink is the best-effort analytics boundary used for error pings.
type EventSink interface {
	TrackEvent(name string)
}

// Tracker counts update failures for the circuit breaker and fans alerts
// out to the sink. Exceptions are durably recorded before any alert is
// attempted. Two counters feed one threshold: the recent-window count of
// stored exceptions gates a run before it starts, and the in-run counter
// stops a running chunk loop.
type Tracker struct {
	db        *gorm.DB
	alerts    AlertSink
	analytics EventSink
	threshold int
	lookback  time.Duration

	mu       sync.Mutex
	runCount int
}

func NewTracker(db *gorm.DB, alerts AlertSink, analytics EventSink, threshold int, lookback time.Duration) *Tracker {
	return &Tracker{
		db:        db,
		alerts:    alerts,
		analytics: analytics,
		threshold: threshold,
		lookback:  lookback,
	}
}

// Record appends an exception row, bumps the in-run counter and alerts.
func (t *Tracker) Record(kind string, itemID int, server string, reason string) {
	log.Printf("[updater] !!! exception: %s, %d, %s: %s", kind, itemID, server, reason)

	exception := models.MarketItemException{
		Kind:    kind,
		Item:    itemID,
		Server:  server,
		Message: reason,
	}
	if err := t.db.Create(&exception).Error; err != nil {
		log.Printf("[updater] failed to record exception: %v", err)
	}

	t.mu.Lock()
	t.runCount++
	t.mu.Unlock()

	recent, err := t.RecentCount()
	if err != nil {
		log.Printf("[updater] failed to count recent exceptions: %v", err)
	}

	msg := fmt.Sprintf("[Companion Auto-Update Error] (%d/%d) %s - Item: **%d** on Server: **%s**\nError: %s",
		recent, t.threshold, kind, itemID, server, reason)
	if t.alerts != nil {
		t.alerts.Send(msg)
	}
	if t.analytics != nil {
		t.analytics.TrackEvent("companion_error")
	}
}

// RunCount returns the number of exceptions recorded during this run.
func (t *Tracker) RunCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runCount
}

// ResetRun clears the in-run counter. Called once per run, before work.
func (t *Tracker) ResetRun() {
	t.mu.Lock()
	t.runCount = 0
	t.mu.Unlock()
}

// RecentCount counts stored exceptions within the lookback window.
func (t *Tracker) RecentCount() (int64, error) {
	var count int64
	err := t.db.Model(&models.MarketItemException{}).
		Where("created_at > ?", time.Now().Add(-t.lookback)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count recent exceptions: %w", err)
	}
	return count, nil
}

// Tripped reports whether the recent exception count has reached the
// threshold. Checked once before any work begins.
func (t *Tracker) Tripped() (bool, error) {
	count, err := t.RecentCount()
	if err != nil {
		return false, err
	}
	return count >= int64(t.threshold), nil
}
