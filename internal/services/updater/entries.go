package updater

import (
	"fmt"

	"github.com/LimitAL/cafemaker-web/internal/models"
	"gorm.io/gorm"
)

// EntryStore answers which (server, item) entries are due for an update.
type EntryStore struct {
	db *gorm.DB
}

func NewEntryStore(db *gorm.DB) *EntryStore {
	return &EntryStore{db: db}
}

// FindDue returns the oldest-updated non-manual entries of a priority on
// the given servers, windowed by (limit, offset). The ordering is total
// (last_updated, then id) so that workers paging with distinct queue
// offsets always receive disjoint entries — concurrent workers rely on
// this for correctness, not throughput.
func (s *EntryStore) FindDue(priority, limit, offset int, servers []string) ([]models.MarketItemEntry, error) {
	var entries []models.MarketItemEntry
	err := s.db.
		Where("priority = ? AND manual = ? AND server IN ?", priority, false, servers).
		Order("last_updated ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find due entries: %w", err)
	}
	return entries, nil
}

// FindManualDue is FindDue restricted to manually flagged entries,
// regardless of priority.
func (s *EntryStore) FindManualDue(limit, offset int, servers []string) ([]models.MarketItemEntry, error) {
	var entries []models.MarketItemEntry
	err := s.db.
		Where("manual = ? AND server IN ?", true, servers).
		Order("last_updated ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find manual entries: %w", err)
	}
	return entries, nil
}

// MarkManual flags an item for manual update on every given server.
// Idempotent; entries that are already flagged stay flagged.
func (s *EntryStore) MarkManual(itemID int, servers []string) error {
	err := s.db.Model(&models.MarketItemEntry{}).
		Where("item = ? AND server IN ?", itemID, servers).
		Update("manual", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark item %d manual: %w", itemID, err)
	}
	return nil
}
