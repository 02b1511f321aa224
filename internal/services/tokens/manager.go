package tokens

import (
	"fmt"

	"github.com/LimitAL/cafemaker-web/internal/models"
	"gorm.io/gorm"
)

// Manager reads the per-server companion login tokens. Tokens are owned
// and refreshed by a separate login process; the updater only consumes a
// snapshot at the start of each run.
type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Snapshot returns the online tokens keyed by server. When servers is
// non-empty the snapshot is restricted to that subset.
func (m *Manager) Snapshot(servers []string) (map[string]models.CompanionToken, error) {
	query := m.db.Where("online = ?", true)
	if len(servers) > 0 {
		query = query.Where("server IN ?", servers)
	}

	var rows []models.CompanionToken
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load companion tokens: %w", err)
	}

	snapshot := make(map[string]models.CompanionToken, len(rows))
	for _, row := range rows {
		snapshot[row.Server] = row
	}
	return snapshot, nil
}
