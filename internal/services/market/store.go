package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LimitAL/cafemaker-web/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists market documents as JSON rows keyed by (server, item).
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get loads the document for (server, item). Returns (nil, nil) when no
// document exists yet.
func (s *Store) Get(server string, itemID int) (*MarketItem, error) {
	var row models.MarketItemDocument
	err := s.db.Where("server = ? AND item = ?", server, itemID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s/%d: %w", server, itemID, err)
	}

	var doc MarketItem
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%d: %w", server, itemID, err)
	}
	return &doc, nil
}

// Set upserts the document under its (server, item) key.
func (s *Store) Set(doc *MarketItem) error {
	doc.Updated = time.Now().Unix()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%d: %w", doc.Server, doc.ItemID, err)
	}

	row := models.MarketItemDocument{
		Item:   doc.ItemID,
		Server: doc.Server,
		Data:   data,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item"}, {Name: "server"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store document %s/%d: %w", doc.Server, doc.ItemID, err)
	}
	return nil
}
