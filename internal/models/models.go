package models

import (
	"time"
)

// MarketItemEntry tracks the update state of one item on one server.
// Rows are provisioned externally; the updater only refreshes the
// bookkeeping fields after a successful fetch.
type MarketItemEntry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Item        int       `json:"item" gorm:"not null;uniqueIndex:idx_entry_item_server,priority:1"`
	Server      string    `json:"server" gorm:"size:32;not null;uniqueIndex:idx_entry_item_server,priority:2"`
	Priority    int       `json:"priority" gorm:"not null;index"`
	LastUpdated time.Time `json:"last_updated" gorm:"index"`
	Updates     int       `json:"updates"`
	Manual      bool      `json:"manual" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MarketItemException is one recorded update failure. Append-only; the
// circuit breaker counts recent rows before a run starts.
type MarketItemException struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Kind      string    `json:"kind" gorm:"size:16;not null"` // prices, history
	Item      int       `json:"item"`
	Server    string    `json:"server" gorm:"size:32"`
	Message   string    `json:"message" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// MarketItemUpdate is append-only update telemetry. Duration is the chunk
// wall time divided by the chunk's request concurrency.
type MarketItemUpdate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Item      int       `json:"item" gorm:"index"`
	Server    string    `json:"server" gorm:"size:32"`
	Priority  int       `json:"priority"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// CompanionToken is a per-server upstream login token. Owned and refreshed
// by the token manager process; the updater reads a snapshot per run.
type CompanionToken struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Server     string    `json:"server" gorm:"size:32;uniqueIndex"`
	Token      string    `json:"-" gorm:"type:text"`
	Online     bool      `json:"online"`
	LastOnline time.Time `json:"last_online"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NameEntry maps a sighted display name to an opaque internal id.
// One table for all three kinds (retainer, signature, character);
// the (kind, name) key is case-sensitive and created on first sighting.
type NameEntry struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Kind      string    `json:"kind" gorm:"size:16;not null;uniqueIndex:idx_name_kind_name,priority:1"`
	Name      string    `json:"name" gorm:"size:64;not null;uniqueIndex:idx_name_kind_name,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// MarketItemDocument is the stored per-(server, item) market document,
// serialized as JSON. Replaced wholesale on upsert.
type MarketItemDocument struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Item      int       `json:"item" gorm:"not null;uniqueIndex:idx_doc_item_server,priority:1"`
	Server    string    `json:"server" gorm:"size:32;not null;uniqueIndex:idx_doc_item_server,priority:2"`
	Data      []byte    `json:"data" gorm:"type:json"`
	UpdatedAt time.Time `json:"updated_at"`
}
