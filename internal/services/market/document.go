package market

import (
	"crypto/sha1"
	"fmt"
)

// MarketItem is the per-(server, item) market document: a point-in-time
// snapshot of active listings plus an append-only transaction history,
// newest first.
type MarketItem struct {
	Server  string          `json:"server"`
	ItemID  int             `json:"item_id"`
	Updated int64           `json:"updated"`
	Prices  []MarketListing `json:"prices"`
	History []MarketHistory `json:"history"`
}

func NewMarketItem(server string, itemID int) *MarketItem {
	return &MarketItem{
		Server:  server,
		ItemID:  itemID,
		Prices:  []MarketListing{},
		History: []MarketHistory{},
	}
}

// MarketListing is one active sell order. Retainer and crafter signature
// names are stored as resolved internal ids only.
type MarketListing struct {
	RetainerID         string `json:"retainer_id"`
	CreatorSignatureID string `json:"creator_signature_id"`
	PricePerUnit       int    `json:"price_per_unit"`
	PriceTotal         int    `json:"price_total"`
	Quantity           int    `json:"quantity"`
	IsHQ               bool   `json:"is_hq"`
	Materia            int    `json:"materia"`
	Town               int    `json:"town"`
	Stars              int    `json:"stars"`
}

// MarketHistory is one completed transaction. ID is the content
// fingerprint used for dedup; CharacterID is the resolved buyer id and is
// deliberately not part of the fingerprint.
type MarketHistory struct {
	ID           string `json:"id"`
	CharacterID  string `json:"character_id"`
	PricePerUnit int    `json:"price_per_unit"`
	PriceTotal   int    `json:"price_total"`
	Quantity     int    `json:"quantity"`
	IsHQ         bool   `json:"is_hq"`
	PurchaseDate int64  `json:"purchase_date"`
}

// Fingerprint builds the deterministic id of a history row from its
// immutable fields. The buyer is excluded so a character rename does not
// fork the row's identity.
func Fingerprint(itemID, stack int, hq bool, sellPrice int, buyRealDate int64) string {
	return fmt.Sprintf("%x", sha1.Sum([]byte(fmt.Sprintf("%d_%d_%t_%d_%d", itemID, stack, hq, sellPrice, buyRealDate))))
}

// ReplaceListings swaps the listing snapshot wholesale. Listings are never
// merged across fetches.
func (m *MarketItem) ReplaceListings(listings []MarketListing) {
	m.Prices = listings
}

// MergeHistory prepends new rows (given newest first) onto the stored
// history. History is strictly append-only and contiguous upstream, so the
// first row whose fingerprint already exists ends the merge: everything
// older is guaranteed present already. Returns the number of rows added.
func (m *MarketItem) MergeHistory(rows []MarketHistory) int {
	fresh := make([]MarketHistory, 0, len(rows))
	for _, row := range rows {
		if m.hasHistory(row.ID) {
			break
		}
		fresh = append(fresh, row)
	}
	if len(fresh) == 0 {
		return 0
	}

	m.History = append(fresh, m.History...)
	return len(fresh)
}

// hasHistory scans newest first and stops at the first match.
func (m *MarketItem) hasHistory(id string) bool {
	for _, existing := range m.History {
		if existing.ID == id {
			return true
		}
	}
	return false
}
