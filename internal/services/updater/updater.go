package updater

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/LimitAL/cafemaker-web/internal/config"
	"github.com/LimitAL/cafemaker-web/internal/models"
	"github.com/LimitAL/cafemaker-web/internal/services/companion"
	"github.com/LimitAL/cafemaker-web/internal/services/market"
	"github.com/LimitAL/cafemaker-web/internal/services/names"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrBreakerTripped aborts a run before any work when the recent exception
// count has reached the threshold. The command layer exits non-zero on it.
var ErrBreakerTripped = errors.New("recent exception count reached threshold, auto-update stopped")

// SightClient issues a batch of upstream requests concurrently and joins
// before returning. The updater calls it twice per chunk: once to submit,
// once to harvest.
type SightClient interface {
	Settle(ctx context.Context, reqs []companion.Request) map[string]companion.Response
}

// DocumentStore is the per-(server, item) market document storage.
// Get returns (nil, nil) when no document exists.
type DocumentStore interface {
	Get(server string, itemID int) (*market.MarketItem, error)
	Set(doc *market.MarketItem) error
}

// NameResolver maps display names to opaque internal ids, get-or-create.
type NameResolver interface {
	Resolve(kind, name string) (string, error)
}

// TokenSource supplies the per-server token snapshot for one run.
type TokenSource interface {
	Snapshot(servers []string) (map[string]models.CompanionToken, error)
}

// ItemTracker is the best-effort per-item analytics ping. The returned
// duration is telemetry only.
type ItemTracker interface {
	TrackItem(itemID int) time.Duration
}

// Updater is the batch scheduler: it decides which items are due, drives
// the two-phase Sight protocol per chunk and merges the results into the
// document store. One Updater invocation is one sequential worker;
// concurrent workers must use distinct (priority, queue) pairs.
type Updater struct {
	db        *gorm.DB
	cfg       config.UpdaterConfig
	entries   *EntryStore
	docs      DocumentStore
	names     NameResolver
	tokens    TokenSource
	sight     SightClient
	tracker   *Tracker
	analytics ItemTracker
}

func New(
	db *gorm.DB,
	cfg config.UpdaterConfig,
	docs DocumentStore,
	resolver NameResolver,
	tokens TokenSource,
	sight SightClient,
	tracker *Tracker,
	analytics ItemTracker,
) *Updater {
	return &Updater{
		db:        db,
		cfg:       cfg,
		entries:   NewEntryStore(db),
		docs:      docs,
		names:     resolver,
		tokens:    tokens,
		sight:     sight,
		tracker:   tracker,
		analytics: analytics,
	}
}

// Entries exposes the selection store, shared with the command layer.
func (u *Updater) Entries() *EntryStore {
	return u.entries
}

// Update runs one batch for (priority, queue). Manual runs pull manually
// flagged entries instead of the priority rotation. A non-empty servers
// list restricts the token snapshot to that subset.
func (u *Updater) Update(ctx context.Context, priority, queue int, manual bool, servers []string) error {
	runStart := time.Now()

	tripped, err := u.tracker.Tripped()
	if err != nil {
		return err
	}
	if tripped {
		log.Printf("[updater] !! error exceptions exceeded limit, auto-update stopped")
		return ErrBreakerTripped
	}

	u.tracker.ResetRun()

	tokens, err := u.tokens.Snapshot(servers)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		log.Printf("[updater] all tokens have expired, cannot auto-update")
		return nil
	}

	available := make([]string, 0, len(tokens))
	for server := range tokens {
		available = append(available, server)
	}

	limit := u.cfg.MaxItemsPerRun
	offset := limit * queue

	var items []models.MarketItemEntry
	if manual {
		items, err = u.entries.FindManualDue(limit, offset, available)
	} else {
		items, err = u.entries.FindDue(priority, limit, offset, available)
	}
	if err != nil {
		return err
	}

	// run-scoped correlation id for every async key of this invocation
	runID := uuid.NewString()

	for chunkNumber, chunk := range chunkEntries(items, u.cfg.MaxItemsPerRequest) {
		// cooperative checks between chunks only; a chunk in flight
		// always runs to completion
		if time.Since(runStart) > u.cfg.RunTimeout {
			break
		}
		if u.tracker.RunCount() >= u.cfg.ErrorThreshold {
			log.Printf("[updater] !! error exceptions (real-time check) exceeded limit, auto-update stopped")
			break
		}

		u.updateChunk(ctx, runID, chunkNumber, chunk, priority, tokens)
	}

	duration := time.Since(runStart).Seconds()
	log.Printf("[updater] finished queue: %d/%d - duration: %.2fs", priority, queue, duration)
	return nil
}

// updateChunk performs the two-phase fetch for one chunk and merges the
// harvested results.
func (u *Updater) updateChunk(ctx context.Context, runID string, chunkNumber int, chunk []models.MarketItemEntry, priority int, tokens map[string]models.CompanionToken) {
	chunkStart := time.Now()

	// an item never updates faster than the configured delay
	cutoff := time.Now().Add(-u.cfg.ItemUpdateDelay)

	var reqs []companion.Request
	var gaDuration time.Duration
	for _, entry := range chunk {
		if entry.LastUpdated.After(cutoff) {
			continue
		}

		token, ok := tokens[entry.Server]
		if !ok {
			continue
		}

		reqs = append(reqs,
			companion.Request{
				Key:   requestKey(runID, entry.Item, entry.Server, companion.KindPrices),
				Kind:  companion.KindPrices,
				Item:  entry.Item,
				Token: token.Token,
			},
			companion.Request{
				Key:   requestKey(runID, entry.Item, entry.Server, companion.KindHistory),
				Kind:  companion.KindHistory,
				Item:  entry.Item,
				Token: token.Token,
			},
		)

		gaDuration = u.analytics.TrackItem(entry.Item)
	}

	if len(reqs) == 0 {
		return
	}

	log.Printf("[updater] processing chunk %d: %d requests", chunkNumber, len(reqs))

	// first pass submits; the upstream answers everything with a pending
	// marker, so the responses are discarded
	u.sight.Settle(ctx, reqs)

	// let the upstream materialize the results
	time.Sleep(u.cfg.AsyncDelay)

	// second pass harvests
	settled := u.sight.Settle(ctx, reqs)

	u.storeMarketData(chunk, settled, runID, priority, chunkStart, gaDuration)
}

// storeMarketData merges the settled chunk results into the document
// store and refreshes per-entry bookkeeping.
func (u *Updater) storeMarketData(chunk []models.MarketItemEntry, settled map[string]companion.Response, runID string, priority int, chunkStart time.Time, gaDuration time.Duration) {
	for _, entry := range chunk {
		outcome := u.processItem(entry, settled, runID, priority, chunkStart)
		if outcome == OutcomePersisted {
			duration := time.Since(chunkStart).Seconds()
			log.Printf("[updater] item: %-10d server: %-14s duration: %.2fs ga: %s", entry.Item, entry.Server, duration, gaDuration)
		}
	}
}

func (u *Updater) processItem(entry models.MarketItemEntry, settled map[string]companion.Response, runID string, priority int, chunkStart time.Time) ItemOutcome {
	pricesResp, havePrices := settled[requestKey(runID, entry.Item, entry.Server, companion.KindPrices)]
	historyResp, haveHistory := settled[requestKey(runID, entry.Item, entry.Server, companion.KindHistory)]

	// nothing was enqueued for this item (too fresh or no token)
	if !havePrices && !haveHistory {
		return OutcomeSkipped
	}

	var prices companion.PriceResult
	if havePrices {
		prices = companion.ParsePrices(pricesResp)
		if prices.State == companion.StatePending {
			prices = companion.PriceResult{State: companion.StateError, Reason: "still pending after second settle"}
		}
		if prices.State == companion.StateError {
			u.tracker.Record(companion.KindPrices, entry.Item, entry.Server, prices.Reason)
		}
	}

	var history companion.HistoryResult
	if haveHistory {
		history = companion.ParseHistory(historyResp)
		if history.State == companion.StatePending {
			history = companion.HistoryResult{State: companion.StateError, Reason: "still pending after second settle"}
		}
		if history.State == companion.StateError {
			u.tracker.Record(companion.KindHistory, entry.Item, entry.Server, history.Reason)
		}
	}

	pricesOK := havePrices && prices.State == companion.StateSuccess
	historyOK := haveHistory && history.State == companion.StateSuccess

	// both streams dead: no document write, no bookkeeping, eligible again
	// next run
	if !pricesOK && !historyOK {
		return OutcomeFailed
	}

	doc, err := u.docs.Get(entry.Server, entry.Item)
	if err != nil {
		u.tracker.Record("document", entry.Item, entry.Server, err.Error())
		return OutcomeFailed
	}
	if doc == nil {
		doc = market.NewMarketItem(entry.Server, entry.Item)
	}

	if pricesOK && len(prices.Entries) > 0 {
		doc.ReplaceListings(u.buildListings(prices.Entries))
	}

	if historyOK && len(history.Rows) > 0 {
		doc.MergeHistory(u.buildHistory(entry.Item, history.Rows))
	}

	if err := u.docs.Set(doc); err != nil {
		u.tracker.Record("document", entry.Item, entry.Server, err.Error())
		return OutcomeFailed
	}

	// bookkeeping: refresh timestamp, bump counter, clear the manual flag
	err = u.db.Model(&models.MarketItemEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"last_updated": time.Now(),
			"updates":      gorm.Expr("updates + 1"),
			"manual":       false,
		}).Error
	if err != nil {
		log.Printf("[updater] failed to update entry %d/%s: %v", entry.Item, entry.Server, err)
	}

	u.recordUpdate(priority, entry, chunkStart)
	return OutcomePersisted
}

// buildListings converts upstream price entries, resolving retainer and
// signature names to internal ids.
func (u *Updater) buildListings(entries []companion.PriceEntry) []market.MarketListing {
	listings := make([]market.MarketListing, 0, len(entries))
	for _, row := range entries {
		retainerID, err := u.names.Resolve(names.KindRetainer, row.SellRetainerName)
		if err != nil {
			log.Printf("[updater] failed to resolve retainer %q: %v", row.SellRetainerName, err)
		}
		signatureID, err := u.names.Resolve(names.KindSignature, row.SignatureName)
		if err != nil {
			log.Printf("[updater] failed to resolve signature %q: %v", row.SignatureName, err)
		}

		listings = append(listings, market.MarketListing{
			RetainerID:         retainerID,
			CreatorSignatureID: signatureID,
			PricePerUnit:       row.SellPrice,
			PriceTotal:         row.SellPrice * row.Stack,
			Quantity:           row.Stack,
			IsHQ:               row.HQ,
			Materia:            row.Materia,
			Town:               row.RegisterTown,
			Stars:              row.Stars,
		})
	}
	return listings
}

// buildHistory converts upstream history rows, fingerprinting each one and
// resolving the buyer name. Resolution is independent of the fingerprint.
func (u *Updater) buildHistory(itemID int, rows []companion.HistoryEntry) []market.MarketHistory {
	history := make([]market.MarketHistory, 0, len(rows))
	for _, row := range rows {
		characterID, err := u.names.Resolve(names.KindCharacter, row.BuyCharacterName)
		if err != nil {
			log.Printf("[updater] failed to resolve character %q: %v", row.BuyCharacterName, err)
		}

		history = append(history, market.MarketHistory{
			ID:           market.Fingerprint(itemID, row.Stack, row.HQ, row.SellPrice, row.BuyRealDate),
			CharacterID:  characterID,
			PricePerUnit: row.SellPrice,
			PriceTotal:   row.SellPrice * row.Stack,
			Quantity:     row.Stack,
			IsHQ:         row.HQ,
			PurchaseDate: row.BuyRealDate,
		})
	}
	return history
}

// recordUpdate appends update telemetry. The duration is the chunk wall
// time divided by the chunk's request concurrency, approximating per-item
// cost under concurrent execution.
func (u *Updater) recordUpdate(priority int, entry models.MarketItemEntry, chunkStart time.Time) {
	duration := time.Since(chunkStart).Seconds() / float64(u.cfg.MaxItemsPerRequest)

	record := models.MarketItemUpdate{
		Item:     entry.Item,
		Server:   entry.Server,
		Priority: priority,
		Duration: math.Round(duration*100) / 100,
	}
	if err := u.db.Create(&record).Error; err != nil {
		log.Printf("[updater] failed to record update metric: %v", err)
	}
}

func requestKey(runID string, itemID int, server, kind string) string {
	return fmt.Sprintf("%s_%d_%s_%s", runID, itemID, server, kind)
}

// chunkEntries splits the due page into fixed-size chunks, bounding how
// many requests fly concurrently.
func chunkEntries(entries []models.MarketItemEntry, size int) [][]models.MarketItemEntry {
	if size <= 0 {
		size = 1
	}
	var chunks [][]models.MarketItemEntry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[start:end])
	}
	return chunks
}
