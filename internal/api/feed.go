package api

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/LimitAL/cafemaker-web/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// Feed streams item update events to websocket subscribers. It tails the
// update telemetry table so it works regardless of which worker process
// performed the update.
type Feed struct {
	db       *gorm.DB
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	lastID  uint
}

// UpdateEvent is one pushed feed message.
type UpdateEvent struct {
	Item     int       `json:"item"`
	Server   string    `json:"server"`
	Priority int       `json:"priority"`
	Updated  time.Time `json:"updated"`
}

func NewFeed(db *gorm.DB) *Feed {
	return &Feed{
		db: db,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// Handle upgrades the connection and keeps it registered until the peer
// goes away.
func (f *Feed) Handle(c *gin.Context) {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[feed] upgrade failed: %v", err)
		return
	}

	f.mu.Lock()
	f.clients[conn] = true
	f.mu.Unlock()

	// reader loop exists only to notice the close
	go func() {
		defer f.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Run polls for new update rows and broadcasts them until ctx ends.
func (f *Feed) Run(ctx context.Context) {
	// start at the current tail, history is not replayed
	var latest models.MarketItemUpdate
	if err := f.db.Order("id DESC").First(&latest).Error; err == nil {
		f.lastID = latest.ID
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.broadcastNew()
		}
	}
}

func (f *Feed) broadcastNew() {
	var rows []models.MarketItemUpdate
	if err := f.db.Where("id > ?", f.lastID).Order("id ASC").Limit(500).Find(&rows).Error; err != nil {
		log.Printf("[feed] failed to poll updates: %v", err)
		return
	}
	if len(rows) == 0 {
		return
	}
	f.lastID = rows[len(rows)-1].ID

	for _, row := range rows {
		event := UpdateEvent{
			Item:     row.Item,
			Server:   row.Server,
			Priority: row.Priority,
			Updated:  row.CreatedAt,
		}

		f.mu.Lock()
		for conn := range f.clients {
			if err := conn.WriteJSON(event); err != nil {
				delete(f.clients, conn)
				conn.Close()
			}
		}
		f.mu.Unlock()
	}
}

func (f *Feed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
	conn.Close()
}
