package api

import (
	"net/http"
	"strconv"

	"github.com/LimitAL/cafemaker-web/internal/gamedata"
	"github.com/LimitAL/cafemaker-web/internal/services/market"
	"github.com/LimitAL/cafemaker-web/internal/services/updater"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the thin read surface over the market documents plus the
// manual-update request endpoint. All engine work happens in the updater
// workers; this layer is glue only.
type Handler struct {
	db      *gorm.DB
	docs    *market.Store
	entries *updater.EntryStore
}

func SetupRoutes(r *gin.RouterGroup, db *gorm.DB) *Handler {
	handler := &Handler{
		db:      db,
		docs:    market.NewStore(db),
		entries: updater.NewEntryStore(db),
	}

	r.GET("/market/:server/item/:item", handler.GetMarketItem)
	r.POST("/market/item/:item/update", handler.RequestManualUpdate)

	return handler
}

// GetMarketItem returns the stored market document for one item on one
// server.
func (h *Handler) GetMarketItem(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("item"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	server := c.Param("server")

	doc, err := h.docs.Get(server, itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no market data for this item"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

type manualUpdateRequest struct {
	Server string `json:"server" binding:"required"`
}

// RequestManualUpdate flags an item for manual update. The server field
// accepts either a world or a data center name; a data center expands to
// all of its worlds.
func (h *Handler) RequestManualUpdate(c *gin.Context) {
	itemID, err := strconv.Atoi(c.Param("item"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	var req manualUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "server is required"})
		return
	}

	worlds := gamedata.DataCenterWorlds(req.Server)
	if worlds == nil {
		if !gamedata.IsWorld(req.Server) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown server or data center"})
			return
		}
		worlds = []string{req.Server}
	}

	if err := h.entries.MarkManual(itemID, worlds); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": itemID, "servers": worlds})
}
