package dashhttp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"botdeck/internal/dashboard"
	"botdeck/internal/types"
	"botdeck/internal/upstream"
)

// Router exposes the per-bot dashboard queries.
type Router struct {
	svc *dashboard.Service
}

func NewRouter(svc *dashboard.Service) *Router {
	return &Router{svc: svc}
}

// Register mounts the bot routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/bots", r.handleBots)
	group.POST("/refresh", r.handleRefreshAll)
	group.GET("/bots/:bot/trades", r.handleTrades)
	group.GET("/bots/:bot/positions", r.handlePositions)
	group.GET("/bots/:bot/performance", r.handlePerformance)
	group.GET("/bots/:bot/exposure", r.handleExposure)
	group.GET("/bots/:bot/next-update", r.handleNextUpdate)
	group.POST("/bots/:bot/refresh", r.handleRefresh)
}

func (r *Router) handleBots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bots": r.svc.Bots()})
}

func (r *Router) handleTrades(c *gin.Context) {
	snap, ok := r.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bot":        snap.Bot,
		"fetched_at": snap.FetchedAt,
		"trades":     snap.Trades,
	})
}

func (r *Router) handlePositions(c *gin.Context) {
	snap, ok := r.snapshot(c)
	if !ok {
		return
	}
	positions := snap.Positions
	if raw := strings.TrimSpace(c.Query("live")); raw != "" {
		wantLive := raw == "true" || raw == "1"
		filtered := positions[:0:0]
		for _, p := range positions {
			if p.IsLive == wantLive {
				filtered = append(filtered, p)
			}
		}
		positions = filtered
	}
	c.JSON(http.StatusOK, gin.H{
		"bot":        snap.Bot,
		"fetched_at": snap.FetchedAt,
		"positions":  positions,
	})
}

func (r *Router) handlePerformance(c *gin.Context) {
	snap, ok := r.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bot":         snap.Bot,
		"fetched_at":  snap.FetchedAt,
		"performance": snap.Performance,
	})
}

func (r *Router) handleExposure(c *gin.Context) {
	snap, ok := r.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bot":      snap.Bot,
		"exposure": snap.Exposure,
	})
}

func (r *Router) handleNextUpdate(c *gin.Context) {
	if _, ok := r.snapshot(c); !ok {
		return
	}
	until := r.svc.NextUpdateIn(c.Param("bot"))
	c.JSON(http.StatusOK, gin.H{
		"next_update_seconds": int(until.Seconds()),
	})
}

func (r *Router) handleRefreshAll(c *gin.Context) {
	if err := r.svc.RefreshAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "refreshed",
		"bots":   r.svc.Bots(),
	})
}

func (r *Router) handleRefresh(c *gin.Context) {
	bot := c.Param("bot")
	triggerEngine := c.Query("engine") == "true"
	if err := r.svc.ForceRefresh(c.Request.Context(), bot, triggerEngine); err != nil {
		switch {
		case errors.Is(err, dashboard.ErrUnknownBot):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, upstream.ErrUpstreamUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	snap, err := r.svc.Snapshot(bot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "refreshed",
		"snapshot_id": snap.SnapshotID,
		"fetched_at":  snap.FetchedAt,
	})
}

func (r *Router) snapshot(c *gin.Context) (types.BotSnapshot, bool) {
	snap, err := r.svc.Snapshot(c.Param("bot"))
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownBot) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return types.BotSnapshot{}, false
	}
	return snap, true
}
