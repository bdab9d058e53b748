package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playpong/backend/internal/game"
	"github.com/playpong/backend/internal/models"
	"github.com/playpong/backend/internal/persistence"
)

// MatchSource is the engine's read side.
type MatchSource interface {
	Match(ctx context.Context, id int64) (game.MatchInfo, bool, error)
	Stats(ctx context.Context) (game.Stats, error)
}

// SnapshotStore returns the last published event of a match that is no
// longer in memory.
type SnapshotStore interface {
	Load(ctx context.Context, matchID int64) (game.Event, error)
}

// History reads persisted match records.
type History interface {
	GetMatch(ctx context.Context, id int64) (models.MatchRecord, error)
	RecentMatches(ctx context.Context, username string, limit int) ([]models.MatchRecord, error)
}

// GetMatch returns a live match, falling back to the last stored snapshot.
func GetMatch(src MatchSource, snaps SnapshotStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
			return
		}

		info, found, err := src.Match(c.Request.Context(), id)
		if err != nil {
			log.Printf("[API] match %d lookup failed: %v", id, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "engine unavailable"})
			return
		}
		if found {
			c.JSON(http.StatusOK, gin.H{"source": "live", "match": info})
			return
		}

		if snaps != nil {
			ev, err := snaps.Load(c.Request.Context(), id)
			if err == nil {
				c.JSON(http.StatusOK, gin.H{"source": "snapshot", "event": ev})
				return
			}
			log.Printf("[API] no snapshot for match %d: %v", id, err)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
	}
}

// ListMatches returns recently finished matches from the database.
func ListMatches(history History) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history disabled"})
			return
		}
		recs, err := history.RecentMatches(c.Request.Context(), c.Query("username"), queryLimit(c, 20, 100))
		if err != nil {
			log.Printf("[API] recent matches failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		out := make([]models.MatchSummary, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.Summary())
		}
		c.JSON(http.StatusOK, gin.H{"matches": out})
	}
}

// GetMatchRecord returns one persisted match by record id.
func GetMatchRecord(history History) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match history disabled"})
			return
		}
		id, ok := parseID(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
			return
		}
		rec, err := history.GetMatch(c.Request.Context(), id)
		if errors.Is(err, persistence.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		if err != nil {
			log.Printf("[API] record %d lookup failed: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, rec.Summary())
	}
}

// GetQueueStatus reports waiting and active matches.
func GetQueueStatus(src MatchSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := src.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "engine unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"waiting":     st.Waiting,
			"active":      st.Active,
			"connections": st.Connections,
			"queue":       st.Queue,
		})
	}
}
