package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"streamcomb/app/crawl"
	"streamcomb/app/store"
)

func NewHandler(engine EngineInterface, aggregates store.AggregateRepository) *Handler {
	return &Handler{
		engine:     engine,
		aggregates: aggregates,
	}
}

// GetFilms returns the merged movie catalog. Supports ?sort=title for a
// locale-aware title ordering and ?provider=<id> to narrow to one provider.
func (h *Handler) GetFilms(c *gin.Context) {
	aggregate, err := h.aggregates.Load()
	if err != nil {
		slog.Error("Aggregate store read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Catalog store unavailable"})
		return
	}

	films := aggregate.Movies

	if providerParam := c.Query("provider"); providerParam != "" {
		providerID, err := strconv.Atoi(providerParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
			return
		}
		filtered := make([]store.Movie, 0, len(films))
		for i := range films {
			if films[i].HasProvider(providerID) {
				filtered = append(filtered, films[i])
			}
		}
		films = filtered
	}

	if c.Query("sort") == "title" {
		collator := collate.New(language.English, collate.IgnoreCase)
		sorted := make([]store.Movie, len(films))
		copy(sorted, films)
		sort.SliceStable(sorted, func(i, j int) bool {
			return collator.CompareString(sorted[i].Title, sorted[j].Title) < 0
		})
		films = sorted
	}

	c.JSON(http.StatusOK, gin.H{
		"films":       films,
		"total":       len(films),
		"lastUpdated": aggregate.LastUpdated,
	})
}

func (h *Handler) GetStatus(c *gin.Context) {
	report, err := h.engine.Status()
	if err != nil {
		slog.Error("Status read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Status unavailable"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// AdvanceChunk moves one provider's crawl forward by a bounded amount of
// work. The optional ?chunkSize= query sets the row budget; the engine
// clamps it.
func (h *Handler) AdvanceChunk(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	chunkSize := 0
	if sizeParam := c.Query("chunkSize"); sizeParam != "" {
		chunkSize, err = strconv.Atoi(sizeParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chunk size"})
			return
		}
	}

	result, err := h.engine.Advance(c.Request.Context(), providerID, chunkSize)
	if err != nil {
		if errors.Is(err, crawl.ErrUnknownProvider) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown provider id"})
			return
		}
		slog.Error("Chunk advance failed", "provider_id", providerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chunk advance failed"})
		return
	}

	if result.Stalled {
		// Upstream trouble; whatever progress was made is already saved and
		// the body carries the snapshot to resume from.
		c.JSON(http.StatusBadGateway, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ResetProvider(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	snapshot, err := h.engine.ResetEpoch(providerID)
	if err != nil {
		if errors.Is(err, crawl.ErrUnknownProvider) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown provider id"})
			return
		}
		slog.Error("Provider reset failed", "provider_id", providerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Provider reset failed"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if report, err := h.engine.Status(); err == nil {
		health["providers"] = len(report.Providers)
		health["cached_movies"] = report.Overall.TotalCached
	}

	c.JSON(http.StatusOK, health)
}
