package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"doodle_web/internal/models"
	"doodle_web/internal/service"
)

const (
	defaultResultLimit = 20
	maxResultLimit     = 100
)

// ResultHandler serves archived game results.
type ResultHandler struct {
	results *service.ResultService
}

// NewResultHandler accepts a nil service, in which case every request answers 503.
func NewResultHandler(results *service.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

type resultQuery struct {
	Room  string `form:"room" binding:"omitempty,max=6"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ListResults returns recent finished games, or those of one room when ?room= is set.
func (h *ResultHandler) ListResults(c *gin.Context) {
	if h.results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Result archive is disabled"})
		return
	}

	var query resultQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultResultLimit
	}
	if query.Limit > maxResultLimit {
		query.Limit = maxResultLimit
	}

	ctx := c.Request.Context()
	var results []models.GameResult
	var err error
	if query.Room != "" {
		results, err = h.results.ForRoom(ctx, query.Room)
	} else {
		results, err = h.results.Recent(ctx, query.Limit)
	}
	if err != nil {
		log.Error().Err(err).Str("room", query.Room).Msg("list results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load results"})
		return
	}

	if results == nil {
		results = []models.GameResult{}
	}
	c.JSON(http.StatusOK, results)
}
