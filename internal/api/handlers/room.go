package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"doodle_web/internal/game"
	"doodle_web/internal/service"
)

// RoomHandler serves read-only room lookups.
type RoomHandler struct {
	router *service.EventRouter
}

func NewRoomHandler(router *service.EventRouter) *RoomHandler {
	return &RoomHandler{router: router}
}

// GetRoom returns the summary of one open room.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	summary, err := h.router.Summary(c.Param("code"))
	if errors.Is(err, game.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
