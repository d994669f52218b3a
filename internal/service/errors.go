package service

import (
	"errors"

	"doodle_web/internal/game"
)

// ErrInvalidPayload marks inbound data that failed to decode or validate.
var ErrInvalidPayload = errors.New("invalid payload")

// errorMessage maps an error to the text shown to the requesting client.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, game.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, game.ErrGameFinished):
		return "Game already finished"
	case errors.Is(err, game.ErrNotWaiting):
		return "Game already started"
	case errors.Is(err, game.ErrInsufficientPlayers):
		return "At least 2 players are needed to start"
	case errors.Is(err, game.ErrPlayerNotFound):
		return "You are not in this room"
	case errors.Is(err, ErrInvalidPayload):
		return "Invalid request"
	default:
		return "Something went wrong"
	}
}
