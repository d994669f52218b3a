package game

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrUnauthorized        = errors.New("only the host can do that")
	ErrNotWaiting          = errors.New("game already started")
	ErrNotPlaying          = errors.New("game is not in progress")
	ErrGameFinished        = errors.New("game already finished")
	ErrRoomFull            = errors.New("room is full")
	ErrPlayerNotFound      = errors.New("player not in room")
)
