package service

import (
	"doodle_web/internal/game"
)

// RoomSummary is the public view of a room served over HTTP. It never carries
// the word.
type RoomSummary struct {
	RoomCode     string            `json:"roomCode"`
	GameState    game.Phase        `json:"gameState"`
	CurrentRound int               `json:"currentRound"`
	TotalRounds  int               `json:"totalRounds"`
	HostID       string            `json:"hostId"`
	PlayerCount  int               `json:"playerCount"`
	Players      []game.PlayerView `json:"players"`
}

// Summary describes the room with the given code.
func (s *EventRouter) Summary(code string) (RoomSummary, error) {
	code = normalizeCode(code)
	room, ok := s.registry.Get(code)
	if !ok {
		return RoomSummary{}, game.ErrRoomNotFound
	}

	room.Lock()
	defer room.Unlock()
	if room.Closed() {
		return RoomSummary{}, game.ErrRoomNotFound
	}
	return RoomSummary{
		RoomCode:     code,
		GameState:    room.Phase(),
		CurrentRound: room.Round(),
		TotalRounds:  room.TotalRounds(),
		HostID:       room.HostID(),
		PlayerCount:  room.PlayerCount(),
		Players:      room.Players(),
	}, nil
}

// RoomCount reports how many rooms are open.
func (s *EventRouter) RoomCount() int {
	return s.registry.Count()
}
