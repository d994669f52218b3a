package service

import (
	"encoding/json"
	"time"

	"doodle_web/internal/game"
)

// Inbound event names.
const (
	EventCreateRoom  = "create-room"
	EventJoinRoom    = "join-room"
	EventPlayerReady = "player-ready"
	EventStartGame   = "start-game"
	EventDrawingData = "drawing-data"
	EventSendGuess   = "send-guess"
	EventSendMessage = "send-message"
	EventDisconnect  = "disconnect"
)

// Outbound event names.
const (
	EventRoomCreated       = "room-created"
	EventRoomJoined        = "room-joined"
	EventJoinError         = "join-error"
	EventPlayerJoined      = "player-joined"
	EventPlayerLeft        = "player-left"
	EventPlayerReadyUpdate = "player-ready-update"
	EventGameStarted       = "game-started"
	EventTimerUpdate       = "timer-update"
	EventNextRound         = "next-round"
	EventNewMessage        = "new-message"
	EventCorrectGuess      = "correct-guess"
	EventGameFinished      = "game-finished"
	EventDrawingUpdate     = "drawing-update"
	EventError             = "error"
)

// Request is one named event received from a connection.
type Request struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound is an event addressed to a set of connections.
type Outbound struct {
	Event   string
	Payload any
	Targets []string
}

// Envelope is the wire framing of an outbound event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type CreateRoomInput struct {
	PlayerName string `json:"playerName" binding:"required,max=32"`
	Coins      *int   `json:"coins" binding:"omitempty,min=0"`
}

type JoinRoomInput struct {
	RoomCode   string `json:"roomCode" binding:"required"`
	PlayerName string `json:"playerName" binding:"required,max=32"`
	Coins      *int   `json:"coins" binding:"omitempty,min=0"`
}

// RoomInput carries only the room code (player-ready, start-game).
type RoomInput struct {
	RoomCode string `json:"roomCode" binding:"required"`
}

type DrawingInput struct {
	RoomCode    string          `json:"roomCode" binding:"required"`
	DrawingData json.RawMessage `json:"drawingData" binding:"required"`
}

type GuessInput struct {
	RoomCode string `json:"roomCode" binding:"required"`
	Guess    string `json:"guess" binding:"required"`
}

type MessageInput struct {
	RoomCode string `json:"roomCode" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

type RoomPlayers struct {
	RoomCode string            `json:"roomCode"`
	Players  []game.PlayerView `json:"players"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayerJoined struct {
	Player  game.PlayerView   `json:"player"`
	Players []game.PlayerView `json:"players"`
}

type PlayerLeft struct {
	PlayerID string            `json:"playerId"`
	HostID   string            `json:"hostId"`
	Players  []game.PlayerView `json:"players"`
}

type PlayerReadyUpdate struct {
	PlayerID string            `json:"playerId"`
	Players  []game.PlayerView `json:"players"`
}

// GameSnapshot is the round state as seen by one recipient. CurrentWord is only
// set in the drawer's copy.
type GameSnapshot struct {
	GameState     game.Phase        `json:"gameState"`
	CurrentRound  int               `json:"currentRound"`
	TotalRounds   int               `json:"totalRounds"`
	CurrentDrawer *string           `json:"currentDrawer"`
	CurrentWord   *string           `json:"currentWord"`
	WordLength    int               `json:"wordLength"`
	TimeLeft      int               `json:"timeLeft"`
	HostID        string            `json:"hostId"`
	Players       []game.PlayerView `json:"players"`
}

type TimerUpdate struct {
	TimeLeft int `json:"timeLeft"`
}

// ChatMessage is one transcript line; guesses and chat share the shape.
type ChatMessage struct {
	ID             string    `json:"id"`
	User           string    `json:"user"`
	Text           string    `json:"text"`
	IsCorrectGuess bool      `json:"isCorrectGuess"`
	Points         *int      `json:"points,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type CorrectGuess struct {
	PlayerID   string            `json:"playerId"`
	PlayerName string            `json:"playerName"`
	Points     int               `json:"points"`
	Players    []game.PlayerView `json:"players"`
}

type GameFinished struct {
	Results []game.Result `json:"results"`
}

type DrawingUpdate struct {
	DrawingData json.RawMessage `json:"drawingData"`
}
