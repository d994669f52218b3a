package models

import (
	"time"

	"gorm.io/gorm"
)

// GameResult is the archived outcome of one finished game.
type GameResult struct {
	gorm.Model
	RoomCode   string            `gorm:"type:varchar(6);index;not null" json:"room_code"`
	Rounds     int               `json:"rounds"`
	FinishedAt time.Time         `gorm:"index" json:"finished_at"`
	Entries    []GameResultEntry `gorm:"foreignKey:GameResultID;constraint:OnDelete:CASCADE" json:"entries"`
}

// GameResultEntry is one player's line of an archived leaderboard.
type GameResultEntry struct {
	gorm.Model
	GameResultID   uint   `gorm:"index;not null" json:"-"`
	Rank           int    `json:"rank"`
	PlayerName     string `gorm:"type:varchar(32);not null" json:"player_name"`
	Score          int    `json:"score"`
	Coins          int    `json:"coins"`
	CorrectGuesses int    `json:"correct_guesses"`
}
