package game

import "time"

const (
	// DefaultTotalRounds is the number of rounds in a game unless configured otherwise
	DefaultTotalRounds = 5

	// DefaultRoundDuration is the drawing time of every round
	DefaultRoundDuration = 90 * time.Second

	// DefaultStartingCoins seeds a player's balance when the client sends none
	DefaultStartingCoins = 100

	// MinPlayers is the minimum number of players required to start a game
	MinPlayers = 2

	// BaseGuessPoints is awarded for every correct guess
	BaseGuessPoints = 50

	// MaxTimeBonus is the bonus for a guess made with the full round remaining
	MaxTimeBonus = 50

	// DrawerPoints and DrawerCoins go to the drawer for each distinct correct guess
	DrawerPoints = 25
	DrawerCoins  = 12

	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6

	// RoomCodeChars are the characters used for generating room codes
	RoomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)
