package game

import "strings"

// GuessResult is the verdict on one guess.
type GuessResult struct {
	Correct bool `json:"correct"`
	Points  int  `json:"points"`
}

// EvaluateGuess checks a guess against the room's secret word and, when it is
// correct, awards the guesser and the drawer. Guesses from the drawer, from
// non-members, from players who already guessed this round, or outside of a
// running round are plain incorrect guesses. The room must be locked.
func EvaluateGuess(room *Room, playerID, guess string) GuessResult {
	if room.phase != PhasePlaying || playerID == room.drawerID {
		return GuessResult{}
	}
	player, ok := room.players[playerID]
	if !ok || player.HasGuessed {
		return GuessResult{}
	}
	if !GuessMatches(guess, room.word) {
		return GuessResult{}
	}

	player.HasGuessed = true
	player.CorrectGuesses++
	points := GuessPoints(room.TimeLeft(), room.roundSeconds())
	player.Score += points
	player.Coins += points / 2

	if drawer, ok := room.players[room.drawerID]; ok {
		drawer.Score += DrawerPoints
		drawer.Coins += DrawerCoins
	}

	return GuessResult{Correct: true, Points: points}
}

// GuessMatches compares case-insensitively after trimming surrounding whitespace.
func GuessMatches(guess, word string) bool {
	if word == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(word))
}

// GuessPoints is the base award plus a bonus that shrinks linearly with the
// time remaining: 50 + floor(timeLeft/roundSeconds * 50), never below 50.
func GuessPoints(timeLeft, roundSeconds int) int {
	if roundSeconds <= 0 || timeLeft <= 0 {
		return BaseGuessPoints
	}
	if timeLeft > roundSeconds {
		timeLeft = roundSeconds
	}
	return BaseGuessPoints + timeLeft*MaxTimeBonus/roundSeconds
}
