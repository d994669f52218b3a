package game

// Player is one connection's seat in a room.
type Player struct {
	ID             string
	Name           string
	Coins          int
	Score          int
	Ready          bool
	Online         bool
	HasGuessed     bool
	CorrectGuesses int
}

// PlayerView is the public shape of a player sent to clients.
type PlayerView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Coins          int    `json:"coins"`
	Score          int    `json:"score"`
	IsReady        bool   `json:"isReady"`
	IsOnline       bool   `json:"isOnline"`
	HasGuessed     bool   `json:"hasGuessed"`
	CorrectGuesses int    `json:"correctGuesses"`
}

func newPlayer(id, name string, coins int) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Coins:  coins,
		Online: true,
	}
}

// View copies the player into its public shape.
func (p *Player) View() PlayerView {
	return PlayerView{
		ID:             p.ID,
		Name:           p.Name,
		Coins:          p.Coins,
		Score:          p.Score,
		IsReady:        p.Ready,
		IsOnline:       p.Online,
		HasGuessed:     p.HasGuessed,
		CorrectGuesses: p.CorrectGuesses,
	}
}
