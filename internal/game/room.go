package game

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// Phase is the coarse lifecycle state of a room.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Clock returns the current time. Tests swap it for a fake.
type Clock func() time.Time

// RoomOptions configures every room created by a registry.
type RoomOptions struct {
	TotalRounds   int
	RoundDuration time.Duration
	MaxPlayers    int // 0 means unlimited
	Words         WordSource
	Clock         Clock
}

func (o RoomOptions) withDefaults() RoomOptions {
	if o.TotalRounds <= 0 {
		o.TotalRounds = DefaultTotalRounds
	}
	if o.RoundDuration < time.Second {
		o.RoundDuration = DefaultRoundDuration
	}
	if o.Words == nil {
		o.Words = NewWordBank(nil)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// RoundState is a point-in-time copy of a room's game state.
type RoundState struct {
	Phase       Phase
	Round       int
	TotalRounds int
	DrawerID    string
	Word        string
	TimeLeft    int
	HostID      string
	Players     []PlayerView
}

// Result is one line of the final leaderboard.
type Result struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FinalScore     int    `json:"finalScore"`
	CoinsEarned    int    `json:"coinsEarned"`
	CorrectGuesses int    `json:"correctGuesses"`
}

// RoundOutcome describes what a round transition produced: either the state of
// the new round or, when the game is over, the final results.
type RoundOutcome struct {
	Finished bool
	State    RoundState
	Results  []Result
}

// Room is one game session. All methods except Code must be called with the
// room locked.
type Room struct {
	mu sync.Mutex

	code   string
	hostID string

	order   []string
	players map[string]*Player

	phase         Phase
	round         int
	totalRounds   int
	drawerID      string
	word          string
	timeLeft      int
	roundStart    time.Time
	roundDuration time.Duration
	maxPlayers    int

	words WordSource
	now   Clock
	timer *RoundTimer

	closed bool
}

// NewRoom creates an empty room in the waiting phase.
func NewRoom(code string, opts RoomOptions) *Room {
	opts = opts.withDefaults()
	return &Room{
		code:          code,
		players:       make(map[string]*Player),
		phase:         PhaseWaiting,
		totalRounds:   opts.TotalRounds,
		roundDuration: opts.RoundDuration,
		maxPlayers:    opts.MaxPlayers,
		words:         opts.Words,
		now:           opts.Clock,
	}
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// Code is immutable and safe to call without the lock.
func (r *Room) Code() string { return r.code }

func (r *Room) HostID() string   { return r.hostID }
func (r *Room) Phase() Phase     { return r.phase }
func (r *Room) Round() int       { return r.round }
func (r *Room) TotalRounds() int { return r.totalRounds }
func (r *Room) DrawerID() string { return r.drawerID }
func (r *Room) Word() string     { return r.word }
func (r *Room) Closed() bool     { return r.closed }
func (r *Room) PlayerCount() int { return len(r.order) }

// Player looks up a member by connection id.
func (r *Room) Player(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// PlayerIDs returns member ids in turn order.
func (r *Room) PlayerIDs() []string {
	return slices.Clone(r.order)
}

// Players returns public views of every member in turn order.
func (r *Room) Players() []PlayerView {
	views := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		views = append(views, r.players[id].View())
	}
	return views
}

// TimeLeft derives the whole seconds remaining in the current round from the
// round start, so scheduler jitter never accumulates.
func (r *Room) TimeLeft() int {
	if r.phase != PhasePlaying {
		return r.timeLeft
	}
	elapsed := int(r.now().Sub(r.roundStart) / time.Second)
	left := r.roundSeconds() - elapsed
	if left < 0 {
		left = 0
	}
	r.timeLeft = left
	return left
}

func (r *Room) roundSeconds() int {
	return int(r.roundDuration / time.Second)
}

// State snapshots the room, including the secret word.
func (r *Room) State() RoundState {
	return RoundState{
		Phase:       r.phase,
		Round:       r.round,
		TotalRounds: r.totalRounds,
		DrawerID:    r.drawerID,
		Word:        r.word,
		TimeLeft:    r.TimeLeft(),
		HostID:      r.hostID,
		Players:     r.Players(),
	}
}

// Start moves a waiting room with enough players into its first round.
func (r *Room) Start() error {
	switch r.phase {
	case PhaseFinished:
		return ErrGameFinished
	case PhasePlaying:
		return ErrNotWaiting
	}
	if len(r.order) < MinPlayers {
		return ErrInsufficientPlayers
	}

	r.phase = PhasePlaying
	r.round = 1
	r.beginRound(r.order[0])
	return nil
}

// StartBy starts the game on behalf of playerID, who must be the host.
func (r *Room) StartBy(playerID string) error {
	if r.hostID != playerID {
		return ErrUnauthorized
	}
	return r.Start()
}

// AdvanceRound ends the current round. After the last round the room becomes
// finished and the outcome carries the final results.
func (r *Room) AdvanceRound() (RoundOutcome, error) {
	switch r.phase {
	case PhaseWaiting:
		return RoundOutcome{}, ErrNotPlaying
	case PhaseFinished:
		return RoundOutcome{}, ErrGameFinished
	}
	return r.advanceTo(r.successorOf(r.drawerID)), nil
}

func (r *Room) advanceTo(next string) RoundOutcome {
	if r.round >= r.totalRounds {
		r.finish()
		return RoundOutcome{Finished: true, State: r.State(), Results: r.Results()}
	}
	r.round++
	r.beginRound(next)
	return RoundOutcome{State: r.State()}
}

func (r *Room) beginRound(drawer string) {
	r.drawerID = drawer
	r.word = r.words.Random()
	r.roundStart = r.now()
	r.timeLeft = r.roundSeconds()
	for _, p := range r.players {
		p.HasGuessed = false
	}
}

func (r *Room) finish() {
	r.phase = PhaseFinished
	r.drawerID = ""
	r.word = ""
	r.timeLeft = 0
	r.stopTimer()
}

// successorOf returns the player after id in turn order, wrapping around.
func (r *Room) successorOf(id string) string {
	idx := slices.Index(r.order, id)
	return r.order[(idx+1)%len(r.order)]
}

// AllGuessed reports whether every player except the drawer has guessed the
// word this round.
func (r *Room) AllGuessed() bool {
	if r.phase != PhasePlaying {
		return false
	}
	guessers := 0
	for id, p := range r.players {
		if id == r.drawerID {
			continue
		}
		if !p.HasGuessed {
			return false
		}
		guessers++
	}
	return guessers > 0
}

// SetReady marks a member as ready.
func (r *Room) SetReady(id string) error {
	if r.phase == PhaseFinished {
		return ErrGameFinished
	}
	p, ok := r.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Ready = true
	return nil
}

// Results ranks players by score, highest first; ties keep turn order.
func (r *Room) Results() []Result {
	results := make([]Result, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		results = append(results, Result{
			ID:             p.ID,
			Name:           p.Name,
			FinalScore:     p.Score,
			CoinsEarned:    p.Score / 2,
			CorrectGuesses: p.CorrectGuesses,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
	return results
}

func (r *Room) addPlayer(id, name string, coins int) (*Player, error) {
	if r.phase == PhaseFinished {
		return nil, ErrGameFinished
	}

	player := newPlayer(id, name, coins)
	if _, exists := r.players[id]; exists {
		r.players[id] = player
		return player, nil
	}
	if r.maxPlayers > 0 && len(r.order) >= r.maxPlayers {
		return nil, ErrRoomFull
	}

	r.players[id] = player
	r.order = append(r.order, id)
	return player, nil
}

// Departure reports the effects of a player leaving.
type Departure struct {
	Removed     bool
	RoomDeleted bool
	PlayerID    string
	HostID      string
	HostChanged bool
	Players     []PlayerView
	// Outcome is set when the departure ended the round or the game.
	Outcome *RoundOutcome
}

func (r *Room) removePlayer(id string) Departure {
	idx := slices.Index(r.order, id)
	if idx < 0 {
		return Departure{}
	}

	wasDrawer := r.phase == PhasePlaying && r.drawerID == id
	successor := r.order[(idx+1)%len(r.order)]

	r.order = slices.Delete(r.order, idx, idx+1)
	delete(r.players, id)
	dep := Departure{Removed: true, PlayerID: id}

	if len(r.order) == 0 {
		r.drawerID = ""
		return dep
	}

	if r.hostID == id {
		r.hostID = r.order[0]
		dep.HostChanged = true
	}

	if r.phase == PhasePlaying {
		switch {
		case len(r.order) < MinPlayers:
			r.finish()
			dep.Outcome = &RoundOutcome{Finished: true, State: r.State(), Results: r.Results()}
		case wasDrawer:
			outcome := r.advanceTo(successor)
			dep.Outcome = &outcome
		case r.AllGuessed():
			outcome := r.advanceTo(r.successorOf(r.drawerID))
			dep.Outcome = &outcome
		}
	}

	dep.HostID = r.hostID
	dep.Players = r.Players()
	return dep
}

// AttachTimer binds a running round timer to the room, stopping any previous one.
func (r *Room) AttachTimer(t *RoundTimer) {
	r.stopTimer()
	r.timer = t
}

func (r *Room) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Room) close() {
	r.closed = true
	r.stopTimer()
}
