package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doodle_web/internal/game"
)

type fixedWord string

func (w fixedWord) Random() string { return string(w) }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(roomCode string, totalRounds int, results []game.Result) {
	m.Called(roomCode, totalRounds, results)
}

type recordingDispatcher struct {
	mu  sync.Mutex
	out []Outbound
}

func (d *recordingDispatcher) Dispatch(out []Outbound) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out = append(d.out, out...)
}

func (d *recordingDispatcher) events(name string) []Outbound {
	d.mu.Lock()
	defer d.mu.Unlock()
	return find(d.out, name)
}

type routerFixture struct {
	router   *EventRouter
	registry *game.Registry
	clock    *fakeClock
	archiver *MockArchiver
}

func newRouterFixture(t *testing.T, totalRounds int, tick time.Duration) *routerFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	registry := game.NewRegistry(game.RoomOptions{
		TotalRounds:   totalRounds,
		RoundDuration: 90 * time.Second,
		Words:         fixedWord("OCEAN"),
		Clock:         clock.Now,
	})
	archiver := &MockArchiver{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		registry.Close()
	})
	if tick == 0 {
		tick = time.Hour
	}
	router := NewEventRouter(ctx, registry, RouterOptions{
		TickInterval: tick,
		Clock:        clock.Now,
		Archiver:     archiver,
	})
	return &routerFixture{router: router, registry: registry, clock: clock, archiver: archiver}
}

func request(t *testing.T, event string, data any) Request {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Request{Event: event, Data: raw}
}

func find(out []Outbound, event string) []Outbound {
	var matched []Outbound
	for _, o := range out {
		if o.Event == event {
			matched = append(matched, o)
		}
	}
	return matched
}

func only(t *testing.T, out []Outbound, event string) Outbound {
	t.Helper()
	matched := find(out, event)
	require.Len(t, matched, 1, "events: %+v", out)
	return matched[0]
}

// createRoom has conn "a" host a new room and seats the other conns in it.
func (f *routerFixture) createRoom(t *testing.T, others ...string) string {
	t.Helper()
	out := f.router.Handle("a", request(t, EventCreateRoom, map[string]any{"playerName": "Alice"}))
	code := only(t, out, EventRoomCreated).Payload.(RoomPlayers).RoomCode
	for _, id := range others {
		out := f.router.Handle(id, request(t, EventJoinRoom, map[string]any{"roomCode": code, "playerName": "player-" + id}))
		only(t, out, EventRoomJoined)
	}
	return code
}

func (f *routerFixture) start(t *testing.T, code string) []Outbound {
	t.Helper()
	out := f.router.Handle("a", request(t, EventStartGame, map[string]any{"roomCode": code}))
	require.NotEmpty(t, find(out, EventGameStarted))
	return out
}

func TestEventRouter_CreateRoom(t *testing.T) {
	f := newRouterFixture(t, 5, 0)

	out := f.router.Handle("a", request(t, EventCreateRoom, map[string]any{"playerName": "  Alice "}))
	created := only(t, out, EventRoomCreated)
	assert.Equal(t, []string{"a"}, created.Targets)

	payload := created.Payload.(RoomPlayers)
	assert.Len(t, payload.RoomCode, game.RoomCodeLength)
	require.Len(t, payload.Players, 1)
	assert.Equal(t, "Alice", payload.Players[0].Name)
	assert.Equal(t, game.DefaultStartingCoins, payload.Players[0].Coins)
	assert.True(t, payload.Players[0].IsOnline)
}

func TestEventRouter_CreateRoomRejectsBadPayload(t *testing.T) {
	f := newRouterFixture(t, 5, 0)

	for name, data := range map[string]any{
		"missing name": map[string]any{},
		"blank name":   map[string]any{"playerName": "   "},
		"negative":     map[string]any{"playerName": "Al", "coins": -5},
	} {
		t.Run(name, func(t *testing.T) {
			out := f.router.Handle("a", request(t, EventCreateRoom, data))
			reply := only(t, out, EventJoinError)
			assert.Equal(t, "Invalid request", reply.Payload.(ErrorPayload).Message)
			assert.Zero(t, f.registry.Count())
		})
	}
}

func TestEventRouter_JoinRoom(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t)

	out := f.router.Handle("b", request(t, EventJoinRoom, map[string]any{
		"roomCode":   code,
		"playerName": "Bob",
		"coins":      30,
	}))

	joined := only(t, out, EventRoomJoined)
	assert.Equal(t, []string{"b"}, joined.Targets)
	assert.Len(t, joined.Payload.(RoomPlayers).Players, 2)

	notice := only(t, out, EventPlayerJoined)
	assert.Equal(t, []string{"a"}, notice.Targets)
	player := notice.Payload.(PlayerJoined).Player
	assert.Equal(t, "Bob", player.Name)
	assert.Equal(t, 30, player.Coins)
}

func TestEventRouter_JoinRoomLowercaseCode(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t)

	out := f.router.Handle("b", request(t, EventJoinRoom, map[string]any{
		"roomCode":   " " + strings.ToLower(code) + " ",
		"playerName": "Bob",
	}))
	only(t, out, EventRoomJoined)
}

func TestEventRouter_JoinUnknownRoom(t *testing.T) {
	f := newRouterFixture(t, 5, 0)

	out := f.router.Handle("b", request(t, EventJoinRoom, map[string]any{"roomCode": "ZZZZZZ", "playerName": "Bob"}))
	reply := only(t, out, EventJoinError)
	assert.Equal(t, []string{"b"}, reply.Targets)
	assert.Equal(t, "Room not found", reply.Payload.(ErrorPayload).Message)
}

func TestEventRouter_JoinTwiceIsIdempotent(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t, "b")

	out := f.router.Handle("b", request(t, EventJoinRoom, map[string]any{"roomCode": code, "playerName": "Bob"}))
	only(t, out, EventRoomJoined)
	assert.Empty(t, find(out, EventPlayerJoined))

	room, _ := f.registry.Get(code)
	room.Lock()
	defer room.Unlock()
	assert.Equal(t, 2, room.PlayerCount())
}

func TestEventRouter_JoinAnotherRoomLeavesFirst(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	first := f.createRoom(t, "b")

	out := f.router.Handle("c", request(t, EventCreateRoom, map[string]any{"playerName": "Carol"}))
	second := only(t, out, EventRoomCreated).Payload.(RoomPlayers).RoomCode

	out = f.router.Handle("b", request(t, EventJoinRoom, map[string]any{"roomCode": second, "playerName": "Bob"}))
	left := only(t, out, EventPlayerLeft)
	assert.Equal(t, []string{"a"}, left.Targets)
	only(t, out, EventRoomJoined)

	assert.Equal(t, second, f.registry.RoomOf("b"))
	room, _ := f.registry.Get(first)
	room.Lock()
	defer room.Unlock()
	assert.Equal(t, []string{"a"}, room.PlayerIDs())
}

func TestEventRouter_LateJoinerGetsSnapshot(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t, "b")
	f.start(t, code)

	out := f.router.Handle("c", request(t, EventJoinRoom, map[string]any{"roomCode": code, "playerName": "Carol"}))
	snap := only(t, out, EventGameStarted)
	assert.Equal(t, []string{"c"}, snap.Targets)
	assert.Nil(t, snap.Payload.(GameSnapshot).CurrentWord)
}

func TestEventRouter_PlayerReady(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t, "b")

	out := f.router.Handle("b", request(t, EventPlayerReady, map[string]any{"roomCode": code}))
	update := only(t, out, EventPlayerReadyUpdate)
	assert.ElementsMatch(t, []string{"a", "b"}, update.Targets)

	payload := update.Payload.(PlayerReadyUpdate)
	assert.Equal(t, "b", payload.PlayerID)
	assert.True(t, payload.Players[1].IsReady)
	assert.False(t, payload.Players[0].IsReady)
}

func TestEventRouter_StartGame(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t)

	out := f.router.Handle("a", request(t, EventStartGame, map[string]any{"roomCode": code}))
	reply := only(t, out, EventError)
	assert.Equal(t, "At least 2 players are needed to start", reply.Payload.(ErrorPayload).Message)

	f.router.Handle("b", request(t, EventJoinRoom, map[string]any{"roomCode": code, "playerName": "Bob"}))

	out = f.router.Handle("b", request(t, EventStartGame, map[string]any{"roomCode": code}))
	assert.Empty(t, out)

	out = f.start(t, code)
	snaps := find(out, EventGameStarted)
	require.Len(t, snaps, 2)
	for _, snap := range snaps {
		payload := snap.Payload.(GameSnapshot)
		assert.Equal(t, game.PhasePlaying, payload.GameState)
		assert.Equal(t, 1, payload.CurrentRound)
		assert.Equal(t, 5, payload.TotalRounds)
		assert.Equal(t, 90, payload.TimeLeft)
		assert.Equal(t, 5, payload.WordLength)
		require.NotNil(t, payload.CurrentDrawer)
		assert.Equal(t, "a", *payload.CurrentDrawer)

		switch snap.Targets[0] {
		case "a":
			require.NotNil(t, payload.CurrentWord)
			assert.Equal(t, "OCEAN", *payload.CurrentWord)
		case "b":
			assert.Nil(t, payload.CurrentWord)
		}
	}

	out = f.router.Handle("a", request(t, EventStartGame, map[string]any{"roomCode": code}))
	assert.Equal(t, "Game already started", only(t, out, EventError).Payload.(ErrorPayload).Message)
}

func TestEventRouter_Guessing(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t, "b", "c")
	f.start(t, code)

	t.Run("wrong guess is chat", func(t *testing.T) {
		out := f.router.Handle("c", request(t, EventSendGuess, map[string]any{"roomCode": code, "guess": "river"}))
		msg := only(t, out, EventNewMessage)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, msg.Targets)
		chat := msg.Payload.(ChatMessage)
		assert.Equal(t, "river", chat.Text)
		assert.False(t, chat.IsCorrectGuess)
		assert.Empty(t, find(out, EventCorrectGuess))
	})

	t.Run("drawer typing the word stays private", func(t *testing.T) {
		out := f.router.Handle("a", request(t, EventSendGuess, map[string]any{"roomCode": code, "guess": "ocean"}))
		msg := only(t, out, EventNewMessage)
		assert.Equal(t, []string{"a"}, msg.Targets)
		assert.False(t, msg.Payload.(ChatMessage).IsCorrectGuess)
	})

	t.Run("correct guess", func(t *testing.T) {
		out := f.router.Handle("b", request(t, EventSendGuess, map[string]any{"roomCode": code, "guess": "Ocean "}))

		chat := only(t, out, EventNewMessage).Payload.(ChatMessage)
		assert.True(t, chat.IsCorrectGuess)
		assert.Equal(t, "player-b guessed the word!", chat.Text)
		require.NotNil(t, chat.Points)
		assert.Equal(t, 100, *chat.Points)
		assert.NotEmpty(t, chat.ID)

		correct := only(t, out, EventCorrectGuess).Payload.(CorrectGuess)
		assert.Equal(t, "b", correct.PlayerID)
		assert.Equal(t, 100, correct.Points)
		assert.Empty(t, find(out, EventNextRound))
	})

	t.Run("repeat guess stays private", func(t *testing.T) {
		out := f.router.Handle("b", request(t, EventSendGuess, map[string]any{"roomCode": code, "guess": "ocean"}))
		msg := only(t, out, EventNewMessage)
		assert.Equal(t, []string{"b"}, msg.Targets)
		assert.Empty(t, find(out, EventCorrectGuess))
	})

	t.Run("last guesser ends the round", func(t *testing.T) {
		f.clock.Advance(50 * time.Second)
		out := f.router.Handle("c", request(t, EventSendGuess, map[string]any{"roomCode": code, "guess": "OCEAN"}))

		correct := only(t, out, EventCorrectGuess).Payload.(CorrectGuess)
		assert.Equal(t, 72, correct.Points)

		next := find(out, EventNextRound)
		require.Len(t, next, 2)
		for _, snap := range next {
			payload := snap.Payload.(GameSnapshot)
			assert.Equal(t, 2, payload.CurrentRound)
			assert.Equal(t, "b", *payload.CurrentDrawer)
		}
	})
}

func TestEventRouter_GameFinishesAndArchives(t *testing.T) {
	f := newRouterFixture(t, 1, 0)
	code := f.createRoom(t, "b")
	f.start(t, code)

	f.archiver.On("Archive", code, 1, mock.MatchedBy(func(results []game.Result) bool {
		return len(results) == 2 && results[0].ID == "b"
	})).Once()

	out := f.router.Handle("b", request(t, EventSendGuess, map[string]any{"roomCode": code, "guess": "ocean"}))
	finished := only(t, out, EventGameFinished)
	assert.ElementsMatch(t, []string{"a", "b"}, finished.Targets)

	results := finished.Payload.(GameFinished).Results
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, 100, results[0].FinalScore)
	assert.Equal(t, "a", results[1].ID)
	assert.Equal(t, 25, results[1].FinalScore)

	f.archiver.AssertExpectations(t)

	out = f.router.Handle("c", request(t, EventJoinRoom, map[string]any{"roomCode": code, "playerName": "Carol"}))
	assert.Equal(t, "Game already finished", only(t, out, EventJoinError).Payload.(ErrorPayload).Message)
}

func TestEventRouter_DrawingRelay(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t, "b", "c")

	out := f.router.Handle("a", request(t, EventDrawingData, map[string]any{
		"roomCode":    code,
		"drawingData": "data:image/png;base64,AAAA",
	}))
	update := only(t, out, EventDrawingUpdate)
	assert.ElementsMatch(t, []string{"b", "c"}, update.Targets)
	assert.JSONEq(t, `"data:image/png;base64,AAAA"`, string(update.Payload.(DrawingUpdate).DrawingData))
}

func TestEventRouter_SendMessage(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t, "b")

	out := f.router.Handle("b", request(t, EventSendMessage, map[string]any{"roomCode": code, "message": "hi"}))
	msg := only(t, out, EventNewMessage)
	assert.ElementsMatch(t, []string{"a", "b"}, msg.Targets)
	chat := msg.Payload.(ChatMessage)
	assert.Equal(t, "player-b", chat.User)
	assert.Equal(t, "hi", chat.Text)
	assert.Nil(t, chat.Points)
	assert.Equal(t, f.clock.Now(), chat.Timestamp)
}

func TestEventRouter_RejectsOutsiders(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t)

	out := f.router.Handle("x", request(t, EventSendMessage, map[string]any{"roomCode": code, "message": "hi"}))
	assert.Equal(t, "You are not in this room", only(t, out, EventError).Payload.(ErrorPayload).Message)

	out = f.router.Handle("x", request(t, EventPlayerReady, map[string]any{"roomCode": "NOPE00"}))
	assert.Equal(t, "Room not found", only(t, out, EventError).Payload.(ErrorPayload).Message)
}

func TestEventRouter_MalformedAndUnknown(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t, "b")
	f.start(t, code)

	out := f.router.Handle("b", Request{Event: EventSendGuess, Data: json.RawMessage(`{"roomCode":`)})
	assert.Equal(t, "Invalid request", only(t, out, EventError).Payload.(ErrorPayload).Message)

	out = f.router.Handle("b", request(t, EventSendGuess, map[string]any{"guess": "ocean"}))
	assert.Equal(t, "Invalid request", only(t, out, EventError).Payload.(ErrorPayload).Message)

	out = f.router.Handle("b", Request{Event: EventSendGuess})
	only(t, out, EventError)

	out = f.router.Handle("b", request(t, "fly-away", map[string]any{}))
	reply := only(t, out, EventError)
	assert.Equal(t, []string{"b"}, reply.Targets)

	room, _ := f.registry.Get(code)
	room.Lock()
	defer room.Unlock()
	for _, p := range room.Players() {
		assert.Zero(t, p.Score)
	}
}

func TestEventRouter_Disconnect(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t, "b")

	out := f.router.Disconnect("a")
	left := only(t, out, EventPlayerLeft)
	assert.Equal(t, []string{"b"}, left.Targets)
	payload := left.Payload.(PlayerLeft)
	assert.Equal(t, "a", payload.PlayerID)
	assert.Equal(t, "b", payload.HostID)

	assert.Empty(t, f.router.Disconnect("a"))

	assert.Empty(t, f.router.Handle("b", Request{Event: EventDisconnect}))
	assert.Zero(t, f.registry.Count())

	out = f.router.Handle("c", request(t, EventJoinRoom, map[string]any{"roomCode": code, "playerName": "Carol"}))
	assert.Equal(t, "Room not found", only(t, out, EventJoinError).Payload.(ErrorPayload).Message)
}

func TestEventRouter_DrawerDisconnectAdvancesRound(t *testing.T) {
	f := newRouterFixture(t, 5, 0)
	code := f.createRoom(t, "b", "c")
	f.start(t, code)

	out := f.router.Disconnect("a")
	only(t, out, EventPlayerLeft)
	next := find(out, EventNextRound)
	require.Len(t, next, 2)
	for _, snap := range next {
		payload := snap.Payload.(GameSnapshot)
		assert.Equal(t, 2, payload.CurrentRound)
		assert.Equal(t, "b", *payload.CurrentDrawer)
		assert.Equal(t, "b", payload.HostID)
	}
}

func TestEventRouter_TimerDrivesRounds(t *testing.T) {
	f := newRouterFixture(t, 5, 5*time.Millisecond)
	dispatcher := &recordingDispatcher{}
	f.router.SetDispatcher(dispatcher)

	code := f.createRoom(t, "b")
	f.start(t, code)

	require.Eventually(t, func() bool {
		return len(dispatcher.events(EventTimerUpdate)) > 0
	}, time.Second, time.Millisecond)
	update := dispatcher.events(EventTimerUpdate)[0]
	assert.ElementsMatch(t, []string{"a", "b"}, update.Targets)
	assert.Equal(t, 90, update.Payload.(TimerUpdate).TimeLeft)

	f.clock.Advance(90 * time.Second)
	require.Eventually(t, func() bool {
		return len(dispatcher.events(EventNextRound)) == 2
	}, time.Second, time.Millisecond)

	room, _ := f.registry.Get(code)
	room.Lock()
	defer room.Unlock()
	assert.Equal(t, 2, room.Round())
	assert.Equal(t, "b", room.DrawerID())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Room is full", errorMessage(game.ErrRoomFull))
	assert.Equal(t, "Invalid request", errorMessage(ErrInvalidPayload))
	assert.Equal(t, "Something went wrong", errorMessage(assert.AnError))
}
