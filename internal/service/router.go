package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"doodle_web/internal/game"
)

// Dispatcher delivers events produced outside of a request, such as timer ticks.
type Dispatcher interface {
	Dispatch(out []Outbound)
}

// ResultArchiver records finished games.
type ResultArchiver interface {
	Archive(roomCode string, totalRounds int, results []game.Result)
}

// RouterOptions tunes an EventRouter.
type RouterOptions struct {
	TickInterval time.Duration
	Clock        game.Clock
	Archiver     ResultArchiver
}

// EventRouter maps inbound events onto registry and room operations and turns
// the results into outbound events. Handle never blocks on I/O.
type EventRouter struct {
	ctx          context.Context
	registry     *game.Registry
	tickInterval time.Duration
	now          game.Clock
	archiver     ResultArchiver

	dispatchMu sync.RWMutex
	dispatcher Dispatcher
}

// NewEventRouter creates a router over registry. Room timers stop when ctx is cancelled.
func NewEventRouter(ctx context.Context, registry *game.Registry, opts RouterOptions) *EventRouter {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &EventRouter{
		ctx:          ctx,
		registry:     registry,
		tickInterval: opts.TickInterval,
		now:          opts.Clock,
		archiver:     opts.Archiver,
	}
}

// SetDispatcher sets where timer-driven events are delivered.
func (s *EventRouter) SetDispatcher(d Dispatcher) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.dispatcher = d
}

func (s *EventRouter) dispatch(out []Outbound) {
	if len(out) == 0 {
		return
	}
	s.dispatchMu.RLock()
	d := s.dispatcher
	s.dispatchMu.RUnlock()
	if d != nil {
		d.Dispatch(out)
	}
}

// Handle processes one inbound event from connID and returns the events to deliver.
func (s *EventRouter) Handle(connID string, req Request) []Outbound {
	switch req.Event {
	case EventCreateRoom:
		var in CreateRoomInput
		if err := decode(req.Data, &in); err != nil {
			return rejected(connID, req.Event, EventJoinError, err)
		}
		return s.createRoom(connID, in)

	case EventJoinRoom:
		var in JoinRoomInput
		if err := decode(req.Data, &in); err != nil {
			return rejected(connID, req.Event, EventJoinError, err)
		}
		return s.joinRoom(connID, in)

	case EventPlayerReady:
		var in RoomInput
		if err := decode(req.Data, &in); err != nil {
			return rejected(connID, req.Event, EventError, err)
		}
		return s.withRoom(connID, in.RoomCode, s.playerReady(connID))

	case EventStartGame:
		var in RoomInput
		if err := decode(req.Data, &in); err != nil {
			return rejected(connID, req.Event, EventError, err)
		}
		return s.withRoom(connID, in.RoomCode, s.startGame(connID))

	case EventDrawingData:
		var in DrawingInput
		if err := decode(req.Data, &in); err != nil {
			return rejected(connID, req.Event, EventError, err)
		}
		return s.withRoom(connID, in.RoomCode, s.relayDrawing(connID, in.DrawingData))

	case EventSendGuess:
		var in GuessInput
		if err := decode(req.Data, &in); err != nil {
			return rejected(connID, req.Event, EventError, err)
		}
		return s.withRoom(connID, in.RoomCode, s.sendGuess(connID, in.Guess))

	case EventSendMessage:
		var in MessageInput
		if err := decode(req.Data, &in); err != nil {
			return rejected(connID, req.Event, EventError, err)
		}
		return s.withRoom(connID, in.RoomCode, s.sendMessage(connID, in.Message))

	case EventDisconnect:
		return s.Disconnect(connID)

	default:
		log.Debug().Str("conn", connID).Str("event", req.Event).Msg("unknown event")
		return errorTo(connID, EventError, "Unknown event "+req.Event)
	}
}

// Disconnect removes connID from its room. Calling it again is a no-op.
func (s *EventRouter) Disconnect(connID string) []Outbound {
	code, dep := s.registry.Disconnect(connID)
	if !dep.Removed {
		return nil
	}
	log.Info().Str("room", code).Str("conn", connID).Bool("room_deleted", dep.RoomDeleted).Msg("player left")
	return s.departure(code, dep)
}

func (s *EventRouter) createRoom(connID string, in CreateRoomInput) []Outbound {
	name := strings.TrimSpace(in.PlayerName)
	if name == "" {
		return errorTo(connID, EventJoinError, errorMessage(ErrInvalidPayload))
	}

	out := s.leave(connID)
	room, err := s.registry.CreateRoom(connID, name, coinsOrDefault(in.Coins))
	if err != nil {
		log.Error().Err(err).Str("conn", connID).Msg("create room failed")
		return append(out, errorTo(connID, EventJoinError, errorMessage(err))...)
	}

	room.Lock()
	players := room.Players()
	room.Unlock()

	log.Info().Str("room", room.Code()).Str("conn", connID).Msg("room created")
	return append(out, Outbound{
		Event:   EventRoomCreated,
		Payload: RoomPlayers{RoomCode: room.Code(), Players: players},
		Targets: []string{connID},
	})
}

func (s *EventRouter) joinRoom(connID string, in JoinRoomInput) []Outbound {
	code := normalizeCode(in.RoomCode)
	name := strings.TrimSpace(in.PlayerName)
	if name == "" {
		return errorTo(connID, EventJoinError, errorMessage(ErrInvalidPayload))
	}

	var out []Outbound
	switch current := s.registry.RoomOf(connID); current {
	case "":
	case code:
		// Already seated here; answer without touching the record.
		return s.withRoom(connID, code, func(room *game.Room) []Outbound {
			return []Outbound{{
				Event:   EventRoomJoined,
				Payload: RoomPlayers{RoomCode: code, Players: room.Players()},
				Targets: []string{connID},
			}}
		})
	default:
		out = s.leave(connID)
	}

	room, err := s.registry.AddPlayer(code, connID, name, coinsOrDefault(in.Coins))
	if err != nil {
		log.Debug().Err(err).Str("room", code).Str("conn", connID).Msg("join rejected")
		return append(out, errorTo(connID, EventJoinError, errorMessage(err))...)
	}

	room.Lock()
	defer room.Unlock()

	me, ok := room.Player(connID)
	if !ok || room.Closed() {
		return append(out, errorTo(connID, EventJoinError, errorMessage(game.ErrRoomNotFound))...)
	}
	players := room.Players()
	out = append(out, Outbound{
		Event:   EventRoomJoined,
		Payload: RoomPlayers{RoomCode: code, Players: players},
		Targets: []string{connID},
	})
	if rest := except(room.PlayerIDs(), connID); len(rest) > 0 {
		out = append(out, Outbound{
			Event:   EventPlayerJoined,
			Payload: PlayerJoined{Player: me.View(), Players: players},
			Targets: rest,
		})
	}
	if room.Phase() == game.PhasePlaying {
		out = append(out, snapshots(EventGameStarted, room.State(), []string{connID})...)
	}

	log.Info().Str("room", code).Str("conn", connID).Msg("player joined")
	return out
}

func (s *EventRouter) playerReady(connID string) func(*game.Room) []Outbound {
	return func(room *game.Room) []Outbound {
		if err := room.SetReady(connID); err != nil {
			return errorTo(connID, EventError, errorMessage(err))
		}
		return []Outbound{{
			Event:   EventPlayerReadyUpdate,
			Payload: PlayerReadyUpdate{PlayerID: connID, Players: room.Players()},
			Targets: room.PlayerIDs(),
		}}
	}
}

func (s *EventRouter) startGame(connID string) func(*game.Room) []Outbound {
	return func(room *game.Room) []Outbound {
		err := room.StartBy(connID)
		if errors.Is(err, game.ErrUnauthorized) {
			log.Debug().Str("room", room.Code()).Str("conn", connID).Msg("start-game from non-host ignored")
			return nil
		}
		if err != nil {
			return errorTo(connID, EventError, errorMessage(err))
		}

		room.AttachTimer(game.StartRoundTimer(s.ctx, room, s.tickInterval, s.onTick))
		log.Info().Str("room", room.Code()).Int("players", room.PlayerCount()).Msg("game started")
		return snapshots(EventGameStarted, room.State(), room.PlayerIDs())
	}
}

func (s *EventRouter) relayDrawing(connID string, data json.RawMessage) func(*game.Room) []Outbound {
	return func(room *game.Room) []Outbound {
		rest := except(room.PlayerIDs(), connID)
		if len(rest) == 0 {
			return nil
		}
		return []Outbound{{
			Event:   EventDrawingUpdate,
			Payload: DrawingUpdate{DrawingData: data},
			Targets: rest,
		}}
	}
}

func (s *EventRouter) sendGuess(connID, guess string) func(*game.Room) []Outbound {
	return func(room *game.Room) []Outbound {
		player, _ := room.Player(connID)
		result := game.EvaluateGuess(room, connID, guess)

		points := result.Points
		msg := ChatMessage{
			ID:             uuid.NewString(),
			User:           player.Name,
			Text:           guess,
			IsCorrectGuess: result.Correct,
			Points:         &points,
			Timestamp:      s.now(),
		}
		ids := room.PlayerIDs()

		if !result.Correct {
			// The drawer or a player who already guessed typing the word must
			// not reveal it to everyone else.
			if room.Phase() == game.PhasePlaying && game.GuessMatches(guess, room.Word()) {
				return []Outbound{{Event: EventNewMessage, Payload: msg, Targets: []string{connID}}}
			}
			return []Outbound{{Event: EventNewMessage, Payload: msg, Targets: ids}}
		}

		msg.Text = player.Name + " guessed the word!"
		out := []Outbound{
			{Event: EventNewMessage, Payload: msg, Targets: ids},
			{
				Event: EventCorrectGuess,
				Payload: CorrectGuess{
					PlayerID:   connID,
					PlayerName: player.Name,
					Points:     result.Points,
					Players:    room.Players(),
				},
				Targets: ids,
			},
		}

		if room.AllGuessed() {
			outcome, err := room.AdvanceRound()
			if err == nil {
				out = append(out, s.roundEvents(room.Code(), outcome)...)
			}
		}
		return out
	}
}

func (s *EventRouter) sendMessage(connID, text string) func(*game.Room) []Outbound {
	return func(room *game.Room) []Outbound {
		player, _ := room.Player(connID)
		return []Outbound{{
			Event: EventNewMessage,
			Payload: ChatMessage{
				ID:        uuid.NewString(),
				User:      player.Name,
				Text:      text,
				Timestamp: s.now(),
			},
			Targets: room.PlayerIDs(),
		}}
	}
}

// onTick runs on the room timer goroutine after the room lock is released.
func (s *EventRouter) onTick(room *game.Room, tick game.Tick) {
	switch tick.Kind {
	case game.TickTime:
		s.dispatch([]Outbound{{
			Event:   EventTimerUpdate,
			Payload: TimerUpdate{TimeLeft: tick.TimeLeft},
			Targets: tick.PlayerIDs,
		}})
	case game.TickNextRound, game.TickFinished:
		log.Info().
			Str("room", room.Code()).
			Int("round", tick.Outcome.State.Round).
			Bool("finished", tick.Outcome.Finished).
			Msg("round time expired")
		s.dispatch(s.roundEvents(room.Code(), tick.Outcome))
	}
}

// withRoom runs fn under the room lock when connID is a member of the room.
func (s *EventRouter) withRoom(connID, code string, fn func(*game.Room) []Outbound) []Outbound {
	room, ok := s.registry.Get(normalizeCode(code))
	if !ok {
		return errorTo(connID, EventError, errorMessage(game.ErrRoomNotFound))
	}

	room.Lock()
	defer room.Unlock()

	if room.Closed() {
		return errorTo(connID, EventError, errorMessage(game.ErrRoomNotFound))
	}
	if _, ok := room.Player(connID); !ok {
		return errorTo(connID, EventError, errorMessage(game.ErrPlayerNotFound))
	}
	return fn(room)
}

func (s *EventRouter) leave(connID string) []Outbound {
	code, dep := s.registry.Disconnect(connID)
	return s.departure(code, dep)
}

func (s *EventRouter) departure(code string, dep game.Departure) []Outbound {
	if !dep.Removed || dep.RoomDeleted {
		return nil
	}

	out := []Outbound{{
		Event:   EventPlayerLeft,
		Payload: PlayerLeft{PlayerID: dep.PlayerID, HostID: dep.HostID, Players: dep.Players},
		Targets: viewIDs(dep.Players),
	}}
	if dep.Outcome != nil {
		out = append(out, s.roundEvents(code, *dep.Outcome)...)
	}
	return out
}

func (s *EventRouter) roundEvents(code string, outcome game.RoundOutcome) []Outbound {
	targets := viewIDs(outcome.State.Players)
	if outcome.Finished {
		if s.archiver != nil {
			s.archiver.Archive(code, outcome.State.TotalRounds, slices.Clone(outcome.Results))
		}
		return []Outbound{{
			Event:   EventGameFinished,
			Payload: GameFinished{Results: outcome.Results},
			Targets: targets,
		}}
	}
	return snapshots(EventNextRound, outcome.State, targets)
}

// snapshots builds one copy of the state for the drawer, carrying the word, and
// one masked copy for everyone else.
func snapshots(event string, state game.RoundState, targets []string) []Outbound {
	var drawer, rest []string
	for _, id := range targets {
		if id == state.DrawerID {
			drawer = append(drawer, id)
		} else {
			rest = append(rest, id)
		}
	}

	var out []Outbound
	if len(drawer) > 0 {
		out = append(out, Outbound{Event: event, Payload: snapshotFor(state, true), Targets: drawer})
	}
	if len(rest) > 0 {
		out = append(out, Outbound{Event: event, Payload: snapshotFor(state, false), Targets: rest})
	}
	return out
}

func snapshotFor(state game.RoundState, revealWord bool) GameSnapshot {
	snap := GameSnapshot{
		GameState:    state.Phase,
		CurrentRound: state.Round,
		TotalRounds:  state.TotalRounds,
		WordLength:   len([]rune(state.Word)),
		TimeLeft:     state.TimeLeft,
		HostID:       state.HostID,
		Players:      state.Players,
	}
	if state.DrawerID != "" {
		drawer := state.DrawerID
		snap.CurrentDrawer = &drawer
	}
	if revealWord && state.Word != "" {
		word := state.Word
		snap.CurrentWord = &word
	}
	return snap
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func rejected(connID, event, replyEvent string, err error) []Outbound {
	log.Debug().Err(err).Str("conn", connID).Str("event", event).Msg("payload rejected")
	return errorTo(connID, replyEvent, errorMessage(err))
}

func errorTo(connID, event, message string) []Outbound {
	return []Outbound{{
		Event:   event,
		Payload: ErrorPayload{Message: message},
		Targets: []string{connID},
	}}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func coinsOrDefault(coins *int) int {
	if coins == nil {
		return game.DefaultStartingCoins
	}
	return *coins
}

func except(ids []string, exclude string) []string {
	rest := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			rest = append(rest, id)
		}
	}
	return rest
}

func viewIDs(players []game.PlayerView) []string {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	return ids
}
