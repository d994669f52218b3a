package game

import (
	"context"
	"time"
)

// TickKind says what a timer tick did to its room.
type TickKind int

const (
	// TickTime is a plain countdown update.
	TickTime TickKind = iota
	// TickNextRound means the round expired and the next one began.
	TickNextRound
	// TickFinished means the last round expired and the game is over.
	TickFinished
	// TickStopped means the room is gone or no longer playing.
	TickStopped
)

// Tick is the result of one timer step, captured under the room lock.
type Tick struct {
	Kind      TickKind
	TimeLeft  int
	Outcome   RoundOutcome
	PlayerIDs []string
}

// TickFunc receives every tick after the room lock is released.
type TickFunc func(room *Room, tick Tick)

// RoundTimer drives one room's countdown while it is playing.
type RoundTimer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartRoundTimer starts ticking room every interval until the game ends, the
// room is closed, or the timer is stopped.
func StartRoundTimer(parent context.Context, room *Room, interval time.Duration, onTick TickFunc) *RoundTimer {
	ctx, cancel := context.WithCancel(parent)
	t := &RoundTimer{cancel: cancel, done: make(chan struct{})}
	go t.run(ctx, room, interval, onTick)
	return t
}

// Stop cancels the timer without waiting for it, so it is safe to call while
// holding the room lock.
func (t *RoundTimer) Stop() {
	t.cancel()
}

// Done is closed once the timer goroutine has exited.
func (t *RoundTimer) Done() <-chan struct{} {
	return t.done
}

func (t *RoundTimer) run(ctx context.Context, room *Room, interval time.Duration, onTick TickFunc) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		room.Lock()
		if ctx.Err() != nil {
			room.Unlock()
			return
		}
		tick := room.tick()
		room.Unlock()

		if tick.Kind == TickStopped {
			return
		}
		if onTick != nil {
			onTick(room, tick)
		}
		if tick.Kind == TickFinished {
			return
		}
	}
}

func (r *Room) tick() Tick {
	if r.closed || r.phase != PhasePlaying {
		return Tick{Kind: TickStopped}
	}

	ids := r.PlayerIDs()
	if left := r.TimeLeft(); left > 0 {
		return Tick{Kind: TickTime, TimeLeft: left, PlayerIDs: ids}
	}

	outcome := r.advanceTo(r.successorOf(r.drawerID))
	if outcome.Finished {
		return Tick{Kind: TickFinished, Outcome: outcome, PlayerIDs: ids}
	}
	return Tick{Kind: TickNextRound, TimeLeft: outcome.State.TimeLeft, Outcome: outcome, PlayerIDs: ids}
}
