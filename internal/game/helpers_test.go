package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedWord string

func (w fixedWord) Random() string { return string(w) }

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
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

func testOptions(clock *fakeClock) RoomOptions {
	return RoomOptions{
		TotalRounds:   DefaultTotalRounds,
		RoundDuration: DefaultRoundDuration,
		Words:         fixedWord("OCEAN"),
		Clock:         clock.Now,
	}
}

// seatedRoom returns a waiting room holding the given player ids, the first one
// as host.
func seatedRoom(t *testing.T, clock *fakeClock, ids ...string) *Room {
	t.Helper()
	room := NewRoom("ABC123", testOptions(clock))
	for _, id := range ids {
		_, err := room.addPlayer(id, "player-"+id, DefaultStartingCoins)
		require.NoError(t, err)
	}
	if len(ids) > 0 {
		room.hostID = ids[0]
	}
	return room
}
