package game

import (
	crand "crypto/rand"
	"errors"
	"math/big"
	"math/rand"
	"sync"
)

// maxCodeAttempts bounds room code regeneration on collision.
const maxCodeAttempts = 64

// GenerateRoomCode creates a random room code
func GenerateRoomCode() string {
	code := make([]byte, RoomCodeLength)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(RoomCodeChars))))
		if err != nil {
			code[i] = RoomCodeChars[rand.Intn(len(RoomCodeChars))]
			continue
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code)
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithCodeGenerator replaces the room code generator.
func WithCodeGenerator(fn func() string) RegistryOption {
	return func(g *Registry) { g.newCode = fn }
}

// Registry owns every live room and the connection → room index.
// Lock order is always registry before room.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	conns   map[string]string
	opts    RoomOptions
	newCode func() string
}

// NewRegistry creates an empty registry whose rooms share opts.
func NewRegistry(opts RoomOptions, options ...RegistryOption) *Registry {
	g := &Registry{
		rooms:   make(map[string]*Room),
		conns:   make(map[string]string),
		opts:    opts.withDefaults(),
		newCode: GenerateRoomCode,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// CreateRoom registers a new room with the host already seated as its first player.
func (g *Registry) CreateRoom(hostID, hostName string, coins int) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code, err := g.uniqueCode()
	if err != nil {
		return nil, err
	}

	room := NewRoom(code, g.opts)
	room.Lock()
	defer room.Unlock()
	if _, err := room.addPlayer(hostID, hostName, coins); err != nil {
		return nil, err
	}
	room.hostID = hostID

	g.rooms[code] = room
	g.conns[hostID] = code
	return room, nil
}

func (g *Registry) uniqueCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := g.newCode()
		if _, exists := g.rooms[code]; !exists {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a free room code")
}

// AddPlayer seats a player in the room with the given code.
func (g *Registry) AddPlayer(code, playerID, name string, coins int) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}

	room.Lock()
	_, err := room.addPlayer(playerID, name, coins)
	room.Unlock()
	if err != nil {
		return nil, err
	}

	g.conns[playerID] = code
	return room, nil
}

// RemovePlayer takes a player out of a room, deleting the room once it is
// empty. Removing an absent player or from an absent room is a no-op.
func (g *Registry) RemovePlayer(code, playerID string) Departure {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conns[playerID] == code {
		delete(g.conns, playerID)
	}

	room, ok := g.rooms[code]
	if !ok {
		return Departure{}
	}

	room.Lock()
	defer room.Unlock()

	dep := room.removePlayer(playerID)
	if dep.Removed && room.PlayerCount() == 0 {
		room.close()
		delete(g.rooms, code)
		dep.RoomDeleted = true
	}
	return dep
}

// Disconnect removes a connection from whatever room it is in. Safe to call
// more than once and concurrently with RemovePlayer.
func (g *Registry) Disconnect(connID string) (string, Departure) {
	code := g.RoomOf(connID)
	if code == "" {
		return "", Departure{}
	}
	return code, g.RemovePlayer(code, connID)
}

// Get looks up a live room.
func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[code]
	return room, ok
}

// RoomOf returns the code of the room a connection sits in, or "".
func (g *Registry) RoomOf(connID string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.conns[connID]
}

// Count returns the number of live rooms.
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Close stops every room timer and forgets all rooms.
func (g *Registry) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for code, room := range g.rooms {
		room.Lock()
		room.close()
		room.Unlock()
		delete(g.rooms, code)
	}
	clear(g.conns)
}
