package service

import (
	"context"

	"doodle_web/internal/game"
	"doodle_web/internal/repository"
	"doodle_web/pkg/config"
)

type Services struct {
	Registry  *game.Registry
	Router    *EventRouter
	WebSocket *WebSocketService
	Results   *ResultService // nil when the archive is disabled

	cancel context.CancelFunc
}

// NewServices wires the registry, router and websocket hub. repos may be nil,
// which disables the finished-game archive.
func NewServices(cfg config.GameConfig, words game.WordSource, repos *repository.Repositories) *Services {
	ctx, cancel := context.WithCancel(context.Background())

	registry := game.NewRegistry(game.RoomOptions{
		TotalRounds:   cfg.TotalRounds,
		RoundDuration: cfg.RoundDuration(),
		MaxPlayers:    cfg.MaxPlayers,
		Words:         words,
	})

	opts := RouterOptions{}
	var results *ResultService
	if repos != nil && repos.Result != nil {
		results = NewResultService(repos.Result)
		opts.Archiver = results
	}

	router := NewEventRouter(ctx, registry, opts)
	return &Services{
		Registry:  registry,
		Router:    router,
		WebSocket: NewWebSocketService(router, cfg.EventsPerSecond, cfg.EventBurst),
		Results:   results,
		cancel:    cancel,
	}
}

// Shutdown stops every room timer and flushes pending archive writes.
func (s *Services) Shutdown() {
	s.cancel()
	s.Registry.Close()
	if s.Results != nil {
		s.Results.Wait()
	}
}
