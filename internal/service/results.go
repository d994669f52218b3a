package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"doodle_web/internal/game"
	"doodle_web/internal/models"
	"doodle_web/internal/repository"
)

const archiveTimeout = 5 * time.Second

// ResultService stores finished games and serves them back.
type ResultService struct {
	repo repository.ResultRepository
	now  game.Clock
	wg   sync.WaitGroup
}

func NewResultService(repo repository.ResultRepository) *ResultService {
	return &ResultService{repo: repo, now: time.Now}
}

// Archive writes the results in the background so callers holding a room lock
// never wait on the database.
func (s *ResultService) Archive(roomCode string, totalRounds int, results []game.Result) {
	record := &models.GameResult{
		RoomCode:   roomCode,
		Rounds:     totalRounds,
		FinishedAt: s.now(),
		Entries:    make([]models.GameResultEntry, 0, len(results)),
	}
	for i, r := range results {
		record.Entries = append(record.Entries, models.GameResultEntry{
			Rank:           i + 1,
			PlayerName:     r.Name,
			Score:          r.FinalScore,
			Coins:          r.CoinsEarned,
			CorrectGuesses: r.CorrectGuesses,
		})
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := s.repo.Create(ctx, record); err != nil {
			log.Error().Err(err).Str("room", roomCode).Msg("archive game result")
			return
		}
		log.Debug().Str("room", roomCode).Uint("id", record.ID).Msg("game result archived")
	}()
}

// Recent lists the latest finished games, newest first.
func (s *ResultService) Recent(ctx context.Context, limit int) ([]models.GameResult, error) {
	return s.repo.FindRecent(ctx, limit)
}

// ForRoom lists finished games played under a room code.
func (s *ResultService) ForRoom(ctx context.Context, roomCode string) ([]models.GameResult, error) {
	return s.repo.FindByRoomCode(ctx, normalizeCode(roomCode))
}

// Wait blocks until pending archive writes complete.
func (s *ResultService) Wait() {
	s.wg.Wait()
}
