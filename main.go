package main

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"doodle_web/internal/api"
	"doodle_web/internal/game"
	"doodle_web/internal/middleware"
	"doodle_web/internal/models"
	"doodle_web/internal/repository"
	"doodle_web/internal/service"
	"doodle_web/internal/storage"
	"doodle_web/pkg/config"
	"doodle_web/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	// The result archive is optional; games run fully in memory without it.
	var repos *repository.Repositories
	if cfg.DB.Enabled {
		db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize database")
		}
		defer db.Close()

		if err := db.AutoMigrate(&models.GameResult{}, &models.GameResultEntry{}); err != nil {
			log.Fatal().Err(err).Msg("failed to auto migrate database")
		}
		repos = repository.NewRepositories(db)
	}

	words, err := game.LoadWordBank(cfg.Game.WordsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Game.WordsFile).Msg("failed to load word list")
	}

	services := service.NewServices(cfg.Game, words, repos)
	defer services.Shutdown()

	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(cfg.Server.AllowedOrigins))
	api.SetupRoutes(r, services, cfg.Server.AllowedOrigins)

	log.Info().
		Str("address", cfg.Server.Address).
		Int("words", words.Len()).
		Bool("archive", repos != nil).
		Msg("server starting")
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
