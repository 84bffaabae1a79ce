package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moccicode/mbc-fridger-chef/internal/api"
	"github.com/moccicode/mbc-fridger-chef/internal/config"
	"github.com/moccicode/mbc-fridger-chef/internal/kitchen"
	"github.com/moccicode/mbc-fridger-chef/internal/locale"
	"github.com/moccicode/mbc-fridger-chef/internal/logger"
	"github.com/moccicode/mbc-fridger-chef/internal/platform/gemini"
	"github.com/moccicode/mbc-fridger-chef/internal/platform/localllm"
	"github.com/moccicode/mbc-fridger-chef/internal/recipe"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// run wires the application and serves until the listener fails. Errors are
// returned rather than exiting so deferred cleanup runs.
func run() error {
	cfg, err := config.Load("config.json")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	zlog := logger.InitializeLogger(cfg.Env)
	defer logger.Close()

	loc, err := locale.Get(cfg.Language)
	if err != nil {
		return fmt.Errorf("invalid language: %w", err)
	}

	var generator kitchen.Generator
	switch cfg.Generator {
	case config.GeneratorLocal:
		generator = localllm.NewClient(cfg.LocalLLMURL, cfg.LocalLLMModel, loc, zlog)
	default:
		if cfg.GeminiAPIKey == "" {
			zlog.Warn("GEMINI_API_KEY is not set; generation requests will fail")
		}
		geminiClient := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, loc, zlog)
		defer geminiClient.Close()
		generator = geminiClient
	}

	opts := []kitchen.Option{
		kitchen.WithLocale(loc),
		kitchen.WithLogger(zlog),
		kitchen.WithTimeout(cfg.GenerationTimeout),
	}

	var attempts api.AttemptLister
	if cfg.DatabaseURL != "" {
		dbStore, err := recipe.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("error creating postgres store: %w", err)
		}
		defer dbStore.Close()
		opts = append(opts, kitchen.WithAttemptStore(dbStore))
		attempts = dbStore
	}

	controller := kitchen.NewController(generator, opts...)
	handler := api.NewHandler(controller, attempts, loc, zlog)

	r := setupRouter(handler, cfg.AllowedOrigins)
	zlog.Info("starting server", zap.String("port", cfg.Port), zap.String("generator", cfg.Generator), zap.String("language", loc.Code))
	return r.Run(":" + cfg.Port)
}

func setupRouter(handler *api.Handler, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.Register(r)
	return r
}
