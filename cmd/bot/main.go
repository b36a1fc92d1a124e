package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vs-kurkin/img2data/internal/bot"
	"github.com/vs-kurkin/img2data/internal/handlers"
	"github.com/vs-kurkin/img2data/internal/services"
	"github.com/vs-kurkin/img2data/internal/storage"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	config := loadConfig()

	if level, err := zerolog.ParseLevel(config.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("model", config.GeminiModel).
		Msg("Starting img2data bot")

	if config.TelegramToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is required")
	}
	if config.GeminiAPIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is required")
	}

	log.Info().Msg("Initializing Gemini vision service...")
	visionService := services.NewVisionService(
		config.GeminiAPIKey,
		config.GeminiBaseURL,
		config.GeminiModel,
	)
	log.Info().Msg("Gemini vision service initialized")

	// Optional: photo archive for operator diagnostics
	var photoArchive *storage.PhotoArchive
	if config.MinIOEndpoint != "" {
		log.Info().Msg("Initializing photo archive...")
		archive, err := storage.NewPhotoArchive(
			config.MinIOEndpoint,
			config.MinIOAccessKey,
			config.MinIOSecretKey,
			config.MinIOBucket,
			config.MinIOUseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize photo archive")
		}
		photoArchive = archive
		log.Info().Msg("Photo archive initialized")
	} else {
		log.Info().Msg("Photo archive disabled (MINIO_ENDPOINT not set)")
	}

	// Optional: analysis event publisher
	var publisher *services.AnalysisPublisher
	if config.RabbitMQURL != "" {
		log.Info().Msg("Initializing RabbitMQ publisher...")
		p, err := services.NewAnalysisPublisher(config.RabbitMQURL, config.RabbitMQExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize RabbitMQ publisher")
		}
		defer p.Close()
		publisher = p
		log.Info().Msg("RabbitMQ publisher initialized")
	} else {
		log.Info().Msg("Analysis events disabled (RABBITMQ_URL not set)")
	}

	log.Info().Msg("Connecting to Telegram...")
	api, err := tgbotapi.NewBotAPI(config.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	log.Info().Str("username", api.Self.UserName).Msg("Telegram connection established")

	platform := bot.NewTelegramPlatform(api)

	// nil interface values must stay nil, not wrap nil pointers
	var publisherDep bot.EventPublisher
	if publisher != nil {
		publisherDep = publisher
	}
	var archiverDep bot.PhotoArchiver
	if photoArchive != nil {
		archiverDep = photoArchive
	}

	handler := bot.NewHandler(platform, visionService, publisherDep, archiverDep)
	b := bot.New(api, handler)

	// Ops HTTP server
	var archiveCheck handlers.HealthChecker
	if photoArchive != nil {
		archiveCheck = photoArchive
	}
	var publisherCheck handlers.ConnChecker
	if publisher != nil {
		publisherCheck = publisher
	}
	opsHandler := handlers.NewHandler(visionService, publisherCheck, archiveCheck)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
		Handler:      setupRouter(opsHandler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", srv.Addr).Msg("Ops server starting...")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Ops server failed to start")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	botDone := make(chan error, 1)
	go func() {
		botDone <- b.Run(ctx)
	}()

	log.Info().Msg("Bot is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutting down...")
	case err := <-botDone:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Bot stopped unexpectedly")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ops server forced to shutdown")
	}

	log.Info().Msg("Bot exited gracefully")
}

type Config struct {
	Host             string
	Port             string
	LogLevel         string
	TelegramToken    string
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiModel      string
	RabbitMQURL      string
	RabbitMQExchange string
	MinIOEndpoint    string
	MinIOAccessKey   string
	MinIOSecretKey   string
	MinIOBucket      string
	MinIOUseSSL      bool
}

// loadConfig loads configuration from environment variables
func loadConfig() *Config {
	return &Config{
		Host:             getEnv("OPS_HOST", "0.0.0.0"),
		Port:             getEnv("OPS_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		TelegramToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "img2data.events"),
		MinIOEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:      getEnv("MINIO_BUCKET_NAME", "img2data-photos"),
		MinIOUseSSL:      getEnv("MINIO_USE_SSL", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupRouter configures the ops routes and middleware
func setupRouter(h *handlers.Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)

	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	return r
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration_ms", time.Since(start)).
			Msg("HTTP request")
	})
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
