// Package bot contains the Telegram conversation flow: receiving photos,
// acknowledging them, running the analysis and delivering the rendered reply.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vs-kurkin/img2data/internal/markup"
	"github.com/vs-kurkin/img2data/internal/models"
)

// User-facing texts. Raw strings here; the handler escapes them exactly once
// before sending with MarkdownV2.
const (
	greetingText      = "Привет! Отправь мне картинку с GPS-координатами, адресом или промокодом, и я её проанализирую."
	sendImageText     = "Пожалуйста, отправьте изображение."
	lookingText       = "👀 Смотрю..."
	fallbackText      = "Не удалось распознать данные."
	internalErrorText = "Произошла внутренняя ошибка. Попробуйте позже."
)

// Platform is the chat-platform surface the handler needs. The Telegram
// implementation lives in telegram.go; tests supply fakes.
type Platform interface {
	// SendReply sends a MarkdownV2 message replying to another message and
	// returns the new message id.
	SendReply(chatID int64, replyToMessageID int, text string) (int, error)
	// SendPlain sends a plain-text message with no formatting.
	SendPlain(chatID int64, text string) error
	// EditMessage replaces the text (and optional inline keyboard) of a
	// previously sent message, keeping its identity.
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	// DownloadPhoto fetches the bytes of an uploaded photo.
	DownloadPhoto(ctx context.Context, fileID string) ([]byte, error)
}

// Analyzer produces a structured result for one image. Implementations never
// return an error; failures arrive as a result with the Error field set.
type Analyzer interface {
	Analyze(ctx context.Context, imageBytes []byte) models.AnalysisResult
	Model() string
}

// EventPublisher publishes per-turn analysis events.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, event models.AnalysisEvent) error
}

// PhotoArchiver retains inbound photos for operator diagnostics.
type PhotoArchiver interface {
	ArchivePhoto(ctx context.Context, turnID string, data []byte, contentType string) (string, error)
}

// Handler drives one conversation turn per inbound message. Publisher and
// archiver are optional; a nil value disables the feature.
type Handler struct {
	platform  Platform
	analyzer  Analyzer
	publisher EventPublisher
	archiver  PhotoArchiver
}

// NewHandler creates a new conversation handler.
func NewHandler(platform Platform, analyzer Analyzer, publisher EventPublisher, archiver PhotoArchiver) *Handler {
	return &Handler{
		platform:  platform,
		analyzer:  analyzer,
		publisher: publisher,
		archiver:  archiver,
	}
}

// HandleStart replies to the /start command with a greeting.
func (h *Handler) HandleStart(chatID int64) {
	if err := h.platform.SendPlain(chatID, greetingText); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send greeting")
	}
}

// HandleOther prompts the user to send an image.
func (h *Handler) HandleOther(chatID int64) {
	if err := h.platform.SendPlain(chatID, sendImageText); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send prompt")
	}
}

// HandlePhoto processes one inbound photo: acknowledge, analyze, render,
// deliver. The provisional acknowledgment is edited in place with the final
// content; no second message is ever created. Any failure after the
// acknowledgment results in exactly one corrective edit with a generic
// apology; if that edit also fails it is logged and dropped.
func (h *Handler) HandlePhoto(ctx context.Context, chatID int64, messageID int, fileID string) {
	turnID := uuid.New().String()
	logger := log.With().
		Str("turn_id", turnID).
		Int64("chat_id", chatID).
		Logger()
	start := time.Now()

	provisionalID, err := h.platform.SendReply(chatID, messageID, markup.Escape(lookingText))
	if err != nil {
		// Without a message identity there is nothing left to mutate.
		logger.Error().Err(err).Msg("Failed to send provisional reply")
		return
	}

	if err := h.processPhoto(ctx, logger, turnID, chatID, provisionalID, fileID, start); err != nil {
		logger.Error().Err(err).Msg("Turn failed after acknowledgment")
		if editErr := h.platform.EditMessage(chatID, provisionalID, markup.Escape(internalErrorText), nil); editErr != nil {
			logger.Error().Err(editErr).Msg("Failed to deliver error notice")
		}
	}
}

// processPhoto runs the download → analyze → render → deliver sequence.
// Analysis itself cannot fail (the Analyzer contract absorbs its failures
// into the result); only the platform calls around it can.
func (h *Handler) processPhoto(ctx context.Context, logger zerolog.Logger, turnID string, chatID int64, provisionalID int, fileID string, start time.Time) error {
	imageBytes, err := h.platform.DownloadPhoto(ctx, fileID)
	if err != nil {
		return fmt.Errorf("download photo: %w", err)
	}
	logger.Debug().Int("size", len(imageBytes)).Msg("Photo downloaded")

	if h.archiver != nil {
		if key, err := h.archiver.ArchivePhoto(ctx, turnID, imageBytes, "image/jpeg"); err != nil {
			logger.Warn().Err(err).Msg("Failed to archive photo")
		} else {
			logger.Debug().Str("key", key).Msg("Photo archived")
		}
	}

	result := h.analyzer.Analyze(ctx, imageBytes)

	text := markup.Render(result)
	if text == "" {
		text = markup.Escape(fallbackText)
	}

	var keyboard *tgbotapi.InlineKeyboardMarkup
	if result.HasGPS() {
		keyboard = mapKeyboard(*result.GPS.Latitude, *result.GPS.Longitude)
	}

	if err := h.platform.EditMessage(chatID, provisionalID, text, keyboard); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}

	logger.Info().
		Dur("duration", time.Since(start)).
		Bool("has_gps", result.HasGPS()).
		Msg("Reply delivered")

	h.publishEvent(ctx, logger, turnID, chatID, result, time.Since(start))
	return nil
}

// publishEvent emits the analysis.completed event. Publish failures never
// affect the already-delivered reply.
func (h *Handler) publishEvent(ctx context.Context, logger zerolog.Logger, turnID string, chatID int64, result models.AnalysisResult, elapsed time.Duration) {
	if h.publisher == nil {
		return
	}

	outcome := models.OutcomeOK
	if result.Error != "" {
		outcome = models.OutcomeError
	}

	event := models.AnalysisEvent{
		TurnID:     turnID,
		ChatID:     chatID,
		Outcome:    outcome,
		Model:      h.analyzer.Model(),
		HasGPS:     result.HasGPS(),
		HasPromo:   result.Promo != "",
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  time.Now(),
	}

	if err := h.publisher.PublishAnalysisCompleted(ctx, event); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish analysis event")
	}
}
