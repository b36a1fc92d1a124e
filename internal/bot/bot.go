package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Bot runs the long-polling update loop and routes updates to the handler.
// Each update is processed in its own goroutine, so images from different
// chats are analyzed concurrently; within one turn all steps are sequential.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
}

// New creates a bot around an authorized API client and a handler.
func New(api *tgbotapi.BotAPI, handler *Handler) *Bot {
	return &Bot{
		api:     api,
		handler: handler,
	}
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := b.api.GetUpdatesChan(updateConfig)

	log.Info().
		Str("username", b.api.Self.UserName).
		Msg("Bot started, polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.dispatch(ctx, update)
		}
	}
}

// dispatch routes a single update: the /start command, a photo message, or
// anything else (which gets a plain prompt to send an image).
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	switch {
	case msg.IsCommand():
		if msg.Command() == "start" {
			b.handler.HandleStart(msg.Chat.ID)
			return
		}
		b.handler.HandleOther(msg.Chat.ID)
	case len(msg.Photo) > 0:
		// Telegram orders photo sizes ascending; the last one is the original.
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		b.handler.HandlePhoto(ctx, msg.Chat.ID, msg.MessageID, fileID)
	default:
		b.handler.HandleOther(msg.Chat.ID)
	}
}
