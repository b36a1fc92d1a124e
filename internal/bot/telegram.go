package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramPlatform implements Platform over the Bot API.
type TelegramPlatform struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
}

// NewTelegramPlatform wraps an authorized Bot API client.
func NewTelegramPlatform(api *tgbotapi.BotAPI) *TelegramPlatform {
	return &TelegramPlatform{
		api: api,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendReply sends a MarkdownV2 message replying to replyToMessageID.
func (p *TelegramPlatform) SendReply(chatID int64, replyToMessageID int, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyToMessageID
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	sent, err := p.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sent.MessageID, nil
}

// SendPlain sends an unformatted message.
func (p *TelegramPlatform) SendPlain(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := p.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// EditMessage rewrites a previously sent message with MarkdownV2 text and an
// optional inline keyboard.
func (p *TelegramPlatform) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	edit.ReplyMarkup = keyboard

	if _, err := p.api.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// DownloadPhoto resolves a file id to a download URL and fetches the bytes.
func (p *TelegramPlatform) DownloadPhoto(ctx context.Context, fileID string) ([]byte, error) {
	file, err := p.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(p.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
