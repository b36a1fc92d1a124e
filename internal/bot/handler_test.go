package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vs-kurkin/img2data/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

type sentMessage struct {
	chatID           int64
	replyToMessageID int
	text             string
}

type editedMessage struct {
	chatID    int64
	messageID int
	text      string
	keyboard  *tgbotapi.InlineKeyboardMarkup
}

type fakePlatform struct {
	replies     []sentMessage
	plain       []sentMessage
	edits       []editedMessage
	downloads   []string
	replyErr    error
	editErrs    []error // consumed in order; nil entry means success
	downloadErr error
	nextMsgID   int
}

func (f *fakePlatform) SendReply(chatID int64, replyToMessageID int, text string) (int, error) {
	if f.replyErr != nil {
		return 0, f.replyErr
	}
	f.replies = append(f.replies, sentMessage{chatID, replyToMessageID, text})
	f.nextMsgID++
	return f.nextMsgID, nil
}

func (f *fakePlatform) SendPlain(chatID int64, text string) error {
	f.plain = append(f.plain, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakePlatform) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	var err error
	if len(f.editErrs) > 0 {
		err, f.editErrs = f.editErrs[0], f.editErrs[1:]
	}
	if err != nil {
		return err
	}
	f.edits = append(f.edits, editedMessage{chatID, messageID, text, keyboard})
	return nil
}

func (f *fakePlatform) DownloadPhoto(_ context.Context, fileID string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	f.downloads = append(f.downloads, fileID)
	return []byte("image-bytes"), nil
}

type fakeAnalyzer struct {
	result models.AnalysisResult
	calls  int
}

func (f *fakeAnalyzer) Analyze(context.Context, []byte) models.AnalysisResult {
	f.calls++
	return f.result
}

func (f *fakeAnalyzer) Model() string { return "test-model" }

type fakePublisher struct {
	events []models.AnalysisEvent
	err    error
}

func (f *fakePublisher) PublishAnalysisCompleted(_ context.Context, event models.AnalysisEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeArchiver struct {
	keys []string
	err  error
}

func (f *fakeArchiver) ArchivePhoto(_ context.Context, turnID string, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "photos/" + turnID
	f.keys = append(f.keys, key)
	return key, nil
}

func TestHandlePhotoSuccessWithGPS(t *testing.T) {
	platform := &fakePlatform{}
	analyzer := &fakeAnalyzer{result: models.AnalysisResult{
		Message: "ok",
		GPS:     &models.GPS{Latitude: floatPtr(55.75), Longitude: floatPtr(37.61)},
	}}
	handler := NewHandler(platform, analyzer, nil, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	// One provisional reply to the original message, then one in-place edit.
	require.Len(t, platform.replies, 1)
	assert.Equal(t, int64(42), platform.replies[0].chatID)
	assert.Equal(t, 7, platform.replies[0].replyToMessageID)
	assert.Contains(t, platform.replies[0].text, "Смотрю")

	require.Len(t, platform.edits, 1)
	edit := platform.edits[0]
	assert.Equal(t, platform.nextMsgID, edit.messageID, "the provisional message must be edited, not a new one sent")
	assert.Contains(t, edit.text, "🔮 ok")
	assert.Contains(t, edit.text, "55.75 37.61")

	require.NotNil(t, edit.keyboard)
	require.Len(t, edit.keyboard.InlineKeyboard, 1)
	row := edit.keyboard.InlineKeyboard[0]
	require.Len(t, row, 3)
	assert.Contains(t, *row[0].URL, "yandex.ru/maps/?rtext=~55.75,37.61")
	assert.Contains(t, *row[1].URL, "2gis.ru/geo/37.61,55.75")
	assert.Contains(t, *row[2].URL, "google.com/maps?q=55.75,37.61")

	assert.Equal(t, 1, analyzer.calls)
}

func TestHandlePhotoWithoutGPSHasNoKeyboard(t *testing.T) {
	platform := &fakePlatform{}
	analyzer := &fakeAnalyzer{result: models.AnalysisResult{Message: "plain", Promo: "PROMO"}}
	handler := NewHandler(platform, analyzer, nil, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	require.Len(t, platform.edits, 1)
	assert.Nil(t, platform.edits[0].keyboard)
	assert.Contains(t, platform.edits[0].text, "💰 `PROMO`")
}

func TestHandlePhotoModelFailureDeliversErrorText(t *testing.T) {
	platform := &fakePlatform{}
	analyzer := &fakeAnalyzer{result: models.ErrorResult("Не удалось обработать изображение. Ошибка: boom")}
	handler := NewHandler(platform, analyzer, nil, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	require.Len(t, platform.edits, 1)
	assert.NotEmpty(t, platform.edits[0].text)
	assert.Contains(t, platform.edits[0].text, "❗️")
	assert.Nil(t, platform.edits[0].keyboard)
}

func TestHandlePhotoEmptyResultFallsBack(t *testing.T) {
	platform := &fakePlatform{}
	analyzer := &fakeAnalyzer{result: models.AnalysisResult{}}
	handler := NewHandler(platform, analyzer, nil, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	require.Len(t, platform.edits, 1)
	assert.Contains(t, platform.edits[0].text, "Не удалось распознать данные")
}

func TestHandlePhotoDownloadFailure(t *testing.T) {
	platform := &fakePlatform{downloadErr: errors.New("telegram down")}
	analyzer := &fakeAnalyzer{}
	handler := NewHandler(platform, analyzer, nil, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	assert.Zero(t, analyzer.calls, "analysis must not run without image bytes")
	require.Len(t, platform.edits, 1)
	assert.Contains(t, platform.edits[0].text, "внутренняя ошибка")
	assert.Nil(t, platform.edits[0].keyboard)
}

func TestHandlePhotoAckFailureStopsTurn(t *testing.T) {
	platform := &fakePlatform{replyErr: errors.New("cannot send")}
	analyzer := &fakeAnalyzer{}
	handler := NewHandler(platform, analyzer, nil, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	assert.Zero(t, analyzer.calls)
	assert.Empty(t, platform.edits)
	assert.Empty(t, platform.downloads)
}

func TestHandlePhotoEditFailureTriggersCorrectiveEdit(t *testing.T) {
	platform := &fakePlatform{editErrs: []error{errors.New("edit rejected"), nil}}
	analyzer := &fakeAnalyzer{result: models.AnalysisResult{Message: "ok"}}
	handler := NewHandler(platform, analyzer, nil, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	require.Len(t, platform.edits, 1, "exactly one corrective edit after the failed delivery")
	assert.Contains(t, platform.edits[0].text, "внутренняя ошибка")
}

func TestHandlePhotoBothEditsFailingDoesNotPanic(t *testing.T) {
	platform := &fakePlatform{editErrs: []error{errors.New("edit rejected"), errors.New("still rejected")}}
	analyzer := &fakeAnalyzer{result: models.AnalysisResult{Message: "ok"}}
	handler := NewHandler(platform, analyzer, nil, nil)

	assert.NotPanics(t, func() {
		handler.HandlePhoto(context.Background(), 42, 7, "file-1")
	})
	assert.Empty(t, platform.edits)
}

func TestHandlePhotoPublishesEvent(t *testing.T) {
	platform := &fakePlatform{}
	publisher := &fakePublisher{}
	analyzer := &fakeAnalyzer{result: models.AnalysisResult{
		Message: "ok",
		GPS:     &models.GPS{Latitude: floatPtr(1), Longitude: floatPtr(2)},
	}}
	handler := NewHandler(platform, analyzer, publisher, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.NotEmpty(t, event.TurnID)
	assert.Equal(t, int64(42), event.ChatID)
	assert.Equal(t, models.OutcomeOK, event.Outcome)
	assert.Equal(t, "test-model", event.Model)
	assert.True(t, event.HasGPS)
	assert.False(t, event.HasPromo)
}

func TestHandlePhotoPublishFailureDoesNotAffectDelivery(t *testing.T) {
	platform := &fakePlatform{}
	publisher := &fakePublisher{err: errors.New("broker down")}
	analyzer := &fakeAnalyzer{result: models.AnalysisResult{Message: "ok"}}
	handler := NewHandler(platform, analyzer, publisher, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	require.Len(t, platform.edits, 1)
	assert.Contains(t, platform.edits[0].text, "🔮 ok")
}

func TestHandlePhotoErrorOutcomeEvent(t *testing.T) {
	platform := &fakePlatform{}
	publisher := &fakePublisher{}
	analyzer := &fakeAnalyzer{result: models.ErrorResult("boom")}
	handler := NewHandler(platform, analyzer, publisher, nil)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.OutcomeError, publisher.events[0].Outcome)
}

func TestHandlePhotoArchiveFailureIsNonFatal(t *testing.T) {
	platform := &fakePlatform{}
	analyzer := &fakeAnalyzer{result: models.AnalysisResult{Message: "ok"}}
	archiver := &fakeArchiver{err: errors.New("bucket gone")}
	handler := NewHandler(platform, analyzer, nil, archiver)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	require.Len(t, platform.edits, 1)
	assert.Contains(t, platform.edits[0].text, "🔮 ok")
}

func TestHandlePhotoArchivesPhoto(t *testing.T) {
	platform := &fakePlatform{}
	analyzer := &fakeAnalyzer{result: models.AnalysisResult{Message: "ok"}}
	archiver := &fakeArchiver{}
	handler := NewHandler(platform, analyzer, nil, archiver)

	handler.HandlePhoto(context.Background(), 42, 7, "file-1")

	require.Len(t, archiver.keys, 1)
	assert.True(t, strings.HasPrefix(archiver.keys[0], "photos/"))
}

func TestHandleStart(t *testing.T) {
	platform := &fakePlatform{}
	handler := NewHandler(platform, &fakeAnalyzer{}, nil, nil)

	handler.HandleStart(42)

	require.Len(t, platform.plain, 1)
	assert.Equal(t, int64(42), platform.plain[0].chatID)
	assert.Contains(t, platform.plain[0].text, "Привет")
}

func TestHandleOther(t *testing.T) {
	platform := &fakePlatform{}
	handler := NewHandler(platform, &fakeAnalyzer{}, nil, nil)

	handler.HandleOther(42)

	require.Len(t, platform.plain, 1)
	assert.Equal(t, "Пожалуйста, отправьте изображение.", platform.plain[0].text)
}
