package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vs-kurkin/img2data/internal/markup"
)

// Map provider URL templates. The set is fixed: three providers, one row.
const (
	yandexMapsURL = "https://yandex.ru/maps/?rtext=~%s,%s&z=16"
	twoGISURL     = "https://2gis.ru/geo/%s,%s" // 2GIS wants lon,lat order
	googleMapsURL = "https://www.google.com/maps?q=%s,%s&z=16"
)

// mapKeyboard builds the single-row keyboard with three map links for a
// complete coordinate pair.
func mapKeyboard(lat, lon float64) *tgbotapi.InlineKeyboardMarkup {
	la := markup.FormatCoordinate(lat)
	lo := markup.FormatCoordinate(lon)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Яндекс", fmt.Sprintf(yandexMapsURL, la, lo)),
			tgbotapi.NewInlineKeyboardButtonURL("2Гис", fmt.Sprintf(twoGISURL, lo, la)),
			tgbotapi.NewInlineKeyboardButtonURL("Google", fmt.Sprintf(googleMapsURL, la, lo)),
		),
	)
	return &keyboard
}
