package markup

import (
	"strconv"
	"strings"

	"github.com/vs-kurkin/img2data/internal/models"
)

// Render formats an analysis result as a MarkdownV2 message. Parts are
// emitted in fixed order and joined with a blank line:
//
//  1. message (escaped)
//  2. error (escaped)
//  3. coordinates, then address and date, each verbatim inside backticks
//  4. promo code verbatim inside backticks, only when there is no GPS pair
//
// Free text must be escaped because the model may emit reserved characters.
// Coordinates, address, date and promo go inside inline-code delimiters and
// stay verbatim: escaping them there would corrupt the displayed content
// (a coordinate like 55.75 would render with a stray backslash).
// A result with no fields renders to the empty string.
func Render(r models.AnalysisResult) string {
	var parts []string

	if r.Message != "" {
		parts = append(parts, "🔮 "+Escape(r.Message))
	}

	if r.Error != "" {
		parts = append(parts, "❗️ "+Escape(r.Error))
	}

	if r.HasGPS() {
		lat := FormatCoordinate(*r.GPS.Latitude)
		lon := FormatCoordinate(*r.GPS.Longitude)
		parts = append(parts, "🌎 `"+lat+" "+lon+"`")

		if r.Address != "" {
			parts = append(parts, "🚩 `"+r.Address+"`")
		}
		if r.Date != "" {
			parts = append(parts, "📸 `"+r.Date+"`")
		}
	} else if r.Promo != "" {
		parts = append(parts, "💰 `"+r.Promo+"`")
	}

	return strings.Join(parts, "\n\n")
}

// FormatCoordinate renders a coordinate with the shortest exact decimal
// representation, so 55.75 prints as "55.75", not "55.750000".
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
