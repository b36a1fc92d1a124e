package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vs-kurkin/img2data/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestRenderEmptyResult(t *testing.T) {
	assert.Equal(t, "", Render(models.AnalysisResult{}))
}

func TestRenderFullResultSuppressesPromo(t *testing.T) {
	result := models.AnalysisResult{
		Message: "Test message",
		Error:   "Test error",
		GPS:     &models.GPS{Latitude: floatPtr(12.34), Longitude: floatPtr(56.78)},
		Address: "Test address",
		Date:    "2025-01-01",
		Promo:   "TESTPROMO",
	}

	out := Render(result)

	assert.Contains(t, out, "🔮 Test message")
	assert.Contains(t, out, "❗️ Test error")
	assert.Contains(t, out, "🌎 `12.34 56.78`")
	assert.Contains(t, out, "🚩 `Test address`")
	assert.Contains(t, out, "📸 `2025-01-01`")
	assert.NotContains(t, out, "TESTPROMO", "promo must be suppressed when GPS is present")

	parts := strings.Split(out, "\n\n")
	require.Len(t, parts, 5)
}

func TestRenderPromoWithMessage(t *testing.T) {
	result := models.AnalysisResult{
		Message: "Got a promo!",
		Promo:   "PROMO123",
	}

	out := Render(result)

	parts := strings.Split(out, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "🔮 Got a promo\\!", parts[0])
	assert.Equal(t, "💰 `PROMO123`", parts[1])
}

func TestRenderErrorOnly(t *testing.T) {
	out := Render(models.AnalysisResult{Error: "Something went wrong"})

	assert.Equal(t, "❗️ Something went wrong", out)
	assert.False(t, strings.HasPrefix(out, "\n"))
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestRenderEscapesFreeTextOnly(t *testing.T) {
	result := models.AnalysisResult{
		Message: "v2.0 (final)",
		GPS:     &models.GPS{Latitude: floatPtr(55.7558), Longitude: floatPtr(37.6173)},
		Address: "ул. Тверская, д.1",
	}

	out := Render(result)

	assert.Contains(t, out, "v2\\.0 \\(final\\)", "message must be escaped")
	assert.Contains(t, out, "`55.7558 37.6173`", "coordinates must stay verbatim inside backticks")
	assert.Contains(t, out, "`ул. Тверская, д.1`", "address must stay verbatim inside backticks")
}

func TestRenderIncompleteGPSFallsBackToPromo(t *testing.T) {
	result := models.AnalysisResult{
		GPS:   &models.GPS{Latitude: floatPtr(55.75)},
		Promo: "PROMO123",
	}

	out := Render(result)

	assert.NotContains(t, out, "🌎", "a partial coordinate pair must not render")
	assert.Contains(t, out, "💰 `PROMO123`")
}

func TestRenderAddressAndDateOnlyWithGPS(t *testing.T) {
	// Address and date are only meaningful alongside coordinates.
	result := models.AnalysisResult{
		Message: "ok",
		Address: "somewhere",
		Date:    "2025-01-01",
	}

	out := Render(result)

	assert.Equal(t, "🔮 ok", out)
}

func TestFormatCoordinate(t *testing.T) {
	assert.Equal(t, "55.75", FormatCoordinate(55.75))
	assert.Equal(t, "37.61", FormatCoordinate(37.61))
	assert.Equal(t, "-0.5", FormatCoordinate(-0.5))
	assert.Equal(t, "180", FormatCoordinate(180))
}
