package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog/log"

	"github.com/vs-kurkin/img2data/internal/models"
)

// VisionService handles communication with the Gemini generateContent API.
type VisionService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewVisionService creates a new Gemini vision service.
func NewVisionService(apiKey, baseURL, model string) *VisionService {
	if model == "" {
		model = "gemini-2.5-pro"
	}
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	return &VisionService{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// Model returns the configured model name.
func (v *VisionService) Model() string {
	return v.model
}

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded bytes
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

// geminiResponse is the generateContent response body.
type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Analyze sends an image to the model and returns the structured result.
// It never returns an error: every failure (undecodable image, transport
// fault, API error, malformed completion) is converted into a result whose
// Error field describes the problem, so the caller always has something to
// show the user. The underlying cause is logged for operator diagnosis.
func (v *VisionService) Analyze(ctx context.Context, imageBytes []byte) models.AnalysisResult {
	start := time.Now()

	mimeType, err := sniffImage(imageBytes)
	if err != nil {
		log.Error().Err(err).Int("size", len(imageBytes)).Msg("Failed to decode image")
		return models.ErrorResult(fmt.Sprintf("Не удалось прочитать изображение. Ошибка: %v", err))
	}

	raw, err := v.generate(ctx, imageBytes, mimeType)
	if err != nil {
		log.Error().Err(err).Str("model", v.model).Msg("Gemini request failed")
		return models.ErrorResult(fmt.Sprintf("Не удалось обработать изображение. Ошибка: %v", err))
	}

	result, err := ParseAnalysisResponse(raw)
	if err != nil {
		log.Error().Err(err).Str("response", raw).Msg("Failed to parse model response")
		return models.ErrorResult(fmt.Sprintf("Не удалось обработать изображение. Ошибка: %v", err))
	}

	log.Info().
		Str("model", v.model).
		Dur("duration", time.Since(start)).
		Bool("has_gps", result.HasGPS()).
		Bool("has_promo", result.Promo != "").
		Msg("Image analyzed")

	return result
}

// generate performs one generateContent call with the fixed instruction
// prompt and the image as an inline part, asking for a JSON-typed response.
func (v *VisionService) generate(ctx context.Context, imageBytes []byte, mimeType string) (string, error) {
	if v.apiKey == "" {
		return "", fmt.Errorf("gemini API key not configured")
	}

	requestBody := geminiRequest{
		Contents: []geminiContent{
			{
				Role: "user",
				Parts: []geminiPart{
					{Text: analysisPrompt},
					{InlineData: &geminiInlineData{
						MimeType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(imageBytes),
					}},
				},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", v.baseURL, v.model, v.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("body", string(body)).
			Msg("Gemini API returned error")
		return "", fmt.Errorf("gemini API returned status %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("gemini API error: %s", geminiResp.Error.Message)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	var text strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	completion := strings.TrimSpace(text.String())
	if completion == "" {
		return "", fmt.Errorf("empty completion returned")
	}

	return completion, nil
}

// HealthCheck verifies the service is configured.
func (v *VisionService) HealthCheck(_ context.Context) error {
	if v.apiKey == "" {
		return fmt.Errorf("gemini API key not configured")
	}
	return nil
}

// sniffImage verifies the bytes decode as an image and returns the MIME
// type. Telegram photos are always JPEG, but documents and forwarded files
// may be PNG or GIF.
func sniffImage(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unsupported image format: %w", err)
	}
	return "image/" + format, nil
}
