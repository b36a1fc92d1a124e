package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vs-kurkin/img2data/internal/models"
)

// ErrMalformedResponse marks a model completion that is not valid JSON after
// fence cleanup. Callers convert it into an error-shaped AnalysisResult
// instead of failing the conversation turn.
var ErrMalformedResponse = errors.New("malformed model response")

// ParseAnalysisResponse extracts an AnalysisResult from a raw model
// completion. The completion is nominally JSON (the request asks for
// application/json), but the model sometimes wraps it in a markdown code
// fence, so the fence is stripped first. Unknown keys are ignored and
// missing keys stay at their zero values.
func ParseAnalysisResponse(raw string) (models.AnalysisResult, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return result, nil
}

// stripCodeFence removes a wrapping ``` or ```json fence. The model applies
// fences inconsistently and sometimes omits the closing fence, so both the
// opening tag and the trailing fence are optional. This is a best-effort
// heuristic, not a parser: a stray ``` inside a JSON string would confuse it,
// which the strict JSON parse afterwards surfaces as ErrMalformedResponse.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")

	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
