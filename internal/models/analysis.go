package models

import (
	"time"
)

// GPS holds a coordinate pair read from an image. The model may return a
// partial object, so both fields stay pointers; a pair is only usable when
// both are set.
type GPS struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Complete reports whether both coordinates are present.
func (g *GPS) Complete() bool {
	return g != nil && g.Latitude != nil && g.Longitude != nil
}

// AnalysisResult is the structured outcome of analyzing one image. Every
// field is optional: the model fills only what it recognized, and failed
// analyses are represented as a result carrying only Error. Unknown keys in
// the model response are ignored; JSON nulls map to zero values.
type AnalysisResult struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	GPS     *GPS   `json:"gps"`
	Address string `json:"address"`
	Date    string `json:"date"`
	Promo   string `json:"promo"`
}

// HasGPS reports whether the result carries a complete coordinate pair.
func (r AnalysisResult) HasGPS() bool {
	return r.GPS.Complete()
}

// ErrorResult builds an error-shaped result, used uniformly for decode,
// transport and parse failures so the caller always gets something to render.
func ErrorResult(text string) AnalysisResult {
	return AnalysisResult{Error: text}
}

// AnalysisEvent is published to RabbitMQ after each completed turn. It
// carries outcome metadata only, never the message text itself.
type AnalysisEvent struct {
	TurnID     string    `json:"turn_id"`
	ChatID     int64     `json:"chat_id"`
	Outcome    string    `json:"outcome"` // ok, error
	Model      string    `json:"model"`
	HasGPS     bool      `json:"has_gps"`
	HasPromo   bool      `json:"has_promo"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event outcome values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
