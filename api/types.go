// types.go - Request- und Response-Typen der subword HTTP-API
// Enthaelt: StatusError, Encode/Decode/Mask/Batch-Typen, ShowResponse, TokenResponse
package api

import (
	"fmt"
	"time"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		return "something went wrong, please see the subword server logs for details"
	}
}

// EncodeRequest encodes every text in Input.
type EncodeRequest struct {
	Input []string `json:"input"`
}

// EncodeResponse holds one id sequence per input.
type EncodeResponse struct {
	IDs           [][]int32     `json:"ids"`
	TotalDuration time.Duration `json:"total_duration,omitempty"`
}

// DecodeRequest decodes IDs.
type DecodeRequest struct {
	IDs         []int32 `json:"ids"`
	SkipSpecial bool    `json:"skip_special,omitempty"`
}

type DecodeResponse struct {
	Text string `json:"text"`
}

// MaskRequest prepares a masked language modeling sequence. Zero values use
// the server defaults.
type MaskRequest struct {
	Text string  `json:"text"`
	Rate float64 `json:"rate,omitempty"`
	Seed *uint64 `json:"seed,omitempty"`
}

type MaskResponse struct {
	IDs       []int32 `json:"ids"`
	Positions []int   `json:"positions"`
	Originals []int32 `json:"originals"`
	Targets   []int32 `json:"targets"`
}

// BatchRequest encodes Input into a rectangular batch.
type BatchRequest struct {
	Input     []string `json:"input"`
	Width     int      `json:"width,omitempty"`
	Side      string   `json:"side,omitempty"`       // "right" or "left"
	MaskStyle string   `json:"mask_style,omitempty"` // "boolean" or "additive"
	MaskRate  float64  `json:"mask_rate,omitempty"`  // enables masking when > 0
	Wrap      bool     `json:"wrap,omitempty"`       // add [CLS] and [SEP]
	Seed      *uint64  `json:"seed,omitempty"`
}

type BatchResponse struct {
	IDs     [][]int32   `json:"ids"`
	Mask    [][]float32 `json:"mask"`
	Targets [][]int32   `json:"targets,omitempty"`
	Lengths []int       `json:"lengths"`
}

// TokenResponse describes one vocabulary entry.
type TokenResponse struct {
	ID      int32  `json:"id"`
	Token   string `json:"token"`
	Special bool   `json:"special"`
}

// ShowResponse summarizes the served model.
type ShowResponse struct {
	VocabSize     int      `json:"vocab_size"`
	Merges        int      `json:"merges"`
	Marker        string   `json:"marker"`
	SpecialTokens []string `json:"special_tokens"`
	Spaces        string   `json:"spaces"`
}
