// routes_tokenize.go - Handler fuer Encode, Decode, Masking und Batches
// Enthaelt: EncodeHandler, DecodeHandler, MaskHandler, BatchHandler,
// TokenHandler, ShowHandler, statusFor
package server

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ollama/subword/api"
	"github.com/ollama/subword/batch"
	"github.com/ollama/subword/envconfig"
	"github.com/ollama/subword/mlm"
	"github.com/ollama/subword/tokenizer"
)

// statusFor bildet Tokenizer-Fehler auf HTTP-Status ab
func statusFor(err error) int {
	switch {
	case errors.Is(err, tokenizer.ErrUnknownCharacter),
		errors.Is(err, tokenizer.ErrSpaceRun),
		errors.Is(err, tokenizer.ErrUnknownID),
		errors.Is(err, tokenizer.ErrUnknownToken),
		errors.Is(err, mlm.ErrInvalidRate),
		errors.Is(err, batch.ErrNoWidth):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) rngFor(seed *uint64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))
}

func (s *Server) EncodeHandler(c *gin.Context) {
	var req api.EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	start := time.Now()
	ids, err := s.model.EncodeBatch(c.Request.Context(), req.Input, int(envconfig.NumParallel()))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, api.EncodeResponse{IDs: ids, TotalDuration: time.Since(start)})
}

func (s *Server) DecodeHandler(c *gin.Context) {
	var req api.DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	text, err := s.model.DecodeWith(req.IDs, tokenizer.DecodeOptions{SkipSpecial: req.SkipSpecial})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, api.DecodeResponse{Text: text})
}

func (s *Server) MaskHandler(c *gin.Context) {
	var req api.MaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	rate := req.Rate
	if rate == 0 {
		rate = envconfig.MaskRate()
	}

	p, err := batch.NewPipeline(s.model, batch.Config{
		Strategy:  batch.Strategy{Masking: &mlm.Config{Rate: rate}},
		MaskToken: "[MASK]",
		Seed:      s.rngFor(req.Seed).Uint64(),
	})
	if err != nil {
		abort(c, err)
		return
	}

	seq, err := p.PrepareMLM(req.Text)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MaskResponse{
		IDs:       seq.IDs,
		Positions: seq.Positions,
		Originals: seq.Originals,
		Targets:   seq.Targets,
	})
}

func (s *Server) BatchHandler(c *gin.Context) {
	var req api.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	side, err := batch.ParseSide(req.Side)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	style, err := batch.ParseMaskStyle(req.MaskStyle)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	width := req.Width
	if width == 0 {
		width = int(envconfig.MaxTokens())
	}

	cfg := batch.Config{
		Strategy: batch.Strategy{Width: width, Side: side, MaskStyle: style},
		Seed:     s.rngFor(req.Seed).Uint64(),
		Parallel: int(envconfig.NumParallel()),
	}
	if slices.Contains(s.model.SpecialTokens(), "[PAD]") {
		cfg.PadToken = "[PAD]"
	}
	if req.Wrap {
		cfg.StartToken, cfg.EndToken = "[CLS]", "[SEP]"
	}
	if req.MaskRate > 0 {
		cfg.Strategy.Masking = &mlm.Config{Rate: req.MaskRate}
		cfg.MaskToken = "[MASK]"
	}

	p, err := batch.NewPipeline(s.model, cfg)
	if err != nil {
		abort(c, err)
		return
	}

	b, err := p.Encode(c.Request.Context(), req.Input)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, api.BatchResponse{
		IDs:     b.IDs,
		Mask:    b.Mask,
		Targets: b.Targets,
		Lengths: b.Lengths,
	})
}

func (s *Server) TokenHandler(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	tok, err := s.model.Vocabulary().Token(int32(id))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.TokenResponse{ID: int32(id), Token: tok, Special: s.model.IsSpecial(int32(id))})
}

func (s *Server) ShowHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.ShowResponse{
		VocabSize:     s.model.Vocabulary().Len(),
		Merges:        s.model.Merges().Len(),
		Marker:        string(s.model.Marker()),
		SpecialTokens: s.model.SpecialTokens(),
		Spaces:        s.model.SpacePolicy().String(),
	})
}
