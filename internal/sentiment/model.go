package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/deusflow/stablenews/internal/cache"
	"github.com/deusflow/stablenews/internal/ratelimit"
)

const maxPromptChars = 4000

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelScorer rates text polarity with a language model. Results are
// memoized, calls are capped by a daily budget, and any failure falls back
// to another scorer.
type ModelScorer struct {
	name     string
	gen      Generator
	fallback Scorer
	cache    *cache.Cache[float64]
	budget   *ratelimit.Budget
}

// NewModelScorer wires a model-backed scorer. cache and budget may be nil.
func NewModelScorer(name string, gen Generator, fallback Scorer, c *cache.Cache[float64], b *ratelimit.Budget) *ModelScorer {
	return &ModelScorer{name: name, gen: gen, fallback: fallback, cache: c, budget: b}
}

// Score implements Scorer.
func (s *ModelScorer) Score(ctx context.Context, text string) float64 {
	key := cache.Key(text)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if s.budget != nil {
				s.budget.RecordCacheHit()
			}
			return v
		}
	}

	if s.budget != nil {
		if err := s.budget.Use(); err != nil {
			return s.fallback.Score(ctx, text)
		}
	}

	resp, err := s.gen.Generate(ctx, buildPrompt(text))
	if err != nil {
		slog.Warn("model scoring failed, using fallback", "model", s.name, "error", err)
		return s.fallback.Score(ctx, text)
	}
	score, err := parseScore(resp)
	if err != nil {
		slog.Warn("unparseable model score, using fallback", "model", s.name, "response", resp, "error", err)
		return s.fallback.Score(ctx, text)
	}

	if s.cache != nil {
		s.cache.Set(key, score)
	}
	return score
}

func buildPrompt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxPromptChars {
		text = string([]rune(text)[:maxPromptChars])
	}
	return fmt.Sprintf(`Rate the sentiment of the following news text on a scale from -1 (very negative) to 1 (very positive), where 0 is neutral.
Reply with the number only.

TEXT: %s`, text)
}

var number = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// parseScore takes the first number in the response, clamped to [-1, 1].
func parseScore(resp string) (float64, error) {
	m := number.FindString(resp)
	if m == "" {
		return 0, errors.New("no number in response")
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, err
	}
	return clamp(v), nil
}
