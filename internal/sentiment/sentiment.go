// Package sentiment scores the tone of short news text on a [-1, 1] scale.
package sentiment

import (
	"context"
	"strings"

	"github.com/jonreiter/govader"
)

// Scorer maps text to a polarity in [-1, 1], positive meaning favourable.
// Implementations must not fail: unscorable text yields 0.
type Scorer interface {
	Score(ctx context.Context, text string) float64
}

// Lexicon scores text with the VADER rule-based lexicon. The score is the
// compound polarity: negations, boosters, contrastive "but" and emphasis
// are taken into account.
type Lexicon struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewLexicon loads the VADER lexicon. The analyzer is read-only after
// construction and safe for concurrent use.
func NewLexicon() *Lexicon {
	return &Lexicon{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score implements Scorer.
func (l *Lexicon) Score(_ context.Context, text string) float64 {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return 0
	}
	return clamp(l.analyzer.PolarityScores(text).Compound)
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
