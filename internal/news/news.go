package news

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/stablenews/internal/filter"
	"github.com/deusflow/stablenews/internal/metrics"
	"github.com/deusflow/stablenews/internal/rss"
	"github.com/deusflow/stablenews/internal/sentiment"
	"github.com/deusflow/stablenews/internal/textnorm"
)

// Article is a curated news item: it mentions a stablecoin, reads
// positively and carries regulatory context.
type Article struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	ImageURL  string    `json:"image_url,omitempty"`
	Source    string    `json:"source"`
	Published string    `json:"published"`
	Sentiment float64   `json:"sentiment"`
	FetchedAt time.Time `json:"fetched_at"`
}

// TitleKey is the case-insensitive identity of an article title.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

const (
	// MinSentiment is the polarity every admitted entry must reach.
	MinSentiment = 0.1
	// MinSentimentWithNegative applies when a negative term is present.
	MinSentimentWithNegative = 0.3
)

// EntryFetcher retrieves the raw entries of one feed source.
type EntryFetcher interface {
	Fetch(ctx context.Context, src rss.FeedSource) ([]rss.RawEntry, error)
}

// Curator runs the curation pipeline over a set of feed sources.
type Curator struct {
	fetcher EntryFetcher
	scorer  sentiment.Scorer
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewCurator wires a curator. A nil metrics sink falls back to metrics.Global.
func NewCurator(fetcher EntryFetcher, scorer sentiment.Scorer, m *metrics.Metrics) *Curator {
	if m == nil {
		m = metrics.Global
	}
	return &Curator{
		fetcher: fetcher,
		scorer:  scorer,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run fetches every source in order and returns the entries that pass all
// filters. A source that fails to load is logged and skipped. Titles are
// deduplicated case-insensitively across the whole run, first one wins.
func (c *Curator) Run(ctx context.Context, sources []rss.FeedSource) []Article {
	var articles []Article
	seen := make(map[string]struct{})

	for _, src := range sources {
		if ctx.Err() != nil {
			slog.Warn("curation interrupted", "error", ctx.Err())
			break
		}

		entries, err := c.fetcher.Fetch(ctx, src)
		if err != nil {
			slog.Warn("failed to fetch feed", "source", src.Name, "url", src.URL, "error", err)
			c.metrics.IncrementFeedFailures()
			continue
		}

		accepted := 0
		for _, entry := range entries {
			c.metrics.IncrementEntriesProcessed()

			article, reason := c.Curate(ctx, src.Name, entry, seen)
			if reason != "" {
				c.metrics.IncrementRejected(reason)
				slog.Debug("entry rejected", "source", src.Name, "title", entry.Title, "reason", reason)
				continue
			}

			seen[TitleKey(article.Title)] = struct{}{}
			articles = append(articles, article)
			accepted++
		}
		slog.Info("feed processed", "source", src.Name, "entries", len(entries), "accepted", accepted)
	}

	c.metrics.AddCurated(len(articles))
	return articles
}

// Curate applies the admission checks to a single entry, in order, and
// stops at the first failing one. It returns the built article, or the
// rejection stage (one of the metrics.Stage* constants). seen holds the
// title keys already admitted in this run and is only read.
func (c *Curator) Curate(ctx context.Context, source string, e rss.RawEntry, seen map[string]struct{}) (Article, string) {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return Article{}, metrics.StageTitle
	}
	if _, dup := seen[TitleKey(title)]; dup {
		return Article{}, metrics.StageDuplicate
	}

	summary, inlineImage := textnorm.Normalize(e.Summary)
	text := title + " " + summary

	if !filter.MentionsSubject(text) {
		return Article{}, metrics.StageSubject
	}

	score := c.scorer.Score(ctx, text)
	if score < MinSentiment {
		return Article{}, metrics.StageSentiment
	}
	if filter.HasNegativeTerm(text) && score < MinSentimentWithNegative {
		return Article{}, metrics.StageNegative
	}
	if !filter.HasPolicyContext(text) {
		return Article{}, metrics.StagePolicy
	}

	now := c.now()
	image := inlineImage
	if e.MediaImage != "" {
		image = e.MediaImage
	}
	published := e.Published
	if published == "" {
		published = now.Format(time.RFC3339)
	}

	return Article{
		Title:     title,
		Summary:   summary,
		URL:       strings.TrimSpace(e.Link),
		ImageURL:  image,
		Source:    source,
		Published: published,
		Sentiment: score,
		FetchedAt: now,
	}, ""
}
