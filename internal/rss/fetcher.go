package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/deusflow/stablenews/internal/retry"
)

// RawEntry is one feed item before any filtering. Summary may contain markup.
type RawEntry struct {
	Title      string
	Summary    string
	Link       string
	Published  string
	MediaImage string
}

// Fetcher downloads and parses syndication feeds.
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
	policy  retry.Policy
}

// NewFetcher returns a Fetcher that bounds each attempt by timeout and
// retries failed attempts according to policy.
func NewFetcher(timeout time.Duration, policy retry.Policy) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = "stablenews/1.0 (+https://github.com/deusflow/stablenews)"
	parser.Client = &http.Client{Timeout: timeout}
	return &Fetcher{parser: parser, timeout: timeout, policy: policy}
}

// Fetch retrieves one source and returns its entries in document order.
func (f *Fetcher) Fetch(ctx context.Context, src FeedSource) ([]RawEntry, error) {
	var feed *gofeed.Feed
	err := retry.Do(ctx, f.policy, "fetch "+src.Name, func(ctx context.Context, _ int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		parsed, err := f.parser.ParseURLWithContext(src.URL, attemptCtx)
		if err != nil {
			return err
		}
		feed = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", src.Name, err)
	}

	entries := make([]RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, toRawEntry(item))
	}

	slog.Debug("feed loaded", "source", src.Name, "items", len(entries))
	return entries, nil
}

func toRawEntry(item *gofeed.Item) RawEntry {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}

	published := item.Published
	if published == "" {
		published = item.Updated
	}

	return RawEntry{
		Title:      strings.TrimSpace(item.Title),
		Summary:    strings.TrimSpace(summary),
		Link:       strings.TrimSpace(item.Link),
		Published:  strings.TrimSpace(published),
		MediaImage: mediaContentURL(item.Extensions),
	}
}

// mediaContentURL returns the url of the first media:content element,
// looking inside media:group as well.
func mediaContentURL(exts ext.Extensions) string {
	media, ok := exts["media"]
	if !ok {
		return ""
	}
	if u := firstURL(media["content"]); u != "" {
		return u
	}
	for _, group := range media["group"] {
		if u := firstURL(group.Children["content"]); u != "" {
			return u
		}
	}
	return ""
}

func firstURL(elems []ext.Extension) string {
	for _, e := range elems {
		if u := strings.TrimSpace(e.Attrs["url"]); u != "" {
			return u
		}
	}
	return ""
}
