package rss

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FeedSource is one named syndication endpoint.
type FeedSource struct {
	Name string `yaml:"name" toml:"name"`
	URL  string `yaml:"url" toml:"url"`
}

// FeedsConfig is YAML config structure
// feeds:
//   - name: CoinDesk
//     url: https://...
type FeedsConfig struct {
	Feeds []FeedSource `yaml:"feeds" toml:"feeds"`
}

// DefaultFeeds is the registry used when no feeds file is present.
func DefaultFeeds() []FeedSource {
	return []FeedSource{
		{Name: "CoinDesk", URL: "https://www.coindesk.com/arc/outboundfeeds/rss/"},
		{Name: "Cointelegraph", URL: "https://cointelegraph.com/rss"},
		{Name: "CryptoSlate", URL: "https://cryptoslate.com/feed/"},
		{Name: "IMF Fintech", URL: "https://www.imf.org/external/rss/feeds.aspx?category=FINTECH"},
		{Name: "BIS Innovation Hub", URL: "https://www.bis.org/bcbs/rss/index.xml"},
		{Name: "ECB News", URL: "https://www.ecb.europa.eu/rss/press.xml"},
		{Name: "FATF News", URL: "https://www.fatf-gafi.org/rss/en/morenews/"},
		{Name: "Treasury FinCEN", URL: "https://home.treasury.gov/rss/finCEN"},
		{Name: "Chainalysis", URL: "https://blog.chainalysis.com/rss/"},
		{Name: "Elliptic", URL: "https://www.elliptic.co/blog/rss.xml"},
		{Name: "TRM Labs", URL: "https://www.trmlabs.com/blog?format=rss"},
		{Name: "BIS Speeches", URL: "https://www.bis.org/list/speeches_rss.page"},
		{Name: "MAS News", URL: "https://www.mas.gov.sg/rss?type=all"},
		{Name: "FCA News", URL: "https://www.fca.org.uk/news/rss.xml"},
		{Name: "HKMA News", URL: "https://www.hkma.gov.hk/media/eng/rss/rss.xml"},
		{Name: "OFAC Updates", URL: "https://home.treasury.gov/rss/press-center/press-releases"},
	}
}

// LoadFeeds reads the feed registry from a YAML file, or TOML when the path
// ends in .toml. Entries without a URL are dropped; a missing name falls back
// to the URL. The error wraps os.ErrNotExist when the file is absent.
func LoadFeeds(path string) ([]FeedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err = toml.NewDecoder(f).Decode(&cfg)
	} else {
		err = yaml.NewDecoder(f).Decode(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode feeds file %s: %w", path, err)
	}

	feeds := make([]FeedSource, 0, len(cfg.Feeds))
	seen := make(map[string]struct{}, len(cfg.Feeds))
	for _, fs := range cfg.Feeds {
		fs.URL = strings.TrimSpace(fs.URL)
		fs.Name = strings.TrimSpace(fs.Name)
		if fs.URL == "" {
			continue
		}
		if fs.Name == "" {
			fs.Name = fs.URL
		}
		if _, dup := seen[fs.Name]; dup {
			return nil, fmt.Errorf("duplicate feed name %q in %s", fs.Name, path)
		}
		seen[fs.Name] = struct{}{}
		feeds = append(feeds, fs)
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured in %s", path)
	}
	return feeds, nil
}
