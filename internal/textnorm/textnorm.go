// Package textnorm turns feed description markup into plain text.
package textnorm

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Normalize strips markup from raw and returns the collapsed plain text and
// the src of the first image found, if any. Plain text without tags is
// accepted as is. It never fails: unparsable input degrades to the raw
// string with whitespace collapsed.
func Normalize(raw string) (string, string) {
	if strings.TrimSpace(raw) == "" {
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapse(raw), ""
	}

	// script/style bodies are text nodes too, but never prose
	doc.Find("script, style").Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	text := collapse(strings.Join(parts, " "))

	image := ""
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
			image = strings.TrimSpace(src)
			return false
		}
		return true
	})

	return text, image
}

// collectText walks the tree and appends every text node so adjacent
// elements ("<p>a</p><p>b</p>") are separated by a space rather than glued.
func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			*parts = append(*parts, c.Text())
			return
		}
		collectText(c, parts)
	})
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
