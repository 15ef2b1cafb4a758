package intake

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockElements get a line break after their text so paragraphs and list
// items stay separated once tags are dropped.
const blockElements = "p, li, br, div, h1, h2, h3, h4, h5, h6, tr"

// CleanDescription turns a pasted job description into plain text. Users
// often paste the page's HTML; scripts and styles are dropped, block elements
// become line breaks and runs of blank lines are collapsed.
func CleanDescription(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "<") {
		return collapseLines(raw)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseLines(raw)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return collapseLines(doc.Text())
}

func collapseLines(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
