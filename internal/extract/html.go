package extract

import (
	"context"
	"html"
	"regexp"
	"strings"
)

// HTMLExtractor strips markup and unescapes entities. Good enough for the
// exported answer pages the platform produces; these carry no scripts or
// styling worth preserving.
type HTMLExtractor struct{}

func (HTMLExtractor) Name() string { return "html" }

var (
	reScriptStyle = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	reBlockBreak  = regexp.MustCompile(`(?i)<(/p|br[^>]*|/div|/tr|/li|/h[1-6])>`)
	reTag         = regexp.MustCompile(`<[^>]+>`)
	reBlankRuns   = regexp.MustCompile(`\n{3,}`)
)

func (HTMLExtractor) Extract(_ context.Context, data []byte) (string, error) {
	s := string(data)
	s = reScriptStyle.ReplaceAllString(s, "")
	s = reBlockBreak.ReplaceAllString(s, "\n")
	s = reTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s), nil
}
