package inference

import (
	"math"
	"regexp"
	"strconv"
)

// SectionScoreContext caches per-question scores derived from section
// headers, keyed by the header text. One instance per document: the
// orchestrator constructs a fresh one for each file so header-derived
// scores never leak across documents. Not safe for concurrent use;
// a document is processed by a single worker.
type SectionScoreContext struct {
	scores map[string]float64
}

func NewSectionScoreContext() *SectionScoreContext {
	return &SectionScoreContext{scores: make(map[string]float64)}
}

func (c *SectionScoreContext) lookup(header string) (float64, bool) {
	s, ok := c.scores[header]
	return s, ok
}

func (c *SectionScoreContext) put(header string, score float64) {
	c.scores[header] = score
}

var (
	// 一.单选题(共25题,25分)
	reHeaderTotal = regexp.MustCompile(`共\s*(\d+)\s*题\s*[,，]\s*(\d+(?:\.\d+)?)\s*分`)
	// 每题2分 / 每小题2分 / 每空1分
	reHeaderEach = regexp.MustCompile(`每(?:小?题|空)\s*(\d+(?:\.\d+)?)\s*分`)
)

// headerScore derives a per-question score from a section header,
// caching hits in the context. "共X题,Y分" divides total by count with
// half-up rounding to two decimals; "每题X分" is taken as-is.
func (c *SectionScoreContext) headerScore(header string) (float64, bool) {
	if header == "" {
		return 0, false
	}
	if s, ok := c.lookup(header); ok {
		return s, true
	}
	if m := reHeaderTotal.FindStringSubmatch(header); m != nil {
		count, _ := strconv.Atoi(m[1])
		total, _ := strconv.ParseFloat(m[2], 64)
		if count > 0 {
			s := roundHalfUp2(total / float64(count))
			c.put(header, s)
			return s, true
		}
	}
	if m := reHeaderEach.FindStringSubmatch(header); m != nil {
		s, err := strconv.ParseFloat(m[1], 64)
		if err == nil && s > 0 {
			c.put(header, s)
			return s, true
		}
	}
	return 0, false
}

func roundHalfUp2(f float64) float64 {
	return math.Floor(f*100+0.5) / 100
}
