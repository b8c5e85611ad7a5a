package segment

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Match is one candidate answer span found by a strategy. Pos is the rune
// offset of the marker within the section, so matches from different
// strategies can be compared positionally.
type Match struct {
	Pos      int
	Text     string
	Priority int // lower wins
}

// Strategy locates answer spans in one question section. Implementations
// are pure: same section in, same matches out, no state.
type Strategy interface {
	Name() string
	Priority() int
	Find(section string) []Match
}

var defaultStrategies = []Strategy{
	markerPairStrategy{},
	greedyMarkerStrategy{},
	tolerantMarkerStrategy{},
	lastResortStrategy{},
}

// markerPairStrategy needs both markers present: the answer sits between
// 学生答案 and 正确答案. Highest confidence.
type markerPairStrategy struct{}

var reMarkerPair = regexp.MustCompile(`(?s)学生答案[：:]\s*(.*?)正确答案`)

func (markerPairStrategy) Name() string  { return "marker-pair" }
func (markerPairStrategy) Priority() int { return 1 }

func (s markerPairStrategy) Find(section string) []Match {
	return findAll(section, reMarkerPair, s.Priority())
}

// greedyMarkerStrategy captures from 学生答案 to the next score marker,
// next question ordinal, or end of section.
type greedyMarkerStrategy struct{}

var reGreedyMarker = regexp.MustCompile(`(?s)学生答案[：:]\s*(.*?)(?:学生得分|\n\s*\d+\s*[.、．]|\z)`)

func (greedyMarkerStrategy) Name() string  { return "greedy-marker" }
func (greedyMarkerStrategy) Priority() int { return 2 }

func (s greedyMarkerStrategy) Find(section string) []Match {
	return findAll(section, reGreedyMarker, s.Priority())
}

// tolerantMarkerStrategy accepts the variant markers some export layouts
// use. The leading class keeps it off 学生答案 and 正确答案, which the
// higher-priority strategies own.
type tolerantMarkerStrategy struct{}

var reTolerantMarker = regexp.MustCompile(`(?s)(?:我的答案|(?:^|[^生确的考标准参])答案)[：:]\s*(.*?)(?:正确答案|学生得分|得分|\n\s*\d+\s*[.、．]|\z)`)

func (tolerantMarkerStrategy) Name() string  { return "tolerant-marker" }
func (tolerantMarkerStrategy) Priority() int { return 3 }

func (s tolerantMarkerStrategy) Find(section string) []Match {
	return findAll(section, reTolerantMarker, s.Priority())
}

// lastResortStrategy takes everything after the first marker-ish token.
// Only useful when nothing terminated the answer; merging demotes it
// whenever a better strategy found the same spot.
type lastResortStrategy struct{}

var reLastResort = regexp.MustCompile(`(?s)(?:学生答案|我的答案)[：:]?\s*(.*)\z`)

func (lastResortStrategy) Name() string  { return "last-resort" }
func (lastResortStrategy) Priority() int { return 4 }

func (s lastResortStrategy) Find(section string) []Match {
	return findAll(section, reLastResort, s.Priority())
}

func findAll(section string, re *regexp.Regexp, prio int) []Match {
	idx := re.FindAllStringSubmatchIndex(section, -1)
	out := make([]Match, 0, len(idx))
	for _, m := range idx {
		start, gs, ge := m[0], m[2], m[3]
		if gs < 0 {
			continue
		}
		out = append(out, Match{
			Pos:      utf8.RuneCountInString(section[:start]),
			Text:     strings.TrimSpace(section[gs:ge]),
			Priority: prio,
		})
	}
	return out
}

// mergeWindow is how close (in runes) two match positions must be to
// count as the same answer site.
const mergeWindow = 20

// mergeMatches unions matches from all strategies, sorts by position, and
// collapses clusters within mergeWindow keeping the best priority. Result
// is in document order.
func mergeMatches(all []Match) []Match {
	if len(all) == 0 {
		return nil
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Pos != all[j].Pos {
			return all[i].Pos < all[j].Pos
		}
		return all[i].Priority < all[j].Priority
	})
	merged := []Match{all[0]}
	for _, m := range all[1:] {
		last := &merged[len(merged)-1]
		if m.Pos-last.Pos <= mergeWindow {
			if m.Priority < last.Priority {
				*last = m
			}
			continue
		}
		merged = append(merged, m)
	}
	return merged
}
