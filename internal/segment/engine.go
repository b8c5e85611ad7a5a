// Package segment splits extracted answer-document text into per-question
// answer units.
//
// Documents come in two shapes. Platform exports carry the 学生答案 marker
// before each answer; those get the specialized path: split at question
// ordinals, run the matcher strategies over each section, merge by
// priority. Anything else goes through the generic path, a line machine
// keyed on question numbering.
package segment

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// AnswerMarker flags a platform-format document.
	AnswerMarker = "学生答案"
	// UnansweredText is the canonical answer body for an explicit
	// no-answer unit. Distinct from empty string, which means the
	// segmenter found a site but no text.
	UnansweredText = "学生未作答"
)

// Unit is one question/answer pair recovered from a document. Ordinal is
// positional: units run 1..N with no gaps, whatever numbering the document
// itself uses. Skipped document numbers become unanswered placeholders.
type Unit struct {
	Ordinal       int
	Label         string
	QuestionText  string
	AnswerText    string
	Unanswered    bool
	SectionHeader string
	Score         *float64 // from an explicit 学生得分 marker, if any
}

type Engine struct {
	strategies []Strategy
	logger     *slog.Logger
}

type Option func(*Engine)

func WithStrategies(ss ...Strategy) Option {
	return func(e *Engine) { e.strategies = ss }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{strategies: defaultStrategies, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

var (
	reOrdinalNum  = regexp.MustCompile(`(\d{1,3})\s*[.、．]`)
	reScoreMarker = regexp.MustCompile(`学生得分[：:]\s*(-?\d+(?:\.\d+)?)\s*分?`)
	reSectionHead = regexp.MustCompile(`(?m)^\s*[一二三四五六七八九十]+\s*[.、．][^\n]*题[^\n]*$`)
)

// ordinalStarts finds question-number sites anywhere in text, not just at
// line starts: PDF extraction often yields a single newline-free run.
// Decimals like 2.5分 are skipped by rejecting a digit on either side of
// the match.
func ordinalStarts(text string) [][]int {
	var out [][]int
	for _, m := range reOrdinalNum.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:m[0]])
			if unicode.IsDigit(prev) || prev == '.' || prev == '．' {
				continue
			}
		}
		if m[1] < len(text) {
			next, _ := utf8.DecodeRuneInString(text[m[1]:])
			if unicode.IsDigit(next) {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// Segment splits text into units. It never fails outright: a document with
// no recognizable structure yields a single unit holding the whole text.
func (e *Engine) Segment(text string) []Unit {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.Contains(text, AnswerMarker) {
		units := e.segmentMarked(text)
		e.logger.Debug("segmented", "mode", "marker", "units", len(units))
		return units
	}
	units := e.segmentGeneric(text)
	e.logger.Debug("segmented", "mode", "generic", "units", len(units))
	return units
}

// maxGapFill bounds how many placeholder units a numbering gap may add.
// Larger jumps are treated as renumbering noise and ignored.
const maxGapFill = 20

// segmentMarked handles platform-format documents.
func (e *Engine) segmentMarked(text string) []Unit {
	secs := splitSections(text)
	units := make([]Unit, 0, len(secs))
	for _, sec := range secs {
		if gap := sec.number - (len(units) + 1); gap > 0 && gap <= maxGapFill {
			for ; gap > 0; gap-- {
				units = append(units, placeholderUnit(len(units)+1, sec.header))
			}
		}
		u := Unit{
			Ordinal:       len(units) + 1,
			Label:         fmt.Sprintf("第%d题", len(units)+1),
			SectionHeader: sec.header,
		}

		var all []Match
		for _, s := range e.strategies {
			all = append(all, s.Find(sec.body)...)
		}
		merged := mergeMatches(all)
		if len(merged) > 0 {
			u.AnswerText = merged[0].Text
		}
		u.QuestionText = questionText(sec.body)
		u.Score = explicitScore(sec.body)

		if u.AnswerText == "" || u.AnswerText == UnansweredText {
			u.AnswerText = UnansweredText
			u.Unanswered = true
		}
		units = append(units, u)
	}
	return e.repair(text, units)
}

// repair pads trailing unanswered units when the document clearly holds
// more questions than the matcher recovered. Expected count falls back
// from score markers to ordinal starts to one.
func (e *Engine) repair(text string, units []Unit) []Unit {
	expected := len(reScoreMarker.FindAllString(text, -1))
	if expected == 0 {
		expected = len(ordinalStarts(text))
	}
	if expected == 0 {
		expected = 1
	}
	header := ""
	if len(units) > 0 {
		header = units[len(units)-1].SectionHeader
	}
	for i := len(units); i < expected; i++ {
		units = append(units, placeholderUnit(i+1, header))
	}
	if len(units) < expected {
		e.logger.Warn("segment repair underfilled", "expected", expected, "got", len(units))
	}
	return units
}

func placeholderUnit(ordinal int, header string) Unit {
	return Unit{
		Ordinal:       ordinal,
		Label:         fmt.Sprintf("第%d题", ordinal),
		AnswerText:    UnansweredText,
		Unanswered:    true,
		SectionHeader: header,
	}
}

type section struct {
	number int    // as printed in the document; steers gap filling only
	header string // nearest preceding big-section header line
	body   string
}

// splitSections cuts the document at question ordinals and tracks the
// current section header (一.单选题(共25题,25分) style lines) as it goes.
func splitSections(text string) []section {
	ords := ordinalStarts(text)
	heads := reSectionHead.FindAllStringIndex(text, -1)

	headerAt := func(pos int) string {
		h := ""
		for _, hd := range heads {
			if hd[0] > pos {
				break
			}
			h = strings.TrimSpace(text[hd[0]:hd[1]])
		}
		return h
	}

	if len(ords) == 0 {
		return []section{{number: 1, header: headerAt(0), body: text}}
	}

	out := make([]section, 0, len(ords))
	for i, m := range ords {
		start := m[0]
		end := len(text)
		if i+1 < len(ords) {
			end = ords[i+1][0]
		}
		n, _ := strconv.Atoi(text[m[2]:m[3]])
		out = append(out, section{
			number: n,
			header: headerAt(start),
			body:   text[start:end],
		})
	}
	return out
}

// questionText is everything in the section before the first answer
// marker, with the ordinal prefix kept (the resolver strips it).
func questionText(body string) string {
	cut := len(body)
	for _, marker := range []string{AnswerMarker, "我的答案", "答案："} {
		if i := strings.Index(body, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(body[:cut])
}

func explicitScore(body string) *float64 {
	m := reScoreMarker.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}

var genericStarts = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(\d+)\s*[.、．:：]`),
	regexp.MustCompile(`^\s*[（(](\d+)[)）]`),
	regexp.MustCompile(`^\s*第\s*(\d+)\s*[题问]`),
	regexp.MustCompile(`^\s*[一二三四五六七八九十]+\s*[、.．]`),
}

// segmentGeneric is the numbered-line machine for documents without the
// platform marker. A line opening a new question flushes the buffered
// lines as the previous unit's answer.
func (e *Engine) segmentGeneric(text string) []Unit {
	var units []Unit
	var buf []string
	open := false

	flush := func() {
		if !open {
			return
		}
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		u := Unit{
			Ordinal: len(units) + 1,
			Label:   fmt.Sprintf("第%d题", len(units)+1),
		}
		if body == "" {
			u.AnswerText = UnansweredText
			u.Unanswered = true
		} else {
			u.AnswerText = body
		}
		units = append(units, u)
		buf = buf[:0]
		open = false
	}

	for _, line := range strings.Split(text, "\n") {
		if n, ok := genericStart(line); ok {
			flush()
			if gap := n - (len(units) + 1); gap > 0 && gap <= maxGapFill {
				for ; gap > 0; gap-- {
					units = append(units, placeholderUnit(len(units)+1, ""))
				}
			}
			open = true
			if rest := stripGenericStart(line); rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		if open {
			buf = append(buf, line)
		}
	}
	flush()

	if len(units) == 0 {
		return []Unit{{Ordinal: 1, Label: "第1题", AnswerText: text}}
	}
	return units
}

func genericStart(line string) (int, bool) {
	for _, re := range genericStarts {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			n, _ := strconv.Atoi(m[1])
			return n, true
		}
		return 0, true
	}
	return 0, false
}

func stripGenericStart(line string) string {
	for _, re := range genericStarts {
		if loc := re.FindStringIndex(line); loc != nil {
			return strings.TrimSpace(line[loc[1]:])
		}
	}
	return strings.TrimSpace(line)
}
