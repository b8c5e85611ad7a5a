package bank

import (
	"regexp"
	"strings"

	"github.com/minio/highwayhash"
)

// Fingerprint is the comparable identity of a question body: the core
// content with ordinal and score decorations stripped, a keyword set,
// and a content hash for exact-duplicate short-circuiting.
type Fingerprint struct {
	Ordinal  int
	Core     string
	Keywords map[string]struct{}
	Hash     uint64
}

var (
	reOrdinalPrefix = regexp.MustCompile(`^\s*(?:第\s*\d+\s*[题问]|\d+\s*[.、．:：])\s*`)
	reScoreDecor    = regexp.MustCompile(`[（(]\s*\d+(?:\.\d+)?\s*分\s*[)）]`)
	reKeywordSplit  = regexp.MustCompile(`[\s，。！？；：、,.!?;:（）()]+`)
)

// hashKey is fixed: fingerprints only need to agree with each other, not
// resist an adversary.
var hashKey = []byte("q-fingerprint-key-teachhelper-01")

// NewFingerprint builds a fingerprint from a raw question text.
func NewFingerprint(ordinal int, questionText string) Fingerprint {
	core := reOrdinalPrefix.ReplaceAllString(questionText, "")
	core = reScoreDecor.ReplaceAllString(core, "")
	core = strings.TrimSpace(core)

	kw := make(map[string]struct{})
	for _, w := range reKeywordSplit.Split(core, -1) {
		if n := len([]rune(w)); n >= 2 && n <= 8 {
			kw[w] = struct{}{}
		}
	}

	return Fingerprint{
		Ordinal:  ordinal,
		Core:     core,
		Keywords: kw,
		Hash:     contentHash(core),
	}
}

func contentHash(core string) uint64 {
	stripped := normalizeCore(core)
	sum := highwayhash.Sum64([]byte(stripped), hashKey)
	return sum
}

// SimilarityWeights tune the composite score. Zero value is unusable;
// use DefaultWeights.
type SimilarityWeights struct {
	Keyword float64
	Edit    float64
}

var DefaultWeights = SimilarityWeights{Keyword: 0.4, Edit: 0.6}

// compareLimit caps the edit-distance operand length; beyond the first
// hundred runes question bodies rarely disagree in a way that matters.
const compareLimit = 100

// Similarity scores two fingerprints in [0,1]. Equal hashes short-circuit
// to 1 without running the edit distance.
func Similarity(a, b Fingerprint, w SimilarityWeights) float64 {
	if a.Hash == b.Hash {
		return 1.0
	}
	kw := jaccard(a.Keywords, b.Keywords)

	ar := []rune(a.Core)
	br := []rune(b.Core)
	if len(ar) > compareLimit {
		ar = ar[:compareLimit]
	}
	if len(br) > compareLimit {
		br = br[:compareLimit]
	}
	edit := 0.0
	if maxLen := max(len(ar), len(br)); maxLen > 0 {
		d := levenshtein(string(ar), string(br))
		edit = 1.0 - float64(d)/float64(maxLen)
	}
	return w.Keyword*kw + w.Edit*edit
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
