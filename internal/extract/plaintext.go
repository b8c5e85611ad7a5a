package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// PlainTextExtractor decodes raw bytes, trying UTF-8 first and then the
// legacy Chinese encodings these uploads usually arrive in. It is both
// the .txt extractor and the last-resort stage for any format nothing
// else could read.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Name() string { return "plaintext" }

func (PlainTextExtractor) Extract(_ context.Context, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	type candidate struct {
		name string
		enc  encoding.Encoding
	}
	cascade := []candidate{
		{"gbk", simplifiedchinese.GBK},
		{"gb18030", simplifiedchinese.GB18030},
		{"latin1", charmap.ISO8859_1},
	}

	var first string
	for _, c := range cascade {
		out, err := c.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		s := string(out)
		if containsHan(s) {
			return s, nil
		}
		if first == "" {
			first = s
		}
	}
	if first == "" {
		return "", fmt.Errorf("plaintext: undecodable bytes")
	}
	return first, nil
}

var (
	reRTFWord  = regexp.MustCompile(`\\[a-zA-Z0-9]+`)
	reCtrlRuns = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]+")
)

// cleanText removes control characters, RTF control words, and runaway
// blank lines. Applied to the output of every stage.
func cleanText(s string) string {
	s = reCtrlRuns.ReplaceAllString(s, "")
	if strings.Contains(s, `\rtf`) || strings.Count(s, `\`) > 10 {
		s = reRTFWord.ReplaceAllString(s, " ")
		s = strings.NewReplacer("{", "", "}", "").Replace(s)
	}
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
