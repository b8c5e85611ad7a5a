package extract

import (
	"bytes"
	"context"
	"fmt"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// LegacyDocExtractor scrapes readable runs out of the OLE .doc binary
// without parsing the compound file structure. Word 97+ stores body text
// as UTF-16LE, so it decodes code units pairwise and keeps printable
// stretches. Crude, but it recovers most prose; when it misses, the
// LibreOffice stage takes over.
type LegacyDocExtractor struct{}

func (LegacyDocExtractor) Name() string { return "doc" }

func (LegacyDocExtractor) Extract(_ context.Context, data []byte) (string, error) {
	// A zip container misnamed .doc is really docx; scraping its
	// compressed bytes would only produce noise.
	if bytes.HasPrefix(data, magicZip) {
		return "", fmt.Errorf("doc: zip container, not OLE")
	}
	if text := utf16Runs(data); utf8.RuneCountInString(text) > 20 {
		return text, nil
	}
	if text := printableRuns(data); text != "" {
		return text, nil
	}
	return "", fmt.Errorf("doc: no readable runs")
}

// utf16Runs decodes data as little-endian UTF-16 and keeps contiguous
// printable stretches of 4+ runes, separated by newlines.
func utf16Runs(data []byte) string {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])|uint16(data[i+1])<<8)
	}
	runes := utf16.Decode(units)

	var out, run []rune
	flush := func() {
		if len(run) >= 4 {
			if len(out) > 0 {
				out = append(out, '\n')
			}
			out = append(out, run...)
		}
		run = run[:0]
	}
	for _, r := range runes {
		if printableRune(r) {
			run = append(run, r)
		} else {
			flush()
		}
	}
	flush()
	return string(out)
}

// printableRuns keeps printable stretches from a byte-level UTF-8 scan,
// the salvage used when a PDF or doc body has no decodable text layer.
func printableRuns(data []byte) string {
	var out, run []rune
	flush := func() {
		if len(run) >= 4 {
			if len(out) > 0 {
				out = append(out, '\n')
			}
			out = append(out, run...)
		}
		run = run[:0]
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r != utf8.RuneError && printableRune(r) {
			run = append(run, r)
		} else {
			flush()
		}
		if size == 0 {
			break
		}
		i += size
	}
	flush()
	return string(out)
}

func printableRune(r rune) bool {
	if r == ' ' || r == '\t' {
		return true
	}
	return unicode.IsPrint(r) && !unicode.IsControl(r)
}
