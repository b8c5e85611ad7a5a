// Package extract turns uploaded answer documents into plain text.
//
// Extraction is a cascade: the extractor registered for the declared
// extension runs first, then a content-sniffed extractor, then a
// LibreOffice headless conversion, then a raw byte decode. The first
// stage producing usable text wins and its name is recorded on the
// result, so imports can report how each file was read.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrNoContent reports that every stage of the cascade failed to produce
// usable text for a document.
var ErrNoContent = errors.New("extract: no usable text content")

// RawDocument is one uploaded file, already in memory.
type RawDocument struct {
	Path     string
	Filename string
	Data     []byte
}

// Ext returns the lower-cased extension without the dot.
func (d RawDocument) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(d.Filename)), ".")
}

// ExtractedText is the outcome of a successful extraction.
type ExtractedText struct {
	Text   string
	Method string // name of the stage that produced the text
}

// Extractor converts one document format to plain text. Implementations
// return an error or empty text when the payload is not theirs to read;
// the pipeline treats both the same way.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, data []byte) (string, error)
}

// Pipeline runs the extraction cascade.
type Pipeline struct {
	byExt  map[string]Extractor
	conv   *Converter
	logger *slog.Logger

	minLen int
}

type Option func(*Pipeline)

// WithConverter enables the LibreOffice conversion stage.
func WithConverter(c *Converter) Option {
	return func(p *Pipeline) { p.conv = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithExtractor registers or overrides the extractor for an extension.
func WithExtractor(ext string, e Extractor) Option {
	return func(p *Pipeline) { p.byExt[strings.ToLower(ext)] = e }
}

func NewPipeline(opts ...Option) *Pipeline {
	docx := DocxExtractor{}
	p := &Pipeline{
		byExt: map[string]Extractor{
			"docx": docx,
			"doc":  LegacyDocExtractor{},
			"pdf":  PDFExtractor{},
			"xlsx": XLSXExtractor{},
			"xls":  XLSXExtractor{},
			"html": HTMLExtractor{},
			"htm":  HTMLExtractor{},
			"txt":  PlainTextExtractor{},
			"rtf":  PlainTextExtractor{},
		},
		logger: slog.Default(),
		minLen: 50,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Extract runs the cascade for one document. The returned error is
// ErrNoContent when every stage came up empty.
func (p *Pipeline) Extract(ctx context.Context, doc RawDocument) (ExtractedText, error) {
	if len(doc.Data) == 0 {
		return ExtractedText{}, fmt.Errorf("%s: empty file: %w", doc.Filename, ErrNoContent)
	}

	// Stage 1: declared extension.
	var tried []string
	if e, ok := p.byExt[doc.Ext()]; ok {
		if out, ok := p.attempt(ctx, e, doc); ok {
			return out, nil
		}
		tried = append(tried, e.Name())
	}

	// Stage 2: content sniffing may disagree with the extension.
	if e := sniffExtractor(doc.Data); e != nil && !contains(tried, e.Name()) {
		if out, ok := p.attempt(ctx, e, doc); ok {
			return out, nil
		}
		tried = append(tried, e.Name())
	}

	// Stage 3: LibreOffice conversion, then re-extract the docx.
	if p.conv != nil && p.conv.Available() {
		if data, err := p.conv.ToDocx(ctx, doc); err != nil {
			p.logger.Debug("soffice conversion failed", "file", doc.Filename, "err", err)
		} else if out, ok := p.attempt(ctx, DocxExtractor{}, RawDocument{Filename: doc.Filename, Data: data}); ok {
			out.Method = "soffice+" + out.Method
			return out, nil
		}
	}

	// Stage 4: raw byte decode across encodings.
	if out, ok := p.attempt(ctx, PlainTextExtractor{}, doc); ok && !contains(tried, out.Method) {
		return out, nil
	}

	return ExtractedText{}, fmt.Errorf("%s: %w", doc.Filename, ErrNoContent)
}

func (p *Pipeline) attempt(ctx context.Context, e Extractor, doc RawDocument) (ExtractedText, bool) {
	text, err := e.Extract(ctx, doc.Data)
	if err != nil {
		p.logger.Debug("extractor failed", "file", doc.Filename, "method", e.Name(), "err", err)
		return ExtractedText{}, false
	}
	text = cleanText(text)
	if !p.usable(text) {
		return ExtractedText{}, false
	}
	p.logger.Debug("extracted", "file", doc.Filename, "method", e.Name(), "len", len(text))
	return ExtractedText{Text: text, Method: e.Name()}, true
}

// usable requires a minimum length and at least one Han-script rune.
// Answer documents on this platform are Chinese; ASCII-only output almost
// always means a decoder read the wrong bytes.
func (p *Pipeline) usable(text string) bool {
	return utf8.RuneCountInString(text) > p.minLen && containsHan(text)
}

func containsHan(s string) bool {
	for _, r := range s {
		if (r >= 0x4e00 && r <= 0x9fa5) ||
			(r >= 0x3000 && r <= 0x303f) ||
			(r >= 0xff00 && r <= 0xffef) {
			return true
		}
	}
	return false
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
