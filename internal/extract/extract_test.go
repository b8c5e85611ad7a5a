package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	_, err = w.Write([]byte(b.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDocxExtractor(t *testing.T) {
	data := buildDocx(t, "一.单选题(共2题,4分)", "1.下列说法正确的是（ ）", "学生答案：A")
	text, err := DocxExtractor{}.Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "一.单选题(共2题,4分)\n1.下列说法正确的是（ ）\n学生答案：A", text)
}

func TestDocxExtractorRejectsNonZip(t *testing.T) {
	_, err := DocxExtractor{}.Extract(context.Background(), []byte("not a zip"))
	assert.Error(t, err)
}

func TestHTMLExtractor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "paragraphs become lines",
			in:   "<html><body><p>第一段内容</p><p>第二段内容</p></body></html>",
			want: "第一段内容\n第二段内容",
		},
		{
			name: "script and style dropped",
			in:   "<html><style>p{color:red}</style><script>alert(1)</script><p>正文内容</p></html>",
			want: "正文内容",
		},
		{
			name: "entities unescaped",
			in:   "<p>A &amp; B &lt;对比&gt;</p>",
			want: "A & B <对比>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLExtractor{}.Extract(context.Background(), []byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlainTextExtractorGBK(t *testing.T) {
	const want = "这是一段用于测试编码回退的中文文本内容"
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(want))
	require.NoError(t, err)

	got, err := PlainTextExtractor{}.Extract(context.Background(), gbk)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPlainTextExtractorUTF8Passthrough(t *testing.T) {
	got, err := PlainTextExtractor{}.Extract(context.Background(), []byte("普通UTF-8文本"))
	require.NoError(t, err)
	assert.Equal(t, "普通UTF-8文本", got)
}

func TestCleanTextStripsRTF(t *testing.T) {
	got := cleanText(`{\rtf1\ansi\deff0 这里是正文内容}`)
	assert.Contains(t, got, "这里是正文内容")
	assert.NotContains(t, got, `\rtf`)
	assert.NotContains(t, got, "{")
}

func TestPipelineSniffsMisnamedDocx(t *testing.T) {
	// A docx payload uploaded with a .doc extension must still be read
	// as docx via content sniffing.
	data := buildDocx(t,
		"一.单选题(共2题,4分)",
		"1.下列关于操作系统进程调度的说法正确的是（ ）",
		"学生答案：A",
		"正确答案：A",
		"2.下列关于计算机网络分层模型的说法正确的是（ ）",
		"学生答案：B",
	)
	p := NewPipeline()
	out, err := p.Extract(context.Background(), RawDocument{Filename: "学生作答.doc", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "docx", out.Method)
	assert.Contains(t, out.Text, "学生答案：A")
}

func TestPipelineNoContent(t *testing.T) {
	p := NewPipeline()
	_, err := p.Extract(context.Background(), RawDocument{Filename: "junk.txt", Data: []byte("short ascii")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoContent))

	_, err = p.Extract(context.Background(), RawDocument{Filename: "empty.docx"})
	assert.True(t, errors.Is(err, ErrNoContent))
}

func TestPipelineRejectsTooShort(t *testing.T) {
	// Han content below the length floor is treated as unusable.
	p := NewPipeline()
	_, err := p.Extract(context.Background(), RawDocument{Filename: "tiny.txt", Data: []byte("中文")})
	assert.True(t, errors.Is(err, ErrNoContent))
}

func TestSniffExtractor(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf", []byte("%PDF-1.4 ..."), "pdf"},
		{"rtf", []byte(`{\rtf1\ansi hello}`), "plaintext"},
		{"html", []byte("<!DOCTYPE html><html><body>x</body></html>"), "html"},
		{"ole", append([]byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}, make([]byte, 64)...), "doc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := sniffExtractor(tt.data)
			require.NotNil(t, e)
			assert.Equal(t, tt.want, e.Name())
		})
	}
	assert.Nil(t, sniffExtractor([]byte("plain prose")))
}

func TestContainsHan(t *testing.T) {
	assert.True(t, containsHan("中文"))
	assert.True(t, containsHan("fullwidth：colon"))
	assert.False(t, containsHan("ascii only"))
}
