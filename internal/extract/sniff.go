package extract

import "bytes"

var (
	magicZip = []byte("PK\x03\x04")
	magicPDF = []byte("%PDF")
	magicRTF = []byte(`{\rtf`)
	magicOLE = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}
)

// sniffExtractor picks an extractor from file magic, ignoring the declared
// extension. Uploads are routinely misnamed (.doc files that are really
// docx, .docx files that are really HTML exports).
func sniffExtractor(data []byte) Extractor {
	switch {
	case bytes.HasPrefix(data, magicZip):
		if zipContains(data, "word/document.xml") {
			return DocxExtractor{}
		}
		if zipContains(data, "xl/workbook.xml") {
			return XLSXExtractor{}
		}
		return nil
	case bytes.HasPrefix(data, magicPDF):
		return PDFExtractor{}
	case bytes.HasPrefix(data, magicOLE):
		return LegacyDocExtractor{}
	case bytes.HasPrefix(data, magicRTF):
		return PlainTextExtractor{}
	case looksLikeHTML(data):
		return HTMLExtractor{}
	default:
		return nil
	}
}

func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	low := bytes.ToLower(head)
	return bytes.Contains(low, []byte("<html")) || bytes.Contains(low, []byte("<!doctype html"))
}

// zipContains looks for an entry name in the raw archive bytes. Entry
// names sit uncompressed in the local file headers, so a byte search is
// enough to tell docx from xlsx.
func zipContains(data []byte, name string) bool {
	return bytes.Contains(data, []byte(name))
}
