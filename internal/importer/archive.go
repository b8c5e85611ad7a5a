package importer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/uluckystar/teachhelper/internal/extract"
)

var documentExts = map[string]bool{
	".doc": true, ".docx": true, ".pdf": true, ".txt": true,
	".html": true, ".htm": true, ".rtf": true, ".xlsx": true, ".xls": true,
}

// LoadDir reads every document file directly under dir (and one level of
// subdirectories, which class exports use for per-student folders). An
// archive that cannot be opened is skipped, not fatal: the rest of the
// batch still loads.
func LoadDir(dir string) ([]extract.RawDocument, error) {
	var docs []extract.RawDocument
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if depth(dir, path) > 1 {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".zip" {
			sub, err := expandZipFile(path)
			if err != nil {
				slog.Warn("skipping unreadable archive", "path", path, "err", err)
				return nil
			}
			docs = append(docs, sub...)
			return nil
		}
		if !documentExts[ext] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, extract.RawDocument{Path: path, Filename: d.Name(), Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func expandZipFile(path string) ([]extract.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ExpandArchive(data, filepath.Base(path), true)
}

// ExpandArchive lists document entries of a class archive. Nested zips
// (one per student) are expanded exactly one level; deeper nesting is
// ignored. Entry names written by Windows tools without the UTF-8 flag
// are decoded as GBK.
func ExpandArchive(data []byte, name string, nested bool) ([]extract.RawDocument, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", name, err)
	}
	var docs []extract.RawDocument
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entryName := f.Name
		if f.NonUTF8 {
			if dec, err := simplifiedchinese.GBK.NewDecoder().String(entryName); err == nil {
				entryName = dec
			}
		}
		base := filepath.Base(entryName)
		if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "__MACOSX") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(base))
		isZip := ext == ".zip"
		if !documentExts[ext] && !isZip {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", entryName, err)
		}
		payload, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", entryName, err)
		}
		if isZip {
			if !nested {
				continue
			}
			sub, err := ExpandArchive(payload, base, false)
			if err != nil {
				continue // a broken inner archive skips, not aborts
			}
			docs = append(docs, sub...)
			continue
		}
		docs = append(docs, extract.RawDocument{Path: name + "!" + entryName, Filename: base, Data: payload})
	}
	return docs, nil
}
