package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Converter shells out to LibreOffice for formats nothing in-process can
// read (old .doc, .wps, broken containers). The binary is probed once and
// cached; all conversion artifacts live in a per-call temp dir that is
// removed before returning.
type Converter struct {
	Path    string // explicit soffice path; empty probes defaults
	Timeout time.Duration

	once   sync.Once
	binary string
}

var sofficePaths = []string{
	"/usr/bin/soffice",
	"/usr/bin/libreoffice",
	"/usr/local/bin/soffice",
	"/opt/libreoffice/program/soffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
}

func NewConverter(path string, timeout time.Duration) *Converter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Converter{Path: path, Timeout: timeout}
}

func (c *Converter) detect() string {
	c.once.Do(func() {
		if c.Path != "" {
			if _, err := os.Stat(c.Path); err == nil {
				c.binary = c.Path
			}
			return
		}
		if p, err := exec.LookPath("soffice"); err == nil {
			c.binary = p
			return
		}
		for _, p := range sofficePaths {
			if _, err := os.Stat(p); err == nil {
				c.binary = p
				return
			}
		}
	})
	return c.binary
}

func (c *Converter) Available() bool { return c.detect() != "" }

// ToDocx converts the document and returns the docx bytes.
func (c *Converter) ToDocx(ctx context.Context, doc RawDocument) ([]byte, error) {
	bin := c.detect()
	if bin == "" {
		return nil, fmt.Errorf("soffice not found")
	}

	work, err := os.MkdirTemp("", "convert-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(work)

	name := doc.Filename
	if name == "" {
		name = "input.doc"
	}
	in := filepath.Join(work, filepath.Base(name))
	if err := os.WriteFile(in, doc.Data, 0o600); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "docx", "--outdir", work, in)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("soffice convert: %v: %s", err, strings.TrimSpace(string(out)))
	}

	converted := strings.TrimSuffix(in, filepath.Ext(in)) + ".docx"
	data, err := os.ReadFile(converted)
	if err != nil {
		return nil, fmt.Errorf("soffice output missing: %w", err)
	}
	return data, nil
}
