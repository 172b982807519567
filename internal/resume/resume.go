// Package resume checks CV uploads before they are sent for analysis.
package resume

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/khrees2412/careerflow/internal/apperr"
)

// DefaultMaxBytes caps uploads when no limit is configured.
const DefaultMaxBytes = 10 << 20

var pdfMagic = []byte("%PDF-")

// Upload is a CV held in memory.
type Upload struct {
	Name string
	Data []byte
}

// Info describes an inspected CV.
type Info struct {
	Name  string
	Size  int
	Pages int
}

// Load reads a CV from disk, refusing files larger than maxBytes.
func Load(path string, maxBytes int64) (Upload, error) {
	if strings.TrimSpace(path) == "" {
		return Upload{}, apperr.Invalid("file", "a CV file is required")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Upload{}, apperr.Invalid("file", "%s does not exist", path)
		}
		return Upload{}, fmt.Errorf("failed to open CV: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("failed to read CV: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return Upload{}, apperr.Invalid("file", "%s is larger than %d MB", filepath.Base(path), maxBytes>>20)
	}
	return Upload{Name: filepath.Base(path), Data: data}, nil
}

// Inspect verifies that u is a readable PDF with at least one page.
func Inspect(u Upload) (info Info, err error) {
	if len(u.Data) == 0 {
		return Info{}, apperr.Invalid("file", "a CV file is required")
	}
	if !bytes.HasPrefix(bytes.TrimLeft(u.Data, "\x00\t\r\n "), pdfMagic) {
		return Info{}, apperr.Invalid("file", "%s is not a PDF", displayName(u))
	}

	// the pdf reader panics on some malformed input
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, apperr.Invalid("file", "%s could not be read as a PDF", displayName(u))
		}
	}()

	r, perr := pdf.NewReader(bytes.NewReader(u.Data), int64(len(u.Data)))
	if perr != nil {
		return Info{}, apperr.Invalid("file", "%s could not be read as a PDF: %v", displayName(u), perr)
	}
	pages := r.NumPage()
	if pages == 0 {
		return Info{}, apperr.Invalid("file", "%s has no pages", displayName(u))
	}
	return Info{Name: u.Name, Size: len(u.Data), Pages: pages}, nil
}

// Text extracts the plain text of a PDF CV.
func Text(u Upload) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to extract text from %s: %v", displayName(u), r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(u.Data), int64(len(u.Data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func displayName(u Upload) string {
	if u.Name == "" {
		return "the file"
	}
	return u.Name
}
