// Package resume turns uploaded resume files into plain text for matching.
package resume

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"atspro/internal/errors"

	"github.com/ledongthuc/pdf"
)

var textExtensions = []string{".txt", ".md", ".markdown", ".text"}

// Extractor reads PDF and plain-text resumes up to a size limit.
type Extractor struct {
	maxSize int64
	logger  *errors.Logger
}

// NewExtractor builds an extractor. maxSize <= 0 disables the limit.
func NewExtractor(maxSize int64, logger *errors.Logger) *Extractor {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Extractor{maxSize: maxSize, logger: logger}
}

// Supported reports whether the file name has an extension we can read.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".pdf" || slices.Contains(textExtensions, ext)
}

// FromFile validates and extracts a resume on disk.
func (e *Extractor) FromFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", path), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", path), err)
	}
	if info.IsDir() {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Path is a directory, not a file: %s", path), nil)
	}
	if e.maxSize > 0 && info.Size() > e.maxSize {
		return "", e.tooLarge(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", path), err)
	}
	return e.FromBytes(filepath.Base(path), data)
}

// FromReader reads at most maxSize+1 bytes so oversized uploads are caught
// without buffering them entirely.
func (e *Extractor) FromReader(name string, r io.Reader) (string, error) {
	if e.maxSize > 0 {
		r = io.LimitReader(r, e.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read upload: %s", name), err)
	}
	return e.FromBytes(name, data)
}

// FromBytes extracts text, choosing the decoder from the PDF magic bytes or
// the file extension.
func (e *Extractor) FromBytes(name string, data []byte) (string, error) {
	if e.maxSize > 0 && int64(len(data)) > e.maxSize {
		return "", e.tooLarge(name)
	}

	var (
		text string
		err  error
	)
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		text, err = pdfText(data)
	case strings.EqualFold(filepath.Ext(name), ".pdf"):
		err = fmt.Errorf("missing PDF header")
	case Supported(name) || filepath.Ext(name) == "":
		if !utf8.Valid(data) {
			err = fmt.Errorf("file is not valid UTF-8 text")
		}
		text = string(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported resume format %q. Upload a PDF or text file.", filepath.Ext(name)), nil)
	}
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Could not read resume %s", name), err)
	}

	text = normalize(text)
	if text == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("No text could be extracted from %s", name), nil)
	}
	e.logger.Debug("Extracted resume text", "file", name, "bytes", len(data), "chars", len(text))
	return text, nil
}

func (e *Extractor) tooLarge(name string) error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("%s exceeds the %s upload limit", name, FormatFileSize(e.maxSize)), nil)
}

func pdfText(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// normalize collapses runs of blank lines and trims trailing spaces.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
