package resume

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atspro/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a one-page PDF with a correct xref table.
func minimalPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestFromBytesPDF(t *testing.T) {
	e := NewExtractor(0, nil)
	text, err := e.FromBytes("resume.pdf", minimalPDF("Go engineer with Kubernetes"))
	require.NoError(t, err)
	assert.Contains(t, text, "Kubernetes")
}

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     []byte
		maxSize  int64
		expected string
		errCode  string
	}{
		{"plain text", "cv.txt", []byte("Jane Doe\r\n\r\n\r\nGo, SQL  \n"), 0, "Jane Doe\n\nGo, SQL", ""},
		{"markdown", "cv.md", []byte("# Jane\n"), 0, "# Jane", ""},
		{"no extension", "pasted", []byte("text"), 0, "text", ""},
		{"unsupported", "cv.docx", []byte("PK..."), 0, "", errors.ErrCodeInvalidFormat},
		{"pdf without header", "cv.pdf", []byte("hello"), 0, "", errors.ErrCodeInvalidFormat},
		{"broken pdf", "cv.pdf", []byte("%PDF-1.4 garbage"), 0, "", errors.ErrCodeInvalidFormat},
		{"binary text", "cv.txt", []byte{0xff, 0xfe, 0x00}, 0, "", errors.ErrCodeInvalidFormat},
		{"whitespace only", "cv.txt", []byte(" \n\n "), 0, "", errors.ErrCodeInvalidFormat},
		{"too large", "cv.txt", []byte(strings.Repeat("a", 11)), 10, "", errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := NewExtractor(tt.maxSize, errors.NewNopLogger()).FromBytes(tt.file, tt.data)
			if tt.errCode != "" {
				appErr, ok := errors.As(err)
				require.True(t, ok, "expected AppError, got %v", err)
				assert.Equal(t, tt.errCode, appErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("Senior Go developer"), 0600))

	e := NewExtractor(1024, nil)
	text, err := e.FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go developer", text)

	_, err = e.FromFile(filepath.Join(dir, "missing.txt"))
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFileNotFound, appErr.Code)

	_, err = e.FromFile(dir)
	assert.Error(t, err)
}

func TestFromReaderLimit(t *testing.T) {
	e := NewExtractor(4, nil)
	_, err := e.FromReader("cv.txt", strings.NewReader("abcdefgh"))
	assert.ErrorContains(t, err, "exceeds the 4 B upload limit")

	text, err := e.FromReader("cv.txt", strings.NewReader("abcd"))
	require.NoError(t, err)
	assert.Equal(t, "abcd", text)
}

func TestSupportedAndFileSize(t *testing.T) {
	assert.True(t, Supported("A.PDF"))
	assert.True(t, Supported("cv.markdown"))
	assert.False(t, Supported("cv.docx"))

	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "5.0 MB", FormatFileSize(5*1024*1024))
}
