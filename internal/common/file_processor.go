package common

import (
	"fmt"
	"os"
	"path/filepath"

	"atspro/internal/errors"
	"atspro/internal/resume"
)

// FileProcessor reads CLI input files and writes output files
type FileProcessor struct {
	extractor *resume.Extractor
	logger    *errors.Logger
}

// NewFileProcessor creates a file processor. maxSize <= 0 disables the size check.
func NewFileProcessor(maxSize int64, logger *errors.Logger) *FileProcessor {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FileProcessor{extractor: resume.NewExtractor(maxSize, logger), logger: logger}
}

// ReadFile returns the text of a PDF or plain-text file
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	return fp.extractor.FromFile(filename)
}

// WriteFile writes content to a file, creating its directory
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles extracts the text of every input file in order
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if filename == "" {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE", "Filename cannot be empty", nil)
		}
		if !resume.Supported(filename) && filepath.Ext(filename) != "" {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("Unsupported file %s. Use a PDF, .txt or .md file.", filename), nil)
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}

	return contents, nil
}

// ValidateOutputFile checks that an output path is not a directory
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout
	}

	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s is a directory", filename), nil)
	}

	return nil
}
