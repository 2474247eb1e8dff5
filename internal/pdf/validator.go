package pdf

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Input errors. Any of these aborts an extraction run.
var (
	ErrEmptyPath    = errors.New("path cannot be empty")
	ErrFileNotFound = errors.New("file does not exist")
	ErrNotPDF       = errors.New("file is not a PDF")
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file too large")
	ErrUnreadable   = errors.New("invalid PDF file")
)

// Validator handles filing document validation
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidationResult reports whether a document can be processed
type ValidationResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Size    int64  `json:"size,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidateFile checks the document and reports the outcome in the result
// rather than as an error.
func (v *Validator) ValidateFile(path string) *ValidationResult {
	result := &ValidationResult{Path: path}

	info, err := v.Check(path)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	result.Valid = true
	result.Size = info.Size()
	return result
}

// Check performs the full validation, including a parse of the PDF header
// and cross-reference table.
func (v *Validator) Check(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return nil, err
	}

	f, _, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	return fileInfo, nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("%w: path is a directory: %s", ErrNotPDF, path)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotPDF, path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrFileTooLarge, fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
