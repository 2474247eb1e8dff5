package pdf

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-filing-extractor/internal/attachments"
	"github.com/a3tai/mcp-filing-extractor/internal/filing"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf/extraction"
)

// Document is an opened filing: its page text, its form fields and a source
// for its embedded files.
type Document struct {
	path        string
	pages       []PageText
	text        string
	fields      []extraction.FormField
	formFields  filing.FormFields
	attachments attachments.Source
	warnings    []string
}

// Path returns the file the document was read from
func (d *Document) Path() string { return d.path }

// Pages returns the per-page text
func (d *Document) Pages() []PageText { return d.pages }

// Text returns the text of all pages, each followed by a newline
func (d *Document) Text() string { return d.text }

// Fields returns the terminal form fields with their types
func (d *Document) Fields() []extraction.FormField { return d.fields }

// FormFields returns the qualified field names and values in document order
func (d *Document) FormFields() filing.FormFields { return d.formFields }

// Attachments returns the embedded file source
func (d *Document) Attachments() attachments.Source { return d.attachments }

// Warnings lists the non-fatal problems met while reading
func (d *Document) Warnings() []string { return d.warnings }

// OpenOptions configure Open
type OpenOptions struct {
	MaxFileSize int64
	Logger      *zap.Logger
}

// Open validates path and reads its text and form fields. A document that
// cannot be read as a PDF is an error; unreadable form data only produces a
// warning and an empty field set.
func Open(path string, opts OpenOptions) (*Document, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := NewValidator(opts.MaxFileSize).Check(path); err != nil {
		return nil, err
	}

	pages, err := NewTextReader().ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	doc := &Document{
		path:        path,
		pages:       pages,
		text:        JoinPages(pages),
		formFields:  filing.NewFormFields(),
		attachments: NewEmbeddedFiles(path),
	}

	for _, p := range pages {
		if p.Err != nil {
			logger.Warn("page text unavailable", zap.Int("page", p.Number), zap.Error(p.Err))
			doc.warnings = append(doc.warnings, p.Err.Error())
		}
	}

	fields, err := extraction.NewPDFCPUFormExtractor(logger).ExtractFormsFromFile(path)
	if err != nil {
		logger.Warn("form fields unavailable", zap.String("path", path), zap.Error(err))
		doc.warnings = append(doc.warnings, fmt.Sprintf("form fields unavailable: %v", err))
	} else {
		doc.fields = fields
		doc.formFields = extraction.ToFormFields(fields)
	}

	logger.Debug("document opened",
		zap.String("path", path),
		zap.Int("pages", len(pages)),
		zap.Int("fields", doc.formFields.Len()))

	return doc, nil
}

// IsInputError reports whether err came from validating the input file
func IsInputError(err error) bool {
	for _, target := range []error{ErrEmptyPath, ErrFileNotFound, ErrNotPDF, ErrEmptyFile, ErrFileTooLarge, ErrUnreadable} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
