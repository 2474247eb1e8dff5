// Package report persists the outputs of an extraction run.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/a3tai/mcp-filing-extractor/internal/filing"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640

	// AttachmentHeading separates the narrative from the attachment lines
	AttachmentHeading = "\n\nAttachment Summaries:\n"
)

// Writer writes the record and narrative files
type Writer struct {
	fs          afero.Fs
	recordPath  string
	summaryPath string
}

// NewWriter creates a writer for the given output paths
func NewWriter(fs afero.Fs, recordPath, summaryPath string) *Writer {
	return &Writer{fs: fs, recordPath: recordPath, summaryPath: summaryPath}
}

// RecordPath returns where the JSON record is written
func (w *Writer) RecordPath() string { return w.recordPath }

// SummaryPath returns where the narrative is written
func (w *Writer) SummaryPath() string { return w.summaryPath }

// EncodeRecord renders the record as UTF-8 JSON indented by four spaces in
// canonical field order, without HTML escaping or a trailing newline.
func EncodeRecord(record filing.CanonicalRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteRecord validates and writes the record, replacing any earlier file
func (w *Writer) WriteRecord(record filing.CanonicalRecord) error {
	if err := ValidateRecord(record); err != nil {
		return err
	}

	data, err := EncodeRecord(record)
	if err != nil {
		return err
	}

	return w.write(w.recordPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, data)
}

// WriteSummary writes the narrative, replacing any earlier file
func (w *Writer) WriteSummary(summary string) error {
	return w.write(w.summaryPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, []byte(summary))
}

// AppendAttachmentSummaries appends the attachment heading followed by one
// bullet per line to the narrative file.
func (w *Writer) AppendAttachmentSummaries(lines []string) error {
	return w.write(w.summaryPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, []byte(FormatAttachmentSummaries(lines)))
}

// FormatAttachmentSummaries renders the block appended to the narrative
func FormatAttachmentSummaries(lines []string) string {
	var b strings.Builder
	b.WriteString(AttachmentHeading)
	for _, line := range lines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (w *Writer) write(path string, flag int, data []byte) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := w.fs.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := w.fs.OpenFile(path, flag, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
