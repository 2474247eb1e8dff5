package attachments

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-filing-extractor/internal/filing"
)

// NoAttachmentsLine is the narrative line for a document without embedded files
const NoAttachmentsLine = "No embedded attachments found in the PDF."

// DefaultDirPerm is used when creating the attachment directory
const DefaultDirPerm = 0o750

const defaultFilePerm = 0o640

// Source enumerates the embedded binaries of a document. Count failing is a
// document-level error; Name and Payload failing only affect that item.
type Source interface {
	Count() (int, error)
	Name(index int) (string, error)
	Payload(index int) ([]byte, error)
}

// Record describes one recovered (or failed) attachment
type Record struct {
	Index       int    `json:"index"`
	StoredName  string `json:"stored_name"`
	DisplayName string `json:"display_name"`
	Filename    string `json:"filename"`
	Path        string `json:"path"`
	Size        int    `json:"size"`
	Class       Class  `json:"class"`
	Err         error  `json:"-"`
}

// Summary is the narrative line for the record
func (r Record) Summary() string {
	if r.Err != nil {
		return fmt.Sprintf("Error extracting attachment %d: %v", r.Index, r.Err)
	}
	return fmt.Sprintf("Attachment '%s' extracted. %s", r.Filename, r.Class.Description())
}

// Report is the outcome of one recovery pass
type Report struct {
	Records []Record
	Lines   []string
	// Err is set when the attachment stage failed as a whole
	Err error
}

// Saved returns the records that were written successfully
func (r Report) Saved() []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Err == nil {
			out = append(out, rec)
		}
	}
	return out
}

// Engine recovers embedded files, names them and stores them under a directory
type Engine struct {
	fs           afero.Fs
	dir          string
	nameMapField string
	logger       *zap.Logger
}

// NewEngine creates an engine writing into dir on fs
func NewEngine(fs afero.Fs, dir string, logger *zap.Logger) *Engine {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		fs:           fs,
		dir:          dir,
		nameMapField: DefaultNameMapField,
		logger:       logger,
	}
}

// SetNameMapField changes the form field holding the encoded name list
func (e *Engine) SetNameMapField(name string) {
	if name != "" {
		e.nameMapField = name
	}
}

// Dir returns the output directory
func (e *Engine) Dir() string {
	return e.dir
}

// Recover processes every embedded file of src. Item failures are recorded and
// do not stop the pass; stage failures produce a single error line.
func (e *Engine) Recover(src Source, fields filing.FormFields) Report {
	var report Report

	if src == nil {
		return stageFailure(errors.New("no attachment source available"))
	}

	if err := e.fs.MkdirAll(e.dir, DefaultDirPerm); err != nil {
		e.logger.Warn("cannot create attachment directory", zap.String("dir", e.dir), zap.Error(err))
		return stageFailure(fmt.Errorf("cannot create directory %s: %w", e.dir, err))
	}

	count, err := src.Count()
	if err != nil {
		e.logger.Warn("cannot enumerate attachments", zap.Error(err))
		return stageFailure(err)
	}

	if count == 0 {
		report.Lines = append(report.Lines, NoAttachmentsLine)
		return report
	}

	names := NameMapFromFields(fields, e.nameMapField)
	used := make(map[string]bool, count)

	for i := 0; i < count; i++ {
		rec := e.recoverOne(src, i, names, used)
		if rec.Err != nil {
			e.logger.Warn("attachment extraction failed", zap.Int("index", i), zap.Error(rec.Err))
		} else {
			used[rec.Filename] = true
			e.logger.Info("attachment extracted",
				zap.Int("index", i),
				zap.String("file", rec.Filename),
				zap.String("class", string(rec.Class)))
		}
		report.Records = append(report.Records, rec)
		report.Lines = append(report.Lines, rec.Summary())
	}

	return report
}

func stageFailure(err error) Report {
	return Report{
		Err:   err,
		Lines: []string{fmt.Sprintf("Error extracting attachments: %v", err)},
	}
}

// recoverOne never panics; malformed objects surface as the record error.
func (e *Engine) recoverOne(src Source, index int, names map[string]string, used map[string]bool) (rec Record) {
	rec.Index = index
	defer func() {
		if r := recover(); r != nil {
			rec.Err = fmt.Errorf("malformed attachment: %v", r)
		}
	}()

	stored, err := src.Name(index)
	if err != nil {
		rec.Err = err
		return rec
	}
	if strings.TrimSpace(stored) == "" {
		stored = PlaceholderName(index) + pdfExtension
	}
	e.logger.Debug("raw attachment name", zap.Int("index", index), zap.String("name", stored))

	rec.StoredName = stored
	rec.DisplayName = DisplayName(stored, names)
	rec.Filename = uniqueName(SanitizeFilename(rec.DisplayName, index), index, used)

	data, err := src.Payload(index)
	if err != nil {
		rec.Err = err
		return rec
	}

	rec.Path = filepath.Join(e.dir, rec.Filename)
	if err := writeFile(e.fs, rec.Path, data); err != nil {
		rec.Err = err
		return rec
	}

	rec.Size = len(data)
	rec.Class = Classify(rec.Filename)
	return rec
}

// uniqueName keeps two attachments that sanitize to the same name from
// overwriting each other.
func uniqueName(name string, index int, used map[string]bool) string {
	if !used[name] {
		return name
	}
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, pdfExtension), index, pdfExtension)
}

func writeFile(fs afero.Fs, path string, data []byte) (err error) {
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, defaultFilePerm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
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
