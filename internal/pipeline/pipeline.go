// Package pipeline runs one filing through extraction, resolution, reporting
// and publishing.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-filing-extractor/internal/attachments"
	"github.com/a3tai/mcp-filing-extractor/internal/config"
	"github.com/a3tai/mcp-filing-extractor/internal/filing"
	"github.com/a3tai/mcp-filing-extractor/internal/logging"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf"
	"github.com/a3tai/mcp-filing-extractor/internal/publish"
	"github.com/a3tai/mcp-filing-extractor/internal/report"
)

// textPreviewLen is how much extracted text is logged at debug level
const textPreviewLen = 1000

// Document is an opened filing
type Document interface {
	Text() string
	FormFields() filing.FormFields
	Attachments() attachments.Source
	Warnings() []string
}

// Opener opens the filing at path. Its error aborts the run before any
// output is written.
type Opener func(path string) (Document, error)

// PDFOpener opens filings with the PDF document accessor
func PDFOpener(maxFileSize int64, logger *zap.Logger) Opener {
	return func(path string) (Document, error) {
		doc, err := pdf.Open(path, pdf.OpenOptions{MaxFileSize: maxFileSize, Logger: logger})
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// Options configure one run
type Options struct {
	Input          string
	RecordPath     string
	SummaryPath    string
	AttachmentsDir string
	NameMapField   string
	Summary        filing.SummaryOptions
	Specs          []filing.FieldSpec // nil selects filing.DefaultSpecs

	FS        afero.Fs
	Open      Opener
	Publisher *publish.Publisher
	Logger    *zap.Logger
}

// OptionsFromConfig builds run options from cfg, loading field spec
// overrides when configured.
func OptionsFromConfig(cfg *config.Config, logger *zap.Logger) (Options, error) {
	opts := Options{
		Input:          cfg.Input,
		RecordPath:     cfg.OutputPath(cfg.RecordFile),
		SummaryPath:    cfg.OutputPath(cfg.SummaryFile),
		AttachmentsDir: cfg.OutputPath(cfg.AttachmentsDir),
		NameMapField:   cfg.NameMapField,
		Summary:        filing.SummaryOptions{Period: cfg.FilingPeriod, FormID: cfg.FormID},
		FS:             afero.NewOsFs(),
		Open:           PDFOpener(cfg.MaxFileSize, logger),
		Logger:         logger,
	}

	if cfg.FieldSpecs != "" {
		specs, err := filing.LoadSpecOverrides(cfg.FieldSpecs, filing.DefaultSpecs())
		if err != nil {
			return Options{}, err
		}
		opts.Specs = specs
	}

	return opts, nil
}

// Result describes a completed run
type Result struct {
	RunID           string                 `json:"run_id"`
	Source          string                 `json:"source"`
	Record          filing.CanonicalRecord `json:"record"`
	Trace           filing.Trace           `json:"trace"`
	Summary         string                 `json:"summary"`
	AttachmentLines []string               `json:"attachment_lines"`
	Attachments     []attachments.Record   `json:"attachments"`
	RecordPath      string                 `json:"record_path"`
	SummaryPath     string                 `json:"summary_path"`
	Warnings        []string               `json:"warnings,omitempty"`
}

// Narrative returns the summary followed by the attachment block, as written
// to the summary file.
func (r *Result) Narrative() string {
	return r.Summary + report.FormatAttachmentSummaries(r.AttachmentLines)
}

// Run processes opts.Input. Only input and output errors are returned;
// missing fields, attachment failures and publish failures degrade into the
// result.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.OrNop(opts.Logger)
	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	open := opts.Open
	if open == nil {
		open = PDFOpener(config.DefaultMaxFileSize, logger)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:       uuid.NewString(),
		Source:      opts.Input,
		RecordPath:  opts.RecordPath,
		SummaryPath: opts.SummaryPath,
	}
	logger = logger.With(zap.String("run_id", result.RunID))

	doc, err := open(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", opts.Input, err)
	}
	result.Warnings = append(result.Warnings, doc.Warnings()...)

	text := doc.Text()
	fields := doc.FormFields()
	logger.Debug("extracted text", zap.String("preview", pdf.Truncate(text, textPreviewLen)))
	logger.Debug("form field mapping", zap.Strings("names", fields.Names()), zap.Int("count", fields.Len()))

	resolver := filing.NewResolver(opts.Specs, filing.WithLogger(logger))
	result.Record, result.Trace = resolver.Resolve(text, fields)

	writer := report.NewWriter(fs, opts.RecordPath, opts.SummaryPath)
	if err := writer.WriteRecord(result.Record); err != nil {
		return nil, err
	}
	logger.Info("record written", zap.String("path", opts.RecordPath))

	result.Summary = filing.Summarize(result.Record, opts.Summary)
	if err := writer.WriteSummary(result.Summary); err != nil {
		return nil, err
	}

	engine := attachments.NewEngine(fs, opts.AttachmentsDir, logger)
	engine.SetNameMapField(opts.NameMapField)
	recovered := engine.Recover(doc.Attachments(), fields)
	result.Attachments = recovered.Records
	result.AttachmentLines = recovered.Lines
	if recovered.Err != nil {
		result.Warnings = append(result.Warnings, recovered.Err.Error())
	}

	if err := writer.AppendAttachmentSummaries(recovered.Lines); err != nil {
		return nil, err
	}
	logger.Info("summary written", zap.String("path", opts.SummaryPath), zap.Int("attachments", len(recovered.Saved())))

	if opts.Publisher.Len() > 0 {
		for _, err := range opts.Publisher.Publish(ctx, artifacts(result, opts, recovered)) {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}

	return result, nil
}

func artifacts(result *Result, opts Options, recovered attachments.Report) publish.Artifacts {
	files := []publish.File{
		{Name: filepath.Base(opts.RecordPath), Path: opts.RecordPath},
		{Name: filepath.Base(opts.SummaryPath), Path: opts.SummaryPath},
	}
	dir := filepath.Base(opts.AttachmentsDir)
	for _, rec := range recovered.Saved() {
		files = append(files, publish.File{Name: path.Join(dir, rec.Filename), Path: rec.Path})
	}

	return publish.Artifacts{
		RunID:           result.RunID,
		Source:          result.Source,
		Record:          result.Record,
		Summary:         result.Narrative(),
		AttachmentLines: result.AttachmentLines,
		Files:           files,
		CreatedAt:       time.Now().UTC(),
	}
}
