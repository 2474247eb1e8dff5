package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-filing-extractor/internal/attachments"
	"github.com/a3tai/mcp-filing-extractor/internal/config"
	"github.com/a3tai/mcp-filing-extractor/internal/filing"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf/pdftest"
	"github.com/a3tai/mcp-filing-extractor/internal/publish"
	"github.com/a3tai/mcp-filing-extractor/internal/report"
)

const filingText = `FORM NO. ADT-1
Corporate identity number (CIN): L17110MH1973PLC019786
Name of the company
RELIANCE INDUSTRIES LIMITED
Address of the registered office
3rd Floor, Maker Chambers IV, Nariman Point, Mumbai
Reappointment
Name of the auditor or auditor's firm
DELOITTE HASKINS & SELLS LLP
Address of the Auditor
One International Center, Tower 3, Mumbai
Membership Number of auditor or auditor's firm's registration number
117366W
Date of appointment
29/09/2023
`

type fakeDoc struct {
	text     string
	fields   filing.FormFields
	src      attachments.Source
	warnings []string
}

func (d fakeDoc) Text() string { return d.text }
func (d fakeDoc) FormFields() filing.FormFields { return d.fields }
func (d fakeDoc) Attachments() attachments.Source { return d.src }
func (d fakeDoc) Warnings() []string { return d.warnings }

type fakeSource struct {
	names    []string
	payloads [][]byte
	countErr error
}

func (s fakeSource) Count() (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.names), nil
}

func (s fakeSource) Name(i int) (string, error) { return s.names[i], nil }

func (s fakeSource) Payload(i int) ([]byte, error) { return s.payloads[i], nil }

func opener(doc Document) Opener {
	return func(string) (Document, error) { return doc, nil }
}

func testOptions(fs afero.Fs, doc Document) Options {
	return Options{
		Input:          "adt1.pdf",
		RecordPath:     "out/output.json",
		SummaryPath:    "out/summary.txt",
		AttachmentsDir: "out/attachments",
		Summary:        filing.SummaryOptions{Period: "2022-23", FormID: "ADT-1"},
		FS:             fs,
		Open:           opener(doc),
	}
}

func TestRun_CompleteFiling(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := fakeDoc{
		text:   filingText,
		fields: filing.NewFormFields("CompanyName_C", "Reliance Industries Ltd"),
		src:    fakeSource{names: []string{"Consent Letter.pdf"}, payloads: [][]byte{[]byte("%PDF-consent")}},
	}

	result, err := Run(context.Background(), testOptions(fs, doc))
	require.NoError(t, err)

	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "adt1.pdf", result.Source)
	assert.Equal(t, "Reliance Industries Ltd", result.Record.CompanyName)
	assert.Equal(t, filing.TierForm, result.Trace[filing.FieldCompanyName])
	assert.Equal(t, "L17110MH1973PLC019786", result.Record.CIN)
	assert.Equal(t, filing.TierText, result.Trace[filing.FieldCIN])

	record, err := afero.ReadFile(fs, "out/output.json")
	require.NoError(t, err)
	want, err := report.EncodeRecord(result.Record)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(record))

	summary, err := afero.ReadFile(fs, "out/summary.txt")
	require.NoError(t, err)
	assert.Equal(t, result.Narrative(), string(summary))
	assert.Contains(t, string(summary), "Reliance Industries Ltd has reappointment DELOITTE HASKINS & SELLS LLP")
	assert.Contains(t, string(summary), "\n\nAttachment Summaries:\n- Attachment 'Consent_Letter.pdf' extracted.")

	payload, err := afero.ReadFile(fs, "out/attachments/Consent_Letter.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-consent", string(payload))

	require.Len(t, result.Attachments, 1)
	assert.Equal(t, attachments.ClassConsentLetter, result.Attachments[0].Class)
	assert.Empty(t, result.Warnings)
}

func TestRun_OpenFailureWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	opts := testOptions(fs, nil)
	opts.Open = func(string) (Document, error) {
		return nil, pdf.ErrFileNotFound
	}

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pdf.ErrFileNotFound))

	for _, p := range []string{"out/output.json", "out/summary.txt", "out/attachments"} {
		exists, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.False(t, exists, p)
	}
}

func TestRun_NoSignal(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := fakeDoc{src: fakeSource{}}

	result, err := Run(context.Background(), testOptions(fs, doc))
	require.NoError(t, err)

	for _, fv := range result.Record.Fields() {
		assert.Equal(t, filing.Sentinel, fv.Value, "field %s", fv.Key)
	}
	assert.Equal(t, []string{attachments.NoAttachmentsLine}, result.AttachmentLines)

	summary, err := afero.ReadFile(fs, "out/summary.txt")
	require.NoError(t, err)
	assert.Contains(t, string(summary), "The company has appointed an unspecified auditor")
	assert.Contains(t, string(summary), "- No embedded attachments found in the PDF.\n")
}

func TestRun_PDFWithoutAttachments(t *testing.T) {
	input := pdftest.WriteFile(t, "adt1.pdf", pdftest.Document([]string{"FORM NO. ADT-1"}, []pdftest.Field{
		{Name: "CompanyName_C", Value: "Acme Private Limited"},
	}))
	out := t.TempDir()

	result, err := Run(context.Background(), Options{
		Input:          input,
		RecordPath:     filepath.Join(out, "output.json"),
		SummaryPath:    filepath.Join(out, "summary.txt"),
		AttachmentsDir: filepath.Join(out, "attachments"),
		FS:             afero.NewOsFs(),
		Open:           PDFOpener(config.DefaultMaxFileSize, nil),
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Private Limited", result.Record.CompanyName)
	assert.Equal(t, []string{attachments.NoAttachmentsLine}, result.AttachmentLines)
	assert.Empty(t, result.Warnings)

	summary, err := os.ReadFile(filepath.Join(out, "summary.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(summary), "Attachment Summaries:\n- No embedded attachments found in the PDF.\n"),
		"unexpected summary:\n%s", summary)
}

func TestRun_AttachmentStageFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := fakeDoc{
		text:     filingText,
		src:      fakeSource{countErr: errors.New("corrupt name tree")},
		warnings: []string{"page 2: bad stream"},
	}

	result, err := Run(context.Background(), testOptions(fs, doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Error extracting attachments: corrupt name tree"}, result.AttachmentLines)
	assert.Equal(t, []string{"page 2: bad stream", "corrupt name tree"}, result.Warnings)

	summary, err := afero.ReadFile(fs, "out/summary.txt")
	require.NoError(t, err)
	assert.Contains(t, string(summary), "- Error extracting attachments: corrupt name tree\n")
}

func TestRun_Rerun(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := fakeDoc{text: filingText, src: fakeSource{}}

	first, err := Run(context.Background(), testOptions(fs, doc))
	require.NoError(t, err)
	second, err := Run(context.Background(), testOptions(fs, doc))
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	summary, err := afero.ReadFile(fs, "out/summary.txt")
	require.NoError(t, err)
	assert.Equal(t, second.Narrative(), string(summary), "summary is replaced, not appended to")
}

type recordingSink struct {
	mu  sync.Mutex
	got []publish.Artifacts
	err error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Publish(ctx context.Context, a publish.Artifacts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, a)
	return s.err
}

func TestRun_Publishes(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := fakeDoc{
		text: filingText,
		src:  fakeSource{names: []string{"resolution.pdf"}, payloads: [][]byte{[]byte("r")}},
	}
	sink := &recordingSink{}
	failing := &recordingSink{err: errors.New("quota exceeded")}

	opts := testOptions(fs, doc)
	opts.Publisher = publish.NewPublisher(nil, sink, failing)

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, sink.got, 1)
	a := sink.got[0]
	assert.Equal(t, result.RunID, a.RunID)
	assert.Equal(t, result.Record, a.Record)
	assert.Equal(t, result.Narrative(), a.Summary)
	assert.Equal(t, []publish.File{
		{Name: "output.json", Path: "out/output.json"},
		{Name: "summary.txt", Path: "out/summary.txt"},
		{Name: "attachments/resolution.pdf", Path: filepath.Join("out/attachments", "resolution.pdf")},
	}, a.Files)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "quota exceeded")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testOptions(afero.NewMemMapFs(), fakeDoc{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Input = "adt1.pdf"
	cfg.OutputDir = "out"

	opts, err := OptionsFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "output.json"), opts.RecordPath)
	assert.Equal(t, filepath.Join("out", "summary.txt"), opts.SummaryPath)
	assert.Equal(t, filepath.Join("out", "attachments"), opts.AttachmentsDir)
	assert.Equal(t, "HiddenList_L", opts.NameMapField)
	assert.Nil(t, opts.Specs)
	assert.NotNil(t, opts.Open)

	specs := filepath.Join(t.TempDir(), "fields.toml")
	require.NoError(t, os.WriteFile(specs, []byte("[[field]]\nkey = \"cin\"\ncandidates = [\"CIN_X\"]\n"), 0o600))
	cfg.FieldSpecs = specs

	opts, err = OptionsFromConfig(cfg, nil)
	require.NoError(t, err)
	spec, ok := filing.SpecFor(opts.Specs, filing.FieldCIN)
	require.True(t, ok)
	assert.Equal(t, []string{"CIN_X"}, spec.Candidates)

	require.NoError(t, os.WriteFile(specs, []byte("[[field]]\nkey = \"nope\"\n"), 0o600))
	_, err = OptionsFromConfig(cfg, nil)
	assert.Error(t, err)
}
