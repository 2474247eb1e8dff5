package publish

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-filing-extractor/internal/config"
	"github.com/a3tai/mcp-filing-extractor/internal/filing"
)

func sampleArtifacts() Artifacts {
	return Artifacts{
		RunID:  "run-1",
		Source: "adt1.pdf",
		Record: filing.CanonicalRecord{
			CompanyName:      "Acme Private Limited",
			CIN:              "U12345MH2010PTC123456",
			RegisteredOffice: filing.Sentinel,
			AppointmentDate:  "29/09/2023",
			AuditorName:      "Rao & Co",
			AuditorAddress:   filing.Sentinel,
			AuditorFRN:       "123456W",
			AppointmentType:  "Appointment",
		},
		Summary:         "Acme Private Limited has appointed Rao & Co.",
		AttachmentLines: []string{"No embedded attachments found in the PDF."},
		Files: []File{
			{Name: "output.json", Path: "out/output.json"},
			{Name: "summary.txt", Path: "out/summary.txt"},
		},
		CreatedAt: time.Date(2023, 9, 29, 10, 0, 0, 0, time.UTC),
	}
}

type fakeSink struct {
	name  string
	err   error
	mu    sync.Mutex
	calls int
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Publish(ctx context.Context, a Artifacts) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func TestPublisher_FansOut(t *testing.T) {
	ok := &fakeSink{name: "ok"}
	bad := &fakeSink{name: "bad", err: errors.New("unavailable")}
	other := &fakeSink{name: "other"}

	errs := NewPublisher(nil, ok, bad, other).Publish(context.Background(), sampleArtifacts())

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "publish to bad")
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, other.calls, "a failing sink does not stop the others")
}

func TestPublisher_Empty(t *testing.T) {
	var p *Publisher
	assert.Equal(t, 0, p.Len())
	assert.Nil(t, p.Publish(context.Background(), sampleArtifacts()))
	assert.Nil(t, NewPublisher(nil).Publish(context.Background(), sampleArtifacts()))
}

type memObject struct {
	bytes.Buffer
	store  *memStore
	object string
}

func (m *memObject) Close() error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.objects[m.object] = m.String()
	return nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *memStore) NewWriter(ctx context.Context, object string) io.WriteCloser {
	return &memObject{store: m, object: object}
}

func TestGCSSink_Publish(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/output.json", []byte("{}"), 0o640))
	require.NoError(t, afero.WriteFile(fs, "out/summary.txt", []byte("narrative"), 0o640))

	store := &memStore{objects: map[string]string{}}
	sink := NewGCSSink(store, fs, "")
	assert.Equal(t, "gcs", sink.Name())

	a := sampleArtifacts()
	a.Files = append(a.Files, File{Name: "attachments/Consent_Letter.pdf", Path: "out/attachments/Consent_Letter.pdf"})
	require.NoError(t, afero.WriteFile(fs, "out/attachments/Consent_Letter.pdf", []byte("%PDF"), 0o640))

	require.NoError(t, sink.Publish(context.Background(), a))

	var names []string
	for name := range store.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"filings/run-1/attachments/Consent_Letter.pdf",
		"filings/run-1/output.json",
		"filings/run-1/summary.txt",
	}, names)
	assert.Equal(t, "narrative", store.objects["filings/run-1/summary.txt"])
}

func TestGCSSink_MissingFile(t *testing.T) {
	store := &memStore{objects: map[string]string{}}
	sink := NewGCSSink(store, afero.NewMemMapFs(), "custom")

	err := sink.Publish(context.Background(), sampleArtifacts())
	assert.Error(t, err)
	assert.Equal(t, "custom/run-1/output.json", sink.ObjectName("run-1", "output.json"))
}

type fakeDocs struct {
	collection string
	id         string
	data       map[string]interface{}
	err        error
}

func (f *fakeDocs) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	f.collection, f.id, f.data = collection, id, data
	return f.err
}

// brokenObject fails every write and only commits on Close when its context
// is still live, like a storage.Writer.
type brokenObject struct {
	ctx   context.Context
	store *brokenStore
}

func (b *brokenObject) Write(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func (b *brokenObject) Close() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	if err := b.ctx.Err(); err != nil {
		b.store.aborted++
		return err
	}
	b.store.committed++
	return nil
}

type brokenStore struct {
	mu        sync.Mutex
	committed int
	aborted   int
}

func (b *brokenStore) NewWriter(ctx context.Context, object string) io.WriteCloser {
	return &brokenObject{ctx: ctx, store: b}
}

func TestGCSSink_FailedCopyAbortsObject(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/output.json", []byte("{}"), 0o640))
	require.NoError(t, afero.WriteFile(fs, "out/summary.txt", []byte("narrative"), 0o640))

	store := &brokenStore{}
	sink := NewGCSSink(store, fs, "")

	err := sink.Publish(context.Background(), sampleArtifacts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Zero(t, store.committed, "no truncated object may be committed")
	assert.Positive(t, store.aborted)
}

func TestFirestoreSink_Publish(t *testing.T) {
	docs := &fakeDocs{}
	sink := NewFirestoreSink(docs, "filings")

	require.NoError(t, sink.Publish(context.Background(), sampleArtifacts()))
	assert.Equal(t, "filings", docs.collection)
	assert.Equal(t, "run-1", docs.id)
	assert.Equal(t, "U12345MH2010PTC123456", docs.data["cin"])
	assert.Equal(t, filing.Sentinel, docs.data["registered_office"])
	assert.Equal(t, "adt1.pdf", docs.data["source"])
	assert.Equal(t, []string{"No embedded attachments found in the PDF."}, docs.data["attachment_lines"])

	docs.err = errors.New("permission denied")
	err := sink.Publish(context.Background(), sampleArtifacts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filings/run-1")
}

type fakeExec struct {
	sql  []string
	args [][]any
	err  error
}

func (f *fakeExec) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, arguments)
	return pgconn.CommandTag{}, f.err
}

func TestPostgresSink_Publish(t *testing.T) {
	db := &fakeExec{}
	sink := NewPostgresSink(db)

	require.NoError(t, sink.EnsureSchema(context.Background()))
	require.NoError(t, sink.Publish(context.Background(), sampleArtifacts()))

	require.Len(t, db.sql, 2)
	assert.Contains(t, db.sql[0], "CREATE TABLE IF NOT EXISTS filing_records")
	assert.Contains(t, db.sql[1], "ON CONFLICT (run_id) DO UPDATE")

	args := db.args[1]
	require.Len(t, args, 13)
	assert.Equal(t, "run-1", args[0])
	assert.Equal(t, "Acme Private Limited", args[2])
	assert.Equal(t, "Appointment", args[9])
}

func TestPostgresSink_Error(t *testing.T) {
	db := &fakeExec{err: errors.New("connection refused")}
	sink := NewPostgresSink(db)

	assert.Error(t, sink.EnsureSchema(context.Background()))
	a := sampleArtifacts()
	a.AttachmentLines = nil
	err := sink.Publish(context.Background(), a)
	require.Error(t, err)
	assert.Equal(t, []string{}, db.args[1][11])
}

func TestFromConfig_NoSinks(t *testing.T) {
	p, closeFn, err := FromConfig(context.Background(), config.DefaultConfig(), afero.NewMemMapFs(), nil)
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, 0, p.Len())
}
