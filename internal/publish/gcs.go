package publish

import (
	"context"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// DefaultObjectPrefix is the object name prefix for uploaded runs
const DefaultObjectPrefix = "filings"

// ObjectStore opens writers for named objects
type ObjectStore interface {
	NewWriter(ctx context.Context, object string) io.WriteCloser
}

type bucketStore struct {
	bucket *storage.BucketHandle
}

func (b bucketStore) NewWriter(ctx context.Context, object string) io.WriteCloser {
	return b.bucket.Object(object).NewWriter(ctx)
}

// BucketStore adapts a Cloud Storage bucket to ObjectStore
func BucketStore(client *storage.Client, bucket string) ObjectStore {
	return bucketStore{bucket: client.Bucket(bucket)}
}

// GCSSink uploads the output files of a run under <prefix>/<run id>/
type GCSSink struct {
	store  ObjectStore
	fs     afero.Fs
	prefix string
	limit  int
}

// NewGCSSink creates a sink reading local files from fs
func NewGCSSink(store ObjectStore, fs afero.Fs, prefix string) *GCSSink {
	if prefix == "" {
		prefix = DefaultObjectPrefix
	}
	return &GCSSink{store: store, fs: fs, prefix: prefix, limit: defaultConcurrency}
}

// Name implements Sink
func (s *GCSSink) Name() string { return "gcs" }

// ObjectName returns the object a run file is uploaded to
func (s *GCSSink) ObjectName(runID, name string) string {
	return path.Join(s.prefix, runID, name)
}

// Publish implements Sink
func (s *GCSSink) Publish(ctx context.Context, a Artifacts) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)

	for _, f := range a.Files {
		g.Go(func() error {
			object := s.ObjectName(a.RunID, f.Name)
			if err := s.upload(gctx, f.Path, object); err != nil {
				return fmt.Errorf("failed to upload %s: %w", f.Name, err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *GCSSink) upload(ctx context.Context, localPath, object string) error {
	f, err := s.fs.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// Cancelling the writer's context before Close discards the object.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.store.NewWriter(wctx, object)
	if _, err := io.Copy(w, f); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	return w.Close()
}
