// Package publish copies the outputs of a run to optional external stores.
package publish

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-filing-extractor/internal/filing"
)

// defaultConcurrency bounds sinks and uploads running at the same time
const defaultConcurrency = 4

// File is a local output to copy, Name is its path relative to the run
type File struct {
	Name string
	Path string
}

// Artifacts is everything a sink may publish for one run
type Artifacts struct {
	RunID           string
	Source          string
	Record          filing.CanonicalRecord
	Summary         string
	AttachmentLines []string
	Files           []File
	CreatedAt       time.Time
}

// Sink publishes the artifacts of a run to one store
type Sink interface {
	Name() string
	Publish(ctx context.Context, a Artifacts) error
}

// Publisher fans artifacts out to every configured sink
type Publisher struct {
	sinks  []Sink
	limit  int
	logger *zap.Logger
}

// NewPublisher creates a publisher for sinks
func NewPublisher(logger *zap.Logger, sinks ...Sink) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{sinks: sinks, limit: defaultConcurrency, logger: logger}
}

// Len returns the number of sinks
func (p *Publisher) Len() int {
	if p == nil {
		return 0
	}
	return len(p.sinks)
}

// Publish runs every sink and returns one error per failed sink. A failing
// sink does not cancel the others.
func (p *Publisher) Publish(ctx context.Context, a Artifacts) []error {
	if p.Len() == 0 {
		return nil
	}

	errs := make([]error, len(p.sinks))
	var g errgroup.Group
	g.SetLimit(p.limit)

	for i, sink := range p.sinks {
		g.Go(func() error {
			start := time.Now()
			if err := sink.Publish(ctx, a); err != nil {
				errs[i] = fmt.Errorf("publish to %s: %w", sink.Name(), err)
				p.logger.Warn("publish failed",
					zap.String("sink", sink.Name()),
					zap.String("run_id", a.RunID),
					zap.Error(err))
				return nil
			}
			p.logger.Info("published",
				zap.String("sink", sink.Name()),
				zap.String("run_id", a.RunID),
				zap.Duration("took", time.Since(start)))
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return failed
}

// recordDocument is the flattened form stored by document sinks
func recordDocument(a Artifacts) map[string]interface{} {
	doc := make(map[string]interface{}, len(filing.AllFields)+5)
	for _, fv := range a.Record.Fields() {
		doc[string(fv.Key)] = fv.Value
	}
	doc["run_id"] = a.RunID
	doc["source"] = a.Source
	doc["summary"] = a.Summary
	doc["attachment_lines"] = a.AttachmentLines
	doc["created_at"] = a.CreatedAt
	return doc
}
