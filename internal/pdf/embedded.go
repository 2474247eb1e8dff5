package pdf

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// attachmentLoader reads every embedded file of a document
type attachmentLoader func(rs io.ReadSeeker) ([]model.Attachment, error)

// loadAttachments returns no attachments, and no error, for a document
// without an EmbeddedFiles name tree.
func loadAttachments(rs io.ReadSeeker) ([]model.Attachment, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.Cmd = model.EXTRACTATTACHMENTS

	ctx, err := api.ReadAndValidate(rs, conf)
	if err != nil {
		return nil, err
	}

	stubs, err := ctx.ListAttachments()
	if err != nil {
		return nil, err
	}
	if len(stubs) == 0 {
		return nil, nil
	}

	return ctx.ExtractAttachments(nil)
}

// EmbeddedFiles enumerates the files embedded in a PDF's name tree. The
// document is read on the first call to Count.
type EmbeddedFiles struct {
	path string
	load attachmentLoader

	once  sync.Once
	items []model.Attachment
	err   error
}

// NewEmbeddedFiles creates a lazy attachment source for path
func NewEmbeddedFiles(path string) *EmbeddedFiles {
	return &EmbeddedFiles{path: path, load: loadAttachments}
}

func (e *EmbeddedFiles) init() {
	e.once.Do(func() {
		f, err := os.Open(e.path)
		if err != nil {
			e.err = fmt.Errorf("failed to open PDF file: %w", err)
			return
		}
		defer f.Close()

		e.items, e.err = e.load(f)
		if e.err != nil {
			e.err = fmt.Errorf("failed to read embedded files: %w", e.err)
		}
	})
}

// Count returns the number of embedded files
func (e *EmbeddedFiles) Count() (int, error) {
	e.init()
	if e.err != nil {
		return 0, e.err
	}
	return len(e.items), nil
}

// Name returns the stored name of the file at index, falling back to its
// name tree key when the file specification has none.
func (e *EmbeddedFiles) Name(index int) (string, error) {
	a, err := e.item(index)
	if err != nil {
		return "", err
	}
	if a.FileName != "" {
		return a.FileName, nil
	}
	return a.ID, nil
}

// Payload returns the decoded bytes of the file at index
func (e *EmbeddedFiles) Payload(index int) ([]byte, error) {
	a, err := e.item(index)
	if err != nil {
		return nil, err
	}
	if a.Reader == nil {
		return nil, fmt.Errorf("attachment %d has no content stream", index)
	}
	data, err := io.ReadAll(a.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %d: %w", index, err)
	}
	return data, nil
}

func (e *EmbeddedFiles) item(index int) (model.Attachment, error) {
	e.init()
	if e.err != nil {
		return model.Attachment{}, e.err
	}
	if index < 0 || index >= len(e.items) {
		return model.Attachment{}, fmt.Errorf("attachment index %d out of range", index)
	}
	return e.items[index], nil
}
