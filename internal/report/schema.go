package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/a3tai/mcp-filing-extractor/internal/filing"
)

// ErrInvalidRecord is returned when a record does not satisfy the schema
var ErrInvalidRecord = errors.New("invalid filing record")

const schemaURL = "mem://report/record.schema.json"

//go:embed record.schema.json
var recordSchema []byte

var (
	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error
)

func load() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(recordSchema)); err != nil {
		loadErr = err
		return
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		loadErr = err
		return
	}
	schema = s
}

// ValidateRecord checks that the record carries every canonical field and
// that none of them is blank.
func ValidateRecord(record filing.CanonicalRecord) error {
	once.Do(load)
	if loadErr != nil {
		return fmt.Errorf("failed to load record schema: %w", loadErr)
	}

	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}
