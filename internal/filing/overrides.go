package filing

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// specFile is the on-disk shape of a field catalogue override:
//
//	[[field]]
//	key = "cin"
//	candidates = ["CIN_C", "CorporateIdentity"]
//	pattern = 'CIN\s*[:\s]*([A-Z0-9]{21})'
type specFile struct {
	Fields []specEntry `toml:"field"`
}

type specEntry struct {
	Key        string   `toml:"key"`
	Candidates []string `toml:"candidates"`
	Components []string `toml:"components"`
	Pattern    string   `toml:"pattern"`
}

// LoadSpecOverrides reads a TOML catalogue from path and merges it over base.
// Only the attributes present in an entry replace the base spec; the
// acceptance check of a base spec is kept.
func LoadSpecOverrides(path string, base []FieldSpec) ([]FieldSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field specs: %w", err)
	}
	return ParseSpecOverrides(data, base)
}

// ParseSpecOverrides is LoadSpecOverrides over an in-memory document
func ParseSpecOverrides(data []byte, base []FieldSpec) ([]FieldSpec, error) {
	var file specFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse field specs: %w", err)
	}

	merged := make([]FieldSpec, len(base))
	copy(merged, base)

	for i, entry := range file.Fields {
		key := FieldKey(entry.Key)
		if !IsCanonical(key) {
			return nil, fmt.Errorf("field %d: unknown key %q", i, entry.Key)
		}

		idx := -1
		for j := range merged {
			if merged[j].Key == key {
				idx = j
				break
			}
		}
		if idx < 0 {
			merged = append(merged, FieldSpec{Key: key})
			idx = len(merged) - 1
		}

		spec := merged[idx]
		if entry.Candidates != nil {
			spec.Candidates = entry.Candidates
		}
		if entry.Components != nil {
			spec.Components = entry.Components
		}
		if entry.Pattern != "" {
			re, err := CompilePattern(entry.Pattern)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			spec.Pattern = re
		}
		merged[idx] = spec
	}

	return merged, nil
}
