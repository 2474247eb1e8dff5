package attachments

import (
	"strings"

	"github.com/a3tai/mcp-filing-extractor/internal/filing"
)

// DefaultNameMapField is the hidden list widget that pairs attachment display
// names with their internal identifiers.
const DefaultNameMapField = "HiddenList_L"

// ParseNameMap decodes a colon-delimited list of display-name/identifier pairs
// ("Consent Letter:attachment_0:Board Resolution:attachment_1") into a map
// keyed by identifier. Blank tokens are dropped before pairing.
func ParseNameMap(encoded string) map[string]string {
	var tokens []string
	for _, tok := range strings.Split(encoded, ":") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}

	names := make(map[string]string)
	for i := 0; i+1 < len(tokens); i += 2 {
		names[tokens[i+1]] = tokens[i]
	}
	return names
}

// NameMapFromFields locates the name-map widget in the form layer and parses
// it. An exact identifier match is preferred over a containment match.
func NameMapFromFields(fields filing.FormFields, fieldName string) map[string]string {
	if fieldName == "" {
		fieldName = DefaultNameMapField
	}
	if v, ok := fields.Get(fieldName); ok && strings.TrimSpace(v) != "" {
		return ParseNameMap(v)
	}
	if _, v, ok := fields.FirstContaining(fieldName); ok {
		return ParseNameMap(v)
	}
	return map[string]string{}
}

// storedStem returns the part of a stored name before its first dot.
func storedStem(name string) string {
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

// DisplayName resolves the human-meaningful name of a stored attachment.
func DisplayName(stored string, names map[string]string) string {
	if display, ok := names[storedStem(stored)]; ok {
		return display
	}
	return stored
}
