package filing

import "strings"

// FormFields is the interactive-field layer of a document: identifier to
// current value, in document order. Identifiers are opaque and usually fully
// qualified (for example "data[0].page1[0].CIN_C[0]").
type FormFields struct {
	names  []string
	values map[string]string
}

// NewFormFields builds a collection from alternating name/value pairs.
// A trailing name without a value is stored with an empty value.
func NewFormFields(pairs ...string) FormFields {
	var ff FormFields
	for i := 0; i < len(pairs); i += 2 {
		value := ""
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		ff.Set(pairs[i], value)
	}
	return ff
}

// Set records value for name. A repeated name keeps its first position and
// takes the latest value.
func (f *FormFields) Set(name, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, exists := f.values[name]; !exists {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

// Get returns the value stored under the exact identifier name
func (f FormFields) Get(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Len returns the number of distinct identifiers
func (f FormFields) Len() int {
	return len(f.names)
}

// Names returns identifiers in document order
func (f FormFields) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// FirstContaining returns the first identifier, in document order, that
// contains substr and carries a non-blank value.
func (f FormFields) FirstContaining(substr string) (name, value string, ok bool) {
	if substr == "" {
		return "", "", false
	}
	for _, n := range f.names {
		if v := f.values[n]; !isBlank(v) && strings.Contains(n, substr) {
			return n, v, true
		}
	}
	return "", "", false
}
