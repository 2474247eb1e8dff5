package filing

import "strings"

// Strategy proposes a value for a field from the two extraction channels.
// It reports false when it has nothing to offer.
type Strategy func(fields FormFields, text string) (string, bool)

// Tier is a named step of a field's fallback chain
type Tier struct {
	Name    string
	Resolve Strategy
}

// Tier names as they appear in resolution traces
const (
	TierForm      = "form"
	TierText      = "text"
	TierHeuristic = "heuristic"
	TierSentinel  = "sentinel"
)

// FormTier matches the field spec's candidate identifiers against the form layer.
// Specs with Components concatenate every present component instead of taking
// the single matched value.
func FormTier(spec FieldSpec) Tier {
	return Tier{Name: TierForm, Resolve: func(fields FormFields, _ string) (string, bool) {
		for _, candidate := range spec.Candidates {
			_, value, ok := fields.FirstContaining(candidate)
			if !ok || isBlank(value) {
				continue
			}
			if len(spec.Components) > 0 {
				return joinComponents(fields, spec.Components)
			}
			return strings.TrimSpace(value), true
		}
		return "", false
	}}
}

func joinComponents(fields FormFields, components []string) (string, bool) {
	parts := make([]string, 0, len(components))
	for _, component := range components {
		if _, value, ok := fields.FirstContaining(component); ok && !isBlank(value) {
			parts = append(parts, strings.TrimSpace(value))
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ComponentSeparator), true
}

// TextTier applies the field spec's pattern to the page text and returns the first
// capture group, trimmed.
func TextTier(spec FieldSpec) Tier {
	return Tier{Name: TierText, Resolve: func(_ FormFields, text string) (string, bool) {
		if spec.Pattern == nil {
			return "", false
		}
		m := spec.Pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			return "", false
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			return "", false
		}
		if spec.Accept != nil && !spec.Accept(value) {
			return "", false
		}
		return value, true
	}}
}

// PhraseHeuristic yields value whenever the page text contains phrase.
// Matching is case-sensitive.
func PhraseHeuristic(phrase, value string) Tier {
	return Tier{Name: TierHeuristic, Resolve: func(_ FormFields, text string) (string, bool) {
		if phrase != "" && strings.Contains(text, phrase) {
			return value, true
		}
		return "", false
	}}
}

// DefaultHeuristics are the weak fallbacks for fields that are otherwise
// unresolvable without form data. The year marker is a proxy for a renewal
// filing that references a tenure starting in 2016.
func DefaultHeuristics() map[FieldKey][]Tier {
	return map[FieldKey][]Tier{
		FieldAuditorName:     {PhraseHeuristic("Auditor's Firm", "Auditor's Firm")},
		FieldAppointmentType: {PhraseHeuristic("2016", "Reappointment")},
	}
}
