package filing

import (
	"fmt"
	"regexp"
	"strings"
)

// patternFlags applies to every text-tier pattern: case-insensitive and
// multiline, with '.' not crossing newlines.
const patternFlags = "(?im)"

// FieldSpec is the static resolution configuration of one canonical field
type FieldSpec struct {
	Key FieldKey

	// Candidates are identifier substrings tried in order against the form
	// field layer; the first candidate with a non-empty match wins.
	Candidates []string

	// Components, when set, switch the form tier to concatenation: every
	// component present in the form layer is joined with ComponentSeparator
	// in component order.
	Components []string

	// Pattern is the text-tier fallback; its first capture group is the value.
	Pattern *regexp.Regexp

	// Accept optionally constrains a text-tier capture. A rejected capture
	// counts as no match.
	Accept func(string) bool
}

// ComponentSeparator joins address components.
const ComponentSeparator = ", "

var cinFormat = regexp.MustCompile(`^[A-Z0-9]{21}$`)

// IsCIN reports whether s is a 21 character uppercase alphanumeric corporate
// identity number.
func IsCIN(s string) bool {
	return cinFormat.MatchString(s)
}

// auditorAddressComponents are the address widgets of the auditor section, in
// the order they are printed.
var auditorAddressComponents = []string{
	"permaddress2a_C",
	"permaddress2b_C",
	"City_C",
	"State_P",
	"Pin_C",
}

// DefaultSpecs returns the field catalogue for the auditor appointment form.
func DefaultSpecs() []FieldSpec {
	return []FieldSpec{
		{
			Key:        FieldCompanyName,
			Candidates: []string{"CompanyName_C", "Name of the company"},
			Pattern:    MustCompilePattern(`Name of the company\s*[:\s\n]*(.*?)(?:\n|$)`),
		},
		{
			Key:        FieldCIN,
			Candidates: []string{"CIN_C", "Corporate identity number"},
			Pattern:    MustCompilePattern(`Corporate identity number \(CIN\)\s*[:\s\n]*([A-Z0-9]{21})(?:\n|$)`),
			Accept:     IsCIN,
		},
		{
			Key:        FieldRegisteredOffice,
			Candidates: []string{"CompanyAdd_C", "Address of the registered office"},
			Pattern:    MustCompilePattern(`Address of the registered office\s*[:\s\n]*(.*?)(?:\n|$)`),
		},
		{
			Key:        FieldAppointmentDate,
			Candidates: []string{"DateAnnualGenMeet_D", "DateOfAppSect_D"},
			Pattern:    MustCompilePattern(`Date of appointment\s*[:\s\n]*(\d{2}/\d{2}/\d{4})(?:\n|$)`),
		},
		{
			Key:        FieldAuditorName,
			Candidates: []string{"NameAuditorFirm_C", "Name of the auditor"},
			Pattern:    MustCompilePattern(`Name of the auditor or auditor's firm\s*[:\s\n]*(.*?)(?:\n|$)`),
		},
		{
			Key:        FieldAuditorAddress,
			Candidates: append([]string(nil), auditorAddressComponents...),
			Components: append([]string(nil), auditorAddressComponents...),
			Pattern:    MustCompilePattern(`Address of the Auditor\s*[:\s\n]*(.*?)(?:\n|$)`),
		},
		{
			Key:        FieldAuditorFRN,
			Candidates: []string{"MemberShNum", "Membership Number"},
			Pattern: MustCompilePattern(
				`Membership Number of auditor or auditor's firm's registration number\s*[:\s\n]*(.*?)(?:\n|$)`),
		},
		{
			Key:        FieldAppointmentType,
			Candidates: []string{"DropDownList1"},
			Pattern:    MustCompilePattern(`(New Appointment|Reappointment)\s*(?:\n|$)`),
		},
	}
}

// CompilePattern compiles a text-tier expression with the standard flags.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(patternFlags + expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("pattern %q has no capture group", expr)
	}
	return re, nil
}

// MustCompilePattern is CompilePattern for static expressions
func MustCompilePattern(expr string) *regexp.Regexp {
	re, err := CompilePattern(expr)
	if err != nil {
		panic(err)
	}
	return re
}

// SpecFor returns the spec for key from specs
func SpecFor(specs []FieldSpec, key FieldKey) (FieldSpec, bool) {
	for _, s := range specs {
		if s.Key == key {
			return s, true
		}
	}
	return FieldSpec{}, false
}

// IsCanonical reports whether key names one of the canonical fields
func IsCanonical(key FieldKey) bool {
	for _, k := range AllFields {
		if k == key {
			return true
		}
	}
	return false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
