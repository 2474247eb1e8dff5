package filing

import (
	"fmt"
	"strings"
)

// Defaults for the filing population this tool was built around.
const (
	DefaultFilingPeriod = "2022-23"
	DefaultFormID       = "ADT-1"
)

// SummaryOptions parameterise the narrative template
type SummaryOptions struct {
	Period string
	FormID string
}

// Placeholders used in prose when a field is still the sentinel
const (
	placeholderCompany         = "The company"
	placeholderAuditor         = "an unspecified auditor"
	placeholderDate            = "an unspecified date"
	placeholderAppointmentType = "appointed"
)

// Summarize renders the record as a single narrative paragraph.
func Summarize(record CanonicalRecord, opts SummaryOptions) string {
	if opts.Period == "" {
		opts.Period = DefaultFilingPeriod
	}
	if opts.FormID == "" {
		opts.FormID = DefaultFormID
	}

	company := proseValue(record, FieldCompanyName, placeholderCompany)
	auditor := proseValue(record, FieldAuditorName, placeholderAuditor)
	date := proseValue(record, FieldAppointmentDate, placeholderDate)

	appointment := placeholderAppointmentType
	if record.IsKnown(FieldAppointmentType) {
		appointment = strings.ToLower(record.AppointmentType)
	}

	return fmt.Sprintf("%s has %s %s as its statutory auditor for the financial year %s, effective from %s. "+
		"The appointment was approved in the Annual General Meeting held on the same date. "+
		"All required documents, including the board resolution, have been submitted via Form %s.",
		company, appointment, auditor, opts.Period, date, opts.FormID)
}

func proseValue(record CanonicalRecord, key FieldKey, placeholder string) string {
	if record.IsKnown(key) {
		return record.Get(key)
	}
	return placeholder
}
