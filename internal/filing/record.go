package filing

// Sentinel marks a canonical field that no tier could resolve.
const Sentinel = "Unknown"

// FieldKey identifies one of the canonical fields of a filing record
type FieldKey string

const (
	FieldCompanyName      FieldKey = "company_name"
	FieldCIN              FieldKey = "cin"
	FieldRegisteredOffice FieldKey = "registered_office"
	FieldAppointmentDate  FieldKey = "appointment_date"
	FieldAuditorName      FieldKey = "auditor_name"
	FieldAuditorAddress   FieldKey = "auditor_address"
	FieldAuditorFRN       FieldKey = "auditor_frn_or_membership"
	FieldAppointmentType  FieldKey = "appointment_type"
)

// AllFields lists the canonical fields in record order
var AllFields = []FieldKey{
	FieldCompanyName,
	FieldCIN,
	FieldRegisteredOffice,
	FieldAppointmentDate,
	FieldAuditorName,
	FieldAuditorAddress,
	FieldAuditorFRN,
	FieldAppointmentType,
}

// CanonicalRecord is the normalized output of one filing. Struct order is the
// serialized key order.
type CanonicalRecord struct {
	CompanyName      string `json:"company_name"`
	CIN              string `json:"cin"`
	RegisteredOffice string `json:"registered_office"`
	AppointmentDate  string `json:"appointment_date"`
	AuditorName      string `json:"auditor_name"`
	AuditorAddress   string `json:"auditor_address"`
	AuditorFRN       string `json:"auditor_frn_or_membership"`
	AppointmentType  string `json:"appointment_type"`
}

// FieldValue pairs a canonical key with its resolved value
type FieldValue struct {
	Key   FieldKey
	Value string
}

// Get returns the value stored for key
func (r *CanonicalRecord) Get(key FieldKey) string {
	if p := r.field(key); p != nil {
		return *p
	}
	return ""
}

// Set stores value under key. Unknown keys are ignored.
func (r *CanonicalRecord) Set(key FieldKey, value string) {
	if p := r.field(key); p != nil {
		*p = value
	}
}

// IsKnown reports whether key resolved to something other than the sentinel
func (r *CanonicalRecord) IsKnown(key FieldKey) bool {
	v := r.Get(key)
	return v != "" && v != Sentinel
}

// Complete reports whether every canonical field carries a non-blank value
func (r *CanonicalRecord) Complete() bool {
	for _, key := range AllFields {
		if isBlank(r.Get(key)) {
			return false
		}
	}
	return true
}

// Fields returns the record as ordered key/value pairs
func (r *CanonicalRecord) Fields() []FieldValue {
	out := make([]FieldValue, 0, len(AllFields))
	for _, key := range AllFields {
		out = append(out, FieldValue{Key: key, Value: r.Get(key)})
	}
	return out
}

// Map returns the record keyed by canonical field name
func (r *CanonicalRecord) Map() map[string]string {
	m := make(map[string]string, len(AllFields))
	for _, key := range AllFields {
		m[string(key)] = r.Get(key)
	}
	return m
}

func (r *CanonicalRecord) field(key FieldKey) *string {
	switch key {
	case FieldCompanyName:
		return &r.CompanyName
	case FieldCIN:
		return &r.CIN
	case FieldRegisteredOffice:
		return &r.RegisteredOffice
	case FieldAppointmentDate:
		return &r.AppointmentDate
	case FieldAuditorName:
		return &r.AuditorName
	case FieldAuditorAddress:
		return &r.AuditorAddress
	case FieldAuditorFRN:
		return &r.AuditorFRN
	case FieldAppointmentType:
		return &r.AppointmentType
	default:
		return nil
	}
}
