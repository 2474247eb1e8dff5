package filing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = `FORM NO. ADT-1
Notice to the Registrar by company for appointment of auditor
Corporate identity number (CIN): L17110MH1973PLC019786
Name of the company
RELIANCE INDUSTRIES LIMITED
Address of the registered office
3rd Floor, Maker Chambers IV, Nariman Point, Mumbai
Reappointment
Name of the auditor or auditor's firm
DELOITTE HASKINS & SELLS LLP
Address of the Auditor
One International Center, Tower 3, Mumbai
Membership Number of auditor or auditor's firm's registration number
117366W
Date of appointment
29/09/2023
`

func TestResolver_TextTierOnly(t *testing.T) {
	record, trace := NewResolver(nil).Resolve(sampleText, FormFields{})

	assert.Equal(t, "RELIANCE INDUSTRIES LIMITED", record.CompanyName)
	assert.Equal(t, "L17110MH1973PLC019786", record.CIN)
	assert.Equal(t, "3rd Floor, Maker Chambers IV, Nariman Point, Mumbai", record.RegisteredOffice)
	assert.Equal(t, "29/09/2023", record.AppointmentDate)
	assert.Equal(t, "DELOITTE HASKINS & SELLS LLP", record.AuditorName)
	assert.Equal(t, "One International Center, Tower 3, Mumbai", record.AuditorAddress)
	assert.Equal(t, "117366W", record.AuditorFRN)
	assert.Equal(t, "Reappointment", record.AppointmentType)

	for _, key := range AllFields {
		assert.Equal(t, TierText, trace[key], "field %s", key)
	}
}

func TestResolver_FormTierDominatesText(t *testing.T) {
	fields := NewFormFields(
		"data[0].ZNCA[0].CompanyName_C[0]", "Acme Widgets Private Limited",
		"data[0].ZNCA[0].CIN_C[0]", "U74999DL2015PTC123456",
		"data[0].ZNCA[0].DropDownList1[0]", "New Appointment",
	)

	record, trace := NewResolver(nil).Resolve(sampleText, fields)

	assert.Equal(t, "Acme Widgets Private Limited", record.CompanyName)
	assert.Equal(t, "U74999DL2015PTC123456", record.CIN)
	assert.Equal(t, "New Appointment", record.AppointmentType)
	assert.Equal(t, TierForm, trace[FieldCompanyName])
	assert.Equal(t, TierForm, trace[FieldCIN])
	assert.Equal(t, TierForm, trace[FieldAppointmentType])

	// untouched fields still come from the text
	assert.Equal(t, "29/09/2023", record.AppointmentDate)
	assert.Equal(t, TierText, trace[FieldAppointmentDate])
}

func TestResolver_FormTierCandidateOrder(t *testing.T) {
	fields := NewFormFields(
		"Name of the company (as per records)", "Second Candidate Ltd",
		"page1.CompanyName_C", "First Candidate Ltd",
	)

	record, _ := NewResolver(nil).Resolve("", fields)
	assert.Equal(t, "First Candidate Ltd", record.CompanyName)
}

func TestResolver_FormTierSkipsEmptyValues(t *testing.T) {
	tests := []struct {
		name   string
		fields FormFields
		text   string
		want   string
		tier   string
	}{
		{
			name:   "empty value falls to next candidate",
			fields: NewFormFields("CompanyName_C", "", "Name of the company", "Fallback Ltd"),
			want:   "Fallback Ltd",
			tier:   TierForm,
		},
		{
			name:   "blank value falls to text",
			fields: NewFormFields("CompanyName_C", "   "),
			text:   "Name of the company: Text Ltd\n",
			want:   "Text Ltd",
			tier:   TierText,
		},
		{
			name:   "form value is trimmed",
			fields: NewFormFields("CompanyName_C", "  Padded Ltd \n"),
			want:   "Padded Ltd",
			tier:   TierForm,
		},
		{
			name:   "later identifier with value wins over earlier empty one",
			fields: NewFormFields("a.CompanyName_C", "", "b.CompanyName_C", "Second Ltd"),
			want:   "Second Ltd",
			tier:   TierForm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, trace := NewResolver(nil).Resolve(tt.text, tt.fields)
			assert.Equal(t, tt.want, record.CompanyName)
			assert.Equal(t, tt.tier, trace[FieldCompanyName])
		})
	}
}

func TestResolver_AuditorAddressConcatenation(t *testing.T) {
	tests := []struct {
		name   string
		fields FormFields
		want   string
	}{
		{
			name: "all components in fixed order",
			fields: NewFormFields(
				"f.Pin_C[0]", "400021",
				"f.State_P[0]", "Maharashtra",
				"f.City_C[0]", "Mumbai",
				"f.permaddress2b_C[0]", "Nariman Point",
				"f.permaddress2a_C[0]", "12 Marine Drive",
			),
			want: "12 Marine Drive, Nariman Point, Mumbai, Maharashtra, 400021",
		},
		{
			name: "absent components are skipped",
			fields: NewFormFields(
				"f.permaddress2a_C[0]", "12 Marine Drive",
				"f.City_C[0]", "Mumbai",
				"f.State_P[0]", "",
				"f.Pin_C[0]", "400021",
			),
			want: "12 Marine Drive, Mumbai, 400021",
		},
		{
			name:   "single component still concatenates",
			fields: NewFormFields("City_C", "Pune"),
			want:   "Pune",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, trace := NewResolver(nil).Resolve(sampleText, tt.fields)
			assert.Equal(t, tt.want, record.AuditorAddress)
			assert.Equal(t, TierForm, trace[FieldAuditorAddress])
		})
	}
}

func TestResolver_CINWidth(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "21 characters",
			text: "Corporate identity number (CIN): U12345678901234567890",
			want: "U12345678901234567890",
		},
		{
			name: "21 characters followed by newline",
			text: "Corporate identity number (CIN)\nU12345678901234567890\nName of the company",
			want: "U12345678901234567890",
		},
		{
			name: "20 characters",
			text: "Corporate identity number (CIN): U1234567890123456789",
			want: Sentinel,
		},
		{
			name: "22 characters",
			text: "Corporate identity number (CIN): U123456789012345678901",
			want: Sentinel,
		},
		{
			name: "lowercase is not a corporate identity number",
			text: "Corporate identity number (CIN): u12345678901234567890",
			want: Sentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, _ := NewResolver(nil).Resolve(tt.text, FormFields{})
			assert.Equal(t, tt.want, record.CIN)
		})
	}
}

func TestResolver_Heuristics(t *testing.T) {
	t.Run("auditor firm phrase", func(t *testing.T) {
		record, trace := NewResolver(nil).Resolve("Signed for and on behalf of the Auditor's Firm", FormFields{})
		assert.Equal(t, "Auditor's Firm", record.AuditorName)
		assert.Equal(t, TierHeuristic, trace[FieldAuditorName])
		assert.Equal(t, Sentinel, record.AppointmentType)
	})

	t.Run("year marker implies reappointment", func(t *testing.T) {
		record, trace := NewResolver(nil).Resolve("appointed for five years from 2016 onwards", FormFields{})
		assert.Equal(t, "Reappointment", record.AppointmentType)
		assert.Equal(t, TierHeuristic, trace[FieldAppointmentType])
	})

	t.Run("phrase is case sensitive", func(t *testing.T) {
		record, _ := NewResolver(nil).Resolve("auditor's firm", FormFields{})
		assert.Equal(t, Sentinel, record.AuditorName)
	})

	t.Run("text tier beats heuristic", func(t *testing.T) {
		text := "New Appointment\nfrom 2016"
		record, trace := NewResolver(nil).Resolve(text, FormFields{})
		assert.Equal(t, "New Appointment", record.AppointmentType)
		assert.Equal(t, TierText, trace[FieldAppointmentType])
	})
}

func TestResolver_NeverBlank(t *testing.T) {
	inputs := []struct {
		text   string
		fields FormFields
	}{
		{"", FormFields{}},
		{"   \n\n\t", NewFormFields("CompanyName_C", " ", "CIN_C", "")},
		{"Name of the company\n\n", FormFields{}},
		{"Name of the company:    \nDate of appointment 1/1/23", FormFields{}},
		{sampleText, NewFormFields("unrelated", "value")},
	}

	for i, in := range inputs {
		record, trace := NewResolver(nil).Resolve(in.text, in.fields)
		require.True(t, record.Complete(), "input %d", i)
		for _, fv := range record.Fields() {
			assert.NotEqual(t, "", strings.TrimSpace(fv.Value), "input %d field %s", i, fv.Key)
			if fv.Value == Sentinel {
				assert.Equal(t, TierSentinel, trace[fv.Key])
			}
		}
	}
}

func TestResolver_AllUnknown(t *testing.T) {
	record, _ := NewResolver(nil).Resolve("nothing useful here", FormFields{})
	for _, fv := range record.Fields() {
		assert.Equal(t, Sentinel, fv.Value, "field %s", fv.Key)
	}
}

func TestResolver_WithTiers(t *testing.T) {
	custom := Tier{Name: "custom", Resolve: func(_ FormFields, text string) (string, bool) {
		return "from custom tier", true
	}}

	r := NewResolver(nil, WithTiers(FieldAuditorFRN, custom))
	record, trace := r.Resolve("", FormFields{})

	assert.Equal(t, "from custom tier", record.AuditorFRN)
	assert.Equal(t, "custom", trace[FieldAuditorFRN])
	assert.Len(t, r.Chain(FieldAuditorFRN), 3)
	assert.Len(t, r.Chain(FieldAuditorName), 3)
}

func TestResolver_MissingSpecIsSentinel(t *testing.T) {
	specs := []FieldSpec{{Key: FieldCompanyName, Candidates: []string{"CompanyName_C"}}}
	record, trace := NewResolver(specs).Resolve(sampleText, NewFormFields("CompanyName_C", "Only Ltd"))

	assert.Equal(t, "Only Ltd", record.CompanyName)
	assert.Equal(t, Sentinel, record.CIN)
	assert.Equal(t, TierSentinel, trace[FieldCIN])
}
