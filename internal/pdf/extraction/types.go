package extraction

// FormFieldType represents different types of form fields
type FormFieldType string

const (
	FormFieldTypeText      FormFieldType = "text"
	FormFieldTypeCheckbox  FormFieldType = "checkbox"
	FormFieldTypeRadio     FormFieldType = "radio"
	FormFieldTypeSelect    FormFieldType = "select"
	FormFieldTypeButton    FormFieldType = "button"
	FormFieldTypeSignature FormFieldType = "signature"
	FormFieldTypeUnknown   FormFieldType = "unknown"
)

// FormField is one terminal AcroForm field. Name is the fully qualified
// name, with the partial names of ancestors joined by dots.
type FormField struct {
	Name     string        `json:"name"`
	Type     FormFieldType `json:"type"`
	Value    string        `json:"value"`
	ReadOnly bool          `json:"read_only,omitempty"`
	Required bool          `json:"required,omitempty"`
}
