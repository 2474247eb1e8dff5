package extraction

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-filing-extractor/internal/filing"
)

// maxFieldDepth bounds recursion through Kids arrays
const maxFieldDepth = 32

// PDFCPUFormExtractor implements form extraction using the pdfcpu library
type PDFCPUFormExtractor struct {
	logger *zap.Logger
}

// NewPDFCPUFormExtractor creates a new form extractor using pdfcpu
func NewPDFCPUFormExtractor(logger *zap.Logger) *PDFCPUFormExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFCPUFormExtractor{
		logger: logger,
	}
}

// ExtractFormsFromFile extracts all terminal form fields from a PDF file
func (fe *PDFCPUFormExtractor) ExtractFormsFromFile(filePath string) ([]FormField, error) {
	fe.logger.Debug("extracting forms", zap.String("path", filePath))

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	return fe.ExtractFormsFromReader(file)
}

// ExtractFormsFromReader extracts forms from an io.ReadSeeker
func (fe *PDFCPUFormExtractor) ExtractFormsFromReader(reader io.ReadSeeker) ([]FormField, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(reader, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return fe.extractFormsFromContext(ctx)
}

// ToFormFields converts extracted fields into the ordered name/value
// collection consumed by the resolver.
func ToFormFields(fields []FormField) filing.FormFields {
	ff := filing.NewFormFields()
	for _, f := range fields {
		ff.Set(f.Name, f.Value)
	}
	return ff
}

func (fe *PDFCPUFormExtractor) extractFormsFromContext(ctx *model.Context) ([]FormField, error) {
	var forms []FormField

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		fe.logger.Debug("no AcroForm dictionary found")
		return forms, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return forms, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		fe.logger.Debug("no Fields array found in AcroForm")
		return forms, nil
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	for i, fieldRef := range fieldsArray {
		w := fieldWalk{ctx: ctx, index: i}
		if err := w.walk(fieldRef, "", inherited{}, 0, &forms); err != nil {
			fe.logger.Warn("skipping form field", zap.Int("index", i), zap.Error(err))
		}
	}

	return forms, nil
}

// inherited carries the inheritable field attributes down the hierarchy
type inherited struct {
	ft    string
	value string
	hasV  bool
	flags int
}

type fieldWalk struct {
	ctx   *model.Context
	index int
}

func (w fieldWalk) walk(obj types.Object, parentName string, inh inherited, depth int, out *[]FormField) error {
	if depth > maxFieldDepth {
		return fmt.Errorf("field hierarchy deeper than %d", maxFieldDepth)
	}

	dict, err := w.ctx.DereferenceDict(obj)
	if err != nil {
		return fmt.Errorf("failed to dereference field: %w", err)
	}
	if dict == nil {
		return nil
	}

	name := parentName
	if partial := w.string(dict, "T"); partial != "" {
		if name != "" {
			name += "."
		}
		name += partial
	}

	if ft, err := w.ctx.DereferenceName(dict["FT"], model.V10, nil); err == nil && ft != "" {
		inh.ft = string(ft)
	}
	if flags, err := w.ctx.DereferenceInteger(dict["Ff"]); err == nil && flags != nil {
		inh.flags = int(*flags)
	}
	if v, found := dict.Find("V"); found {
		inh.value = w.stringify(v)
		inh.hasV = true
	}

	kids := w.fieldKids(dict)
	if len(kids) == 0 {
		if name == "" {
			name = fmt.Sprintf("field_%d", w.index)
		}
		*out = append(*out, FormField{
			Name:     name,
			Type:     fieldType(inh.ft, inh.flags),
			Value:    inh.value,
			ReadOnly: inh.flags&1 != 0,
			Required: inh.flags&2 != 0,
		})
		return nil
	}

	for _, kid := range kids {
		if err := w.walk(kid, name, inh, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

// fieldKids returns the Kids that are fields rather than bare widget
// annotations. A field whose kids are all widgets is terminal.
func (w fieldWalk) fieldKids(dict types.Dict) []types.Object {
	kidsObj, found := dict.Find("Kids")
	if !found {
		return nil
	}
	kids, err := w.ctx.DereferenceArray(kidsObj)
	if err != nil {
		return nil
	}

	var fields []types.Object
	for _, kid := range kids {
		kd, err := w.ctx.DereferenceDict(kid)
		if err != nil || kd == nil {
			continue
		}
		if _, ok := kd.Find("T"); ok {
			fields = append(fields, kid)
		}
	}
	return fields
}

func (w fieldWalk) string(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	s, err := w.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

// stringify renders a field value as text. Strings are taken as is, names
// without the leading slash, and arrays as their members joined by commas.
func (w fieldWalk) stringify(obj types.Object) string {
	if s, err := w.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return s
	}
	if n, err := w.ctx.DereferenceName(obj, model.V10, nil); err == nil {
		return string(n)
	}
	if arr, err := w.ctx.DereferenceArray(obj); err == nil {
		var values []string
		for _, item := range arr {
			if s := w.stringify(item); s != "" {
				values = append(values, s)
			}
		}
		return strings.Join(values, ", ")
	}
	return ""
}

func fieldType(ft string, flags int) FormFieldType {
	switch ft {
	case "Btn":
		if flags&(1<<15) != 0 {
			return FormFieldTypeRadio
		} else if flags&(1<<16) != 0 {
			return FormFieldTypeButton
		}
		return FormFieldTypeCheckbox
	case "Tx":
		return FormFieldTypeText
	case "Ch":
		return FormFieldTypeSelect
	case "Sig":
		return FormFieldTypeSignature
	default:
		return FormFieldTypeUnknown
	}
}
