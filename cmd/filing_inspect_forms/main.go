package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-filing-extractor/internal/config"
	"github.com/a3tai/mcp-filing-extractor/internal/filing"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf/extraction"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	format       string
	specs        string
	nameMapField string
	verbose      bool
	help         bool
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("filing_inspect_forms", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.StringVar(&opts.specs, "specs", "", "TOML file with field spec overrides")
	fs.StringVar(&opts.nameMapField, "name-map-field", config.DefaultNameMapField, "Form field holding the attachment name map")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output")
	fs.BoolVar(&opts.help, "help", false, "Show help message")
	fs.Usage = func() { printHelp(stderr) }

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if opts.help {
		printHelp(stdout)
		return 0
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Error: PDF file path required\n\n")
		printUsage(stderr)
		return 1
	}

	pdfPath := fs.Arg(0)
	if _, err := pdf.NewValidator(config.DefaultMaxFileSize).Check(pdfPath); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	specs := filing.DefaultSpecs()
	if opts.specs != "" {
		loaded, err := filing.LoadSpecOverrides(opts.specs, specs)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading field specs: %v\n", err)
			return 1
		}
		specs = loaded
	}

	logger := zap.NewNop()
	if opts.verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}

	result := inspect(pdfPath, specs, opts.nameMapField, logger)

	if err := outputResults(stdout, opts.format, result); err != nil {
		fmt.Fprintf(stderr, "Error outputting results: %v\n", err)
		return 1
	}
	return 0
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Filing Inspect Forms - List the form fields of a filing PDF")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Prints every fully qualified form field together with the record field")
	fmt.Fprintln(w, "it would feed, which helps when writing field spec overrides.")
	fmt.Fprintln(w)
	printUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -format          Output format: text (default), json")
	fmt.Fprintln(w, "  -specs           TOML file with field spec overrides")
	fmt.Fprintln(w, "  -name-map-field  Form field holding the attachment name map")
	fmt.Fprintln(w, "  -verbose         Enable verbose output")
	fmt.Fprintln(w, "  -help            Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  filing_inspect_forms adt1.pdf")
	fmt.Fprintln(w, "  filing_inspect_forms -format json -specs fields.toml adt1.pdf")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  filing_inspect_forms [OPTIONS] <pdf_file>")
}

// InspectedField is one form field and the record fields it can feed
type InspectedField struct {
	extraction.FormField
	Feeds []string `json:"feeds,omitempty"`
}

// InspectionResult represents the complete result of an inspection
type InspectionResult struct {
	FilePath   string           `json:"file_path"`
	Success    bool             `json:"success"`
	FieldCount int              `json:"field_count"`
	Fields     []InspectedField `json:"fields"`
	Error      string           `json:"error,omitempty"`
}

func inspect(pdfPath string, specs []filing.FieldSpec, nameMapField string, logger *zap.Logger) *InspectionResult {
	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		absPath = pdfPath
	}

	result := &InspectionResult{FilePath: absPath}

	extractor := extraction.NewPDFCPUFormExtractor(logger)
	forms, err := extractor.ExtractFormsFromFile(absPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.FieldCount = len(forms)
	for _, field := range forms {
		result.Fields = append(result.Fields, InspectedField{
			FormField: field,
			Feeds:     feeds(field.Name, specs, nameMapField),
		})
	}
	return result
}

// feeds lists the record fields whose candidates or components match name.
func feeds(name string, specs []filing.FieldSpec, nameMapField string) []string {
	var out []string
	for _, spec := range specs {
		if matchesAny(name, spec.Candidates) || matchesAny(name, spec.Components) {
			out = append(out, string(spec.Key))
		}
	}
	if nameMapField != "" && strings.Contains(name, nameMapField) {
		out = append(out, "attachment name map")
	}
	return out
}

func matchesAny(name string, substrs []string) bool {
	for _, s := range substrs {
		if s != "" && strings.Contains(name, s) {
			return true
		}
	}
	return false
}

func outputResults(w io.Writer, format string, result *InspectionResult) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "text":
		outputText(w, result)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputJSON(w io.Writer, result *InspectionResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(w io.Writer, result *InspectionResult) {
	if !result.Success {
		fmt.Fprintf(w, "❌ Form extraction failed: %s\n", result.Error)
		return
	}

	if result.FieldCount == 0 {
		fmt.Fprintln(w, "⚠️  No form fields detected in the PDF")
		fmt.Fprintln(w, "Record fields will fall back to the text layer.")
		return
	}

	fmt.Fprintf(w, "✅ Found %d form fields\n\n", result.FieldCount)

	for i, field := range result.Fields {
		fmt.Fprintf(w, "[%d] %s\n", i+1, field.Name)
		fmt.Fprintf(w, "    Type: %s\n", field.Type)

		if field.Value != "" {
			fmt.Fprintf(w, "    Value: %s\n", field.Value)
		}

		properties := []string{}
		if field.Required {
			properties = append(properties, "Required")
		}
		if field.ReadOnly {
			properties = append(properties, "ReadOnly")
		}
		if len(properties) > 0 {
			fmt.Fprintf(w, "    Properties: %v\n", properties)
		}

		if len(field.Feeds) > 0 {
			fmt.Fprintf(w, "    Feeds: %s\n", strings.Join(field.Feeds, ", "))
		}

		fmt.Fprintln(w)
	}
}
