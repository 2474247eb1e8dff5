package descriptions

// Tool descriptions with practical examples, registered with the MCP server

const (
	FilingExtractDescription = `Extract the auditor appointment record from a Form ADT-1 filing PDF.

**When to use:** A company has filed its auditor appointment and you need the structured details: company, CIN, registered office, auditor, auditor address, FRN or membership number, appointment date and type.

**Why it's useful:** Reads the fillable form fields first and falls back to the printed text, so both digitally signed e-forms and flattened copies resolve. Fields that cannot be found are reported as "Unknown" instead of failing the run.

**Outputs:**
• output.json with the eight record fields
• summary.txt with a one-paragraph narrative and an attachment summary block
• attachments/ with every embedded PDF recovered, sanitised and classified

**Examples:**
• "Extract the auditor details from Form ADT-1-29092023_signed.pdf"
• "Process filings/acme-adt1.pdf and write the results to out/acme"

**Best practices:** Run filing_validate first on user-supplied files. Check the resolution tier of each field; "sentinel" means the value was not present in the document.`

	FilingValidateDescription = `Verify that a file is a readable PDF within the configured size limit.

**When to use:** Before running filing_extract on an unknown or uploaded file.

**Why it's useful:** Catches missing files, non-PDF inputs, empty files and oversized files without writing any output.

**Examples:**
• "Is uploads/adt1.pdf a valid filing PDF?"
• "Check every PDF in the filings directory before batch extraction"`

	FilingServerInfoDescription = `Get server information, available tools and the filings in the allowed directory.

**When to use:** To discover what the server can do and which PDFs are available to process.

**Why it's useful:** Shows the configured filing period and form, the output locations and up to ten PDFs from the allowed directory.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"filing_extract":     FilingExtractDescription,
	"filing_validate":    FilingValidateDescription,
	"filing_server_info": FilingServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
