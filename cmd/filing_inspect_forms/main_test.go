package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-filing-extractor/internal/filing"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf/pdftest"
)

func TestFeeds(t *testing.T) {
	specs := filing.DefaultSpecs()

	assert.Equal(t, []string{"company_name"}, feeds("data[0].CompanyName_C[0]", specs, "HiddenList_L"))
	assert.Equal(t, []string{"auditor_address"}, feeds("form.City_C", specs, "HiddenList_L"))
	assert.Equal(t, []string{"attachment name map"}, feeds("page1.HiddenList_L", specs, "HiddenList_L"))
	assert.Empty(t, feeds("Unrelated_X", specs, "HiddenList_L"))
}

func TestRunText(t *testing.T) {
	path := pdftest.WriteFile(t, "adt1.pdf", pdftest.Document([]string{"FORM NO. ADT-1"}, []pdftest.Field{
		{Name: "data.CompanyName_C", Value: "Acme Private Limited"},
	}))

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Found 1 form fields")
	assert.Contains(t, out, "data.CompanyName_C")
	assert.Contains(t, out, "Value: Acme Private Limited")
	assert.Contains(t, out, "Feeds: company_name")
}

func TestRunJSON(t *testing.T) {
	path := pdftest.WriteFile(t, "adt1.pdf", pdftest.Document(nil, []pdftest.Field{
		{Name: "CIN_C", Value: "U12345MH2010PTC123456"},
	}))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-format", "json", path}, &stdout, &stderr), stderr.String())

	var result InspectionResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.True(t, result.Success)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, "CIN_C", result.Fields[0].Name)
	assert.Equal(t, []string{"cin"}, result.Fields[0].Feeds)
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 1, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "PDF file path required")

	stderr.Reset()
	assert.Equal(t, 1, run([]string{"/nonexistent/adt1.pdf"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "file does not exist")

	path := pdftest.WriteFile(t, "adt1.pdf", pdftest.Document(nil, nil))
	stderr.Reset()
	assert.Equal(t, 1, run([]string{"-format", "xml", path}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unsupported output format")
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "USAGE:")
}
