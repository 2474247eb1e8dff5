// Package pdftest builds small, well-formed PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Field is a text field placed in the document's AcroForm. A Name containing
// dots is emitted as a parent field with a single kid.
type Field struct {
	Name  string
	Value string
}

// Builder accumulates indirect objects and serializes them with a valid
// cross-reference table.
type Builder struct {
	objects []string
}

// Add appends an object body and returns its object number
func (b *Builder) Add(body string) int {
	b.objects = append(b.objects, body)
	return len(b.objects)
}

// Set replaces the body of an object allocated earlier
func (b *Builder) Set(num int, body string) {
	b.objects[num-1] = body
}

// Bytes serializes the document with object 1 as the catalog
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.objects)+1, xref)

	return buf.Bytes()
}

// Stream formats a stream object body
func Stream(dict, data string) string {
	if dict != "" {
		dict = " " + dict
	}
	return fmt.Sprintf("<< /Length %d%s >>\nstream\n%s\nendstream", len(data), dict, data)
}

// Literal escapes s as a PDF literal string
func Literal(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

// Document builds a one-page PDF showing lines of text in Helvetica, with an
// AcroForm holding fields when any are given.
func Document(lines []string, fields []Field) []byte {
	b := &Builder{}
	catalog := b.Add("")
	pages := b.Add("")
	page := b.Add("")
	font := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "%s Tj\nT*\n", Literal(line))
	}
	content.WriteString("ET")
	contents := b.Add(Stream("", content.String()))

	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R] /Count 1 >>", page))
	b.Set(page, fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>",
		pages, contents, font))

	if len(fields) == 0 {
		b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pages))
		return b.Bytes()
	}

	var refs []string
	for _, f := range fields {
		parts := strings.Split(f.Name, ".")
		leaf := parts[len(parts)-1]
		if len(parts) == 1 {
			n := b.Add(fmt.Sprintf("<< /FT /Tx /T %s /V %s >>", Literal(leaf), Literal(f.Value)))
			refs = append(refs, fmt.Sprintf("%d 0 R", n))
			continue
		}
		parent := b.Add("")
		kid := b.Add(fmt.Sprintf("<< /T %s /V %s /Parent %d 0 R >>", Literal(leaf), Literal(f.Value), parent))
		b.Set(parent, fmt.Sprintf("<< /FT /Tx /T %s /Kids [%d 0 R] >>", Literal(strings.Join(parts[:len(parts)-1], ".")), kid))
		refs = append(refs, fmt.Sprintf("%d 0 R", parent))
	}
	acroForm := b.Add(fmt.Sprintf("<< /Fields [%s] >>", strings.Join(refs, " ")))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R /AcroForm %d 0 R >>", pages, acroForm))

	return b.Bytes()
}

// WriteFile writes data to name inside a fresh temporary directory
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
