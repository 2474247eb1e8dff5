package pdf

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// defaultMaxTextSize bounds the text kept from one document
const defaultMaxTextSize = 10 * 1024 * 1024

// TextReader extracts the rendered page text of a filing
type TextReader struct {
	maxTextSize int
}

// NewTextReader creates a reader with the default text limit
func NewTextReader() *TextReader {
	return &TextReader{maxTextSize: defaultMaxTextSize}
}

// PageText is the plain text of one page
type PageText struct {
	Number int
	Text   string
	Err    error
}

// ReadFile opens path and returns the text of every page. Pages that fail to
// decode are reported with Err set and empty text.
func (r *TextReader) ReadFile(path string) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return r.readPages(reader), nil
}

func (r *TextReader) readPages(reader *pdf.Reader) []PageText {
	pages := make([]PageText, 0, reader.NumPage())
	total := 0

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := PageText{Number: pageNum}
		page.Text, page.Err = pagePlainText(reader, pageNum)

		if total+len(page.Text) > r.maxTextSize {
			remaining := r.maxTextSize - total
			if remaining > 0 {
				page.Text = Truncate(page.Text, remaining)
				pages = append(pages, page)
			}
			break
		}

		total += len(page.Text)
		pages = append(pages, page)
	}

	return pages
}

// pagePlainText recovers from decoder panics on malformed content streams
func pagePlainText(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", pageNum, err)
	}
	return text, nil
}

// JoinPages concatenates page text, terminating every page with a newline
func JoinPages(pages []PageText) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
