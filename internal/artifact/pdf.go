package artifact

import (
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFInfo summarizes the text layer of a PDF.
type PDFInfo struct {
	Pages int
	Text  string
}

// ReadPDF extracts plain text page by page. Pages whose text cannot be
// decoded are skipped; scanned books legitimately have no text layer.
func ReadPDF(path string) (info PDFInfo, err error) {
	defer func() {
		// the pdf library panics on some malformed xref tables
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return PDFInfo{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\f")
		}
		buf.WriteString(text)
	}
	return PDFInfo{Pages: pages, Text: buf.String()}, nil
}
