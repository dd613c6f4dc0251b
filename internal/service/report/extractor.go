package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument is returned when the upload contains no bytes at all.
var ErrEmptyDocument = errors.New("document is empty")

// TextExtractor pulls plain text out of a document.
type TextExtractor interface {
	Extract(document []byte) (string, error)
}

// PDFExtractor reads the text layer of a PDF page by page.
type PDFExtractor struct{}

// Extract implements TextExtractor. Pages are joined with a newline.
func (PDFExtractor) Extract(document []byte) (text string, err error) {
	if len(document) == 0 {
		return "", ErrEmptyDocument
	}

	// 解析器遇到损坏的文件时可能 panic
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(content)
	}
	return strings.TrimSpace(builder.String()), nil
}
