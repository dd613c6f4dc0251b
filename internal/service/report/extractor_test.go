package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes an uncompressed PDF with one page per entry. An empty entry yields a page
// whose content stream draws nothing.
func buildPDF(pages ...string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled in below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	var kids []string
	for _, text := range pages {
		pageID := len(objects) + 1
		contentID := pageID + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))

		var content string
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentID),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractorJoinsPagesWithNewline(t *testing.T) {
	text, err := PDFExtractor{}.Extract(buildPDF("Hemoglobin 13.5", "Cholesterol 240"))
	require.NoError(t, err)
	assert.Equal(t, "Hemoglobin 13.5\nCholesterol 240", text)
}

func TestPDFExtractorBlankPage(t *testing.T) {
	text, err := PDFExtractor{}.Extract(buildPDF(""))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestSummarizeRealPDF(t *testing.T) {
	summarizer := &recordingSummarizer{reply: "Cholesterol is above the usual range."}
	svc := NewService(nil, summarizer, Config{})

	summary := svc.Summarize(context.Background(), buildPDF("Hemoglobin 13.5", "Cholesterol 240"))
	assert.Equal(t, OutcomeSummarized, summary.Outcome)
	assert.Equal(t, "Hemoglobin 13.5\nCholesterol 240", summarizer.input)

	summary = svc.Summarize(context.Background(), buildPDF(""))
	assert.Equal(t, Summary{Text: NoTextNotice, Outcome: OutcomeEmpty}, summary)
}
