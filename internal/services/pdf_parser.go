package services

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"devfolio/portfolio-api/internal/apperr"
)

type PDFParserService interface {
	ExtractText(filePath string) (string, error)
	ExtractTextFromBytes(data []byte) (string, error)
}

type pdfParserService struct{}

func NewPDFParserService() PDFParserService {
	return &pdfParserService{}
}

func (p *pdfParserService) ExtractText(filePath string) (string, error) {
	const op = "PDFParserService.ExtractText"

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", apperr.E(apperr.CodeUnreadableDoc, op, "failed to open PDF", err)
	}
	defer f.Close()

	return collectText(r, op)
}

func (p *pdfParserService) ExtractTextFromBytes(data []byte) (string, error) {
	const op = "PDFParserService.ExtractTextFromBytes"

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.E(apperr.CodeUnreadableDoc, op, "failed to read PDF buffer", err)
	}

	return collectText(r, op)
}

func collectText(r *pdf.Reader, op string) (string, error) {
	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages, the rest may still carry content.
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return "", apperr.E(apperr.CodeUnreadableDoc, op, "no text content found in PDF", nil)
	}

	return text, nil
}

// CleanText normalizes extracted text: trims each line and drops blanks.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
