package interfaces

import (
	"context"
)

// PDFPageContent represents extracted content from a single PDF page
type PDFPageContent struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// PDFExtractor extracts text content from PDF documents on disk
type PDFExtractor interface {
	// ExtractText extracts all text content from a PDF file.
	// Returns the full text content concatenated from all pages.
	ExtractText(ctx context.Context, path string) (string, error)

	// ExtractPages extracts text content by page from a PDF
	ExtractPages(ctx context.Context, path string) ([]PDFPageContent, error)
}
