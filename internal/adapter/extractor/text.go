package extractor

import (
	"context"
	"fmt"
	"os"

	"byelaws/internal/domain"
	"byelaws/internal/port"
)

var _ port.PageExtractor = (*TextExtractor)(nil)

// TextExtractor reads plain text documents, treating form feeds as page
// breaks. Useful for documents already converted to text.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Pages(ctx context.Context, path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", domain.ErrIngestion, path, err)
	}
	return splitFormFeed(string(data)), nil
}

// New returns the extractor registered under name.
func New(name string) (port.PageExtractor, error) {
	switch name {
	case "", "native", "pdf":
		return NewPDFExtractor(), nil
	case "pdftotext":
		return NewPDFToTextExtractor(), nil
	case "text":
		return NewTextExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown extractor: %s", name)
	}
}
