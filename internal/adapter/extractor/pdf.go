// Package extractor turns the source document into per-page text.
package extractor

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"byelaws/internal/domain"
	"byelaws/internal/port"
)

var _ port.PageExtractor = (*PDFExtractor)(nil)

// PDFExtractor reads PDFs natively. Pages without a content stream are
// returned with empty text so page numbers stay aligned with the document.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Pages(ctx context.Context, path string) (pages []domain.Page, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", domain.ErrIngestion, path, err)
	}
	defer f.Close()

	// The pdf package panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: failed to read %s: %v", domain.ErrIngestion, path, rec)
		}
	}()

	n := r.NumPage()
	pages = make([]domain.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := domain.Page{Number: i}
		p := r.Page(i)
		if !p.V.IsNull() {
			text, err := p.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to extract page %d: %v", domain.ErrIngestion, i, err)
			}
			page.Text = text
		}
		pages = append(pages, page)
	}

	return pages, nil
}
