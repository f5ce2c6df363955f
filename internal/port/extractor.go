package port

import (
	"context"

	"byelaws/internal/domain"
)

// PageExtractor extracts per-page text from a document. Pages that carry no
// text are still returned, with an empty Text, so page numbers stay aligned.
type PageExtractor interface {
	Pages(ctx context.Context, path string) ([]domain.Page, error)
}
