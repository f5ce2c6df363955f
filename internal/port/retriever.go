package port

import "context"

// ContextRetriever turns a question into a context blob for the prompt.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, question string) (string, error)
}
