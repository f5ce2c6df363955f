package port

import "context"

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// LLM represents a chat-completion language model.
type LLM interface {
	// Chat sends the messages and returns the first choice's content.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
