package usecase

import (
	"context"
	"fmt"

	"byelaws/internal/domain"
	"byelaws/internal/port"
)

// AnswerUseCase answers a question from retrieved context. It never
// short-circuits: the model is called even when no context was found.
type AnswerUseCase struct {
	retriever port.ContextRetriever
	llm       port.LLM
}

// NewAnswerUseCase creates a new answer use case.
func NewAnswerUseCase(retriever port.ContextRetriever, llm port.LLM) *AnswerUseCase {
	return &AnswerUseCase{
		retriever: retriever,
		llm:       llm,
	}
}

// Answer retrieves context for question and returns the model's reply verbatim.
func (u *AnswerUseCase) Answer(ctx context.Context, question string) (string, error) {
	retrieved, err := u.retriever.RetrieveContext(ctx, question)
	if err != nil {
		return "", err
	}

	answer, err := u.llm.Chat(ctx, Messages(retrieved, question))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrSynthesis, u.llm.ModelName(), err)
	}
	return answer, nil
}
