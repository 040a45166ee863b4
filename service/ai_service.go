package service

import (
	"context"

	"github.com/caovinh/manual-rag-be/types"
)

// AIService is the external language model used for answer synthesis.
type AIService interface {
	Chat(ctx context.Context, system string, messages []types.Message) (string, error)
}
