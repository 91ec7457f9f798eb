package server

import (
	"context"

	"github.com/poiesic/verbatim/ai"
	"github.com/poiesic/verbatim/answer"
	"github.com/poiesic/verbatim/batch"
	"github.com/poiesic/verbatim/cache"
	"github.com/poiesic/verbatim/core"
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks github.com/poiesic/verbatim/server Service

// Service is the question-answering surface the HTTP API exposes.
// *verbatim.Service satisfies it.
type Service interface {
	AnswerWithMonitor(ctx context.Context, question string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error)
	QuickAnswerWithMonitor(ctx context.Context, question string, stream ai.StreamFunc, monitor answer.Monitor) (core.AnswerResult, error)
	AnswerAll(ctx context.Context, questions []string, opts ...batch.Option) []string
	CacheStats() cache.Stats
}
