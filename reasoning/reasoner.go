// Package reasoning talks to the external language-reasoning service.
package reasoning

import "context"

//go:generate mockgen -destination=../mocks/mock_reasoner.go -package=mocks jobscout/reasoning Reasoner

// Reasoner answers a free-text prompt with free text
type Reasoner interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}
