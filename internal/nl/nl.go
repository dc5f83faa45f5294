// Package nl wraps the natural-language capabilities the agent depends
// on: classifying a buyer reply into an intent and generating the body
// of outgoing correspondence from structured facts. Both are narrow
// contracts; the concrete model behind them is swappable and its
// failures always degrade to a safe default instead of propagating.
package nl

import (
	"context"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

// IntentClassifier maps a free-text reply to one of the three intents.
// Implementations return an error only for transport-level failures;
// callers treat any error as domain.IntentUnclear.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, body string) (domain.ReplyIntent, error)
}

// BodyGenerator produces the plain-text body of an outgoing message
// from structured facts. Callers fall back to a static template on
// error.
type BodyGenerator interface {
	GenerateBody(ctx context.Context, f Facts) (string, error)
}

// Facts is the structured input for body generation. Only the named
// fields reach the model; no other untrusted document text is injected.
type Facts struct {
	Kind     domain.MessageKind
	Supplier string
	Buyer    string
	PONumber string
	Items    []ItemFact
}

type ItemFact struct {
	Name     string
	Quantity int
}
