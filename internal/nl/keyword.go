package nl

import (
	"context"
	"strings"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

// KeywordClassifier is a deterministic lexical scanner over the reply
// text. It serves both as the classifier when no model endpoint is
// configured and as the unified home for the legacy keyword-scan
// behavior. Conflicting signals classify as UNCLEAR; it never guesses.
type KeywordClassifier struct{}

func NewKeywordClassifier() KeywordClassifier { return KeywordClassifier{} }

var (
	approveWords = []string{"yes", "go ahead", "ship it", "ship the", "okay", "ok", "proceed", "approve", "approved", "confirm", "please ship", "send them"}
	rejectWords  = []string{"no", "cancel", "reject", "don't ship", "do not ship", "wait for full", "not interested", "decline"}
)

func (KeywordClassifier) ClassifyIntent(_ context.Context, body string) (domain.ReplyIntent, error) {
	text := " " + strings.ToLower(body) + " "

	approve := containsAny(text, approveWords)
	reject := containsAny(text, rejectWords)

	switch {
	case approve && !reject:
		return domain.IntentApprove, nil
	case reject && !approve:
		return domain.IntentReject, nil
	default:
		return domain.IntentUnclear, nil
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if len(w) <= 3 {
			// Short tokens match on word boundaries only, so "no" does
			// not fire inside "now" or "notice".
			if strings.Contains(text, " "+w+" ") || strings.Contains(text, " "+w+",") ||
				strings.Contains(text, " "+w+".") || strings.Contains(text, " "+w+"!") {
				return true
			}
			continue
		}
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
