package grant

import "context"

// RelevanceScorer rates one record against a criteria summary on a 0-100
// scale. Implementations may call out to a model; a returned error makes the
// enricher fall back to its deterministic scoring scheme for the whole batch.
type RelevanceScorer interface {
	Score(ctx context.Context, record RawGrantRecord, criteriaSummary string) (int, error)
}

// CriteriaExtractor turns a free-text query into a search-friendly criteria
// string. On failure callers keep the original text unchanged.
type CriteriaExtractor interface {
	Extract(ctx context.Context, freeText string) (string, error)
}

// ParaphraseJudge decides whether a free-text query is ambiguous enough to be
// worth confirming with the requester. Failure is treated as "not needed".
type ParaphraseJudge interface {
	Judge(ctx context.Context, freeText string) (ClarificationState, error)
}
