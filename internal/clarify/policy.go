// Package clarify decides when discovery needs a follow-up question and how
// answers reshape the search criteria.
package clarify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/grant"
)

// tooManyThreshold is the result count above which we offer to narrow.
const tooManyThreshold = 15

// Policy decides clarification from the final result set. The paraphrase
// judge is optional; without it only the count-based rules apply.
type Policy struct {
	judge  grant.ParaphraseJudge
	logger *zap.Logger
}

// NewPolicy builds a Policy. judge may be nil.
func NewPolicy(judge grant.ParaphraseJudge, logger *zap.Logger) *Policy {
	return &Policy{judge: judge, logger: logger}
}

// Decide returns the clarification to show for the result count, if any.
// The count rules run first; the paraphrase judge is only consulted for a
// moderate result count, and its failure means "no question".
func (p *Policy) Decide(ctx context.Context, resultCount int, criteria grant.SearchCriteria) grant.ClarificationState {
	if resultCount == 0 {
		return grant.ClarificationState{
			Needed:   true,
			Question: "I'm having trouble finding grants that match your exact criteria. One quick question to help me refine results...",
			Options: []string{
				"Focus on global grants or just your region?",
				"Broaden to include related industries?",
				"Include earlier/later stage opportunities?",
				"I'm having trouble understanding your preference - would you like me to proceed with general grant results instead?",
			},
		}
	}

	if resultCount > tooManyThreshold {
		return grant.ClarificationState{
			Needed:   true,
			Question: fmt.Sprintf("Great! I found %d potential grants. Just to narrow this down...", resultCount),
			Options: []string{
				"Focus on global grants or just your region?",
				"Prefer non-dilutive grants only?",
				"Show only the most relevant ones",
				"Filter by deadline proximity (closing soon)",
			},
		}
	}

	if p.judge != nil && !criteria.Confirmed {
		state, err := p.judge.Judge(ctx, criteria.FreeTextQuery)
		if err != nil {
			p.logger.Debug("paraphrase judge unavailable", zap.Error(err))
		} else if state.Needed {
			return state
		}
	}

	return grant.ClarificationState{}
}

// sectorExpansions maps a declared industry to the broader search phrase
// used when the requester asks to include related industries.
var sectorExpansions = map[string]string{
	"AI/ML":      "AI, Machine Learning, Technology, Software, Data Science",
	"Healthcare": "Healthcare, Biotech, Medical Technology, Life Sciences",
	"Climate":    "Clean Technology, Environment, Sustainability, Green Energy",
	"Fintech":    "Financial Technology, Banking, Payments, Blockchain",
	"Education":  "Education Technology, Learning, Training, Academic",
}

var stageExpansions = map[string]string{
	"Seed":     "Pre-Seed, Seed, Early Revenue",
	"Pre-Seed": "Idea, Pre-Seed, Seed",
	"Growth":   "Early Revenue, Growth, Scale-up",
}

// Apply maps a chosen clarification option onto a copy of the criteria.
// Matching is case-insensitive substring on the option text; an unrecognized
// option returns the criteria unchanged. The input is never mutated.
func Apply(criteria grant.SearchCriteria, choice string) grant.SearchCriteria {
	out := criteria
	lower := strings.ToLower(choice)

	switch {
	case strings.Contains(lower, "global grants"):
		out.Region = "Global"
		out.ExpandGeographic = true

	case strings.Contains(lower, "just your region"):
		out.GeographicFocus = "regional"

	case strings.Contains(lower, "non-dilutive grants only"):
		out.NonDilutiveOnly = true

	case strings.Contains(lower, "related industries"):
		if out.Industry != "" {
			expanded, ok := sectorExpansions[out.Industry]
			if !ok {
				expanded = out.Industry
			}
			out.SectorExpanded = expanded
		}

	case strings.Contains(lower, "earlier/later stage"):
		expanded, ok := stageExpansions[out.Stage]
		if !ok {
			expanded = out.Stage
		}
		out.StageExpanded = expanded

	case strings.Contains(lower, "most relevant"):
		out.BoostRelevance = true
		out.LimitResults = 10

	case strings.Contains(lower, "deadline proximity"), strings.Contains(lower, "closing soon"):
		out.DeadlineFilter = "next_60_days"

	case strings.Contains(lower, "general grant results"):
		out.FallbackMode = true
		out.NonDilutiveOnly = false
		out.FounderType = ""

	case strings.Contains(lower, "that's correct"):
		out.Confirmed = true
	}

	return out
}
