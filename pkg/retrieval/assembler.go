// Package retrieval turns ranked index hits into the two lists a chat turn
// needs: grounding context for the model and product suggestions for the user.
package retrieval

import (
	"fmt"

	"swift-ai-market/pkg/apperr"
	"swift-ai-market/pkg/vectorindex"
)

const (
	DefaultContextThreshold    = 0.5
	DefaultSuggestionThreshold = 0.7
	DefaultContextLimit        = 5
	DefaultSuggestionLimit     = 3
)

type Thresholds struct {
	Context         float64
	Suggestion      float64
	ContextLimit    int
	SuggestionLimit int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Context:         DefaultContextThreshold,
		Suggestion:      DefaultSuggestionThreshold,
		ContextLimit:    DefaultContextLimit,
		SuggestionLimit: DefaultSuggestionLimit,
	}
}

// Validate enforces Suggestion >= Context so that every suggestion is also
// part of the context handed to the model.
func (t Thresholds) Validate() error {
	if t.Context < 0 || t.Context > 1 || t.Suggestion < 0 || t.Suggestion > 1 {
		return fmt.Errorf("%w: thresholds must be within [0,1] (context=%.2f, suggestion=%.2f)",
			apperr.ErrInvalidThresholds, t.Context, t.Suggestion)
	}
	if t.Suggestion < t.Context {
		return fmt.Errorf("%w (context=%.2f, suggestion=%.2f)", apperr.ErrInvalidThresholds, t.Context, t.Suggestion)
	}
	if t.ContextLimit <= 0 || t.SuggestionLimit <= 0 {
		return fmt.Errorf("%w: limits must be positive (context=%d, suggestion=%d)",
			apperr.ErrInvalidThresholds, t.ContextLimit, t.SuggestionLimit)
	}
	return nil
}

// View is the outcome of one retrieval. Degraded is set when the query could
// not be embedded and the lists are empty for that reason.
type View struct {
	Context     []vectorindex.Result `json:"context"`
	Suggestions []vectorindex.Result `json:"suggestions"`
	Degraded    bool                 `json:"degraded,omitempty"`
}

type Assembler struct {
	thresholds Thresholds
}

func NewAssembler(t Thresholds) (*Assembler, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{thresholds: t}, nil
}

func (a *Assembler) Thresholds() Thresholds {
	return a.thresholds
}

// Assemble accepts results in any order; the output lists are in index order
// (similarity desc, id asc).
func (a *Assembler) Assemble(ranked []vectorindex.Result) View {
	sorted := make([]vectorindex.Result, len(ranked))
	copy(sorted, ranked)
	vectorindex.SortResults(sorted)

	view := View{
		Context:     make([]vectorindex.Result, 0, a.thresholds.ContextLimit),
		Suggestions: make([]vectorindex.Result, 0, a.thresholds.SuggestionLimit),
	}

	for _, r := range sorted {
		if len(view.Context) == a.thresholds.ContextLimit {
			break
		}
		if r.Similarity < a.thresholds.Context {
			// Sorted input: nothing after this can qualify.
			break
		}
		view.Context = append(view.Context, r)
	}

	// Suggestions are drawn from the context list, never from the raw input.
	for _, r := range view.Context {
		if len(view.Suggestions) == a.thresholds.SuggestionLimit {
			break
		}
		if r.Similarity >= a.thresholds.Suggestion {
			view.Suggestions = append(view.Suggestions, r)
		}
	}

	return view
}
