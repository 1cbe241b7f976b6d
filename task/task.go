package task

import (
	"github.com/randalmurphal/llmkit/model"
)

// Type is an LLM task performed during a review run. It determines which
// model tier is appropriate.
type Type string

const (
	// ParseRequest extracts the repository and focus from a chat message.
	ParseRequest Type = "parse_request"
	// PrioritizeFiles picks the files worth reviewing.
	PrioritizeFiles Type = "prioritize_files"
	// ReviewFile produces the structured finding for one file.
	ReviewFile Type = "review_file"
	// DeepReview is ReviewFile for repositories flagged for extra scrutiny.
	DeepReview Type = "deep_review"
)

// DefaultModelMap maps task types to default models.
var DefaultModelMap = map[Type]model.ModelName{
	ParseRequest:    model.ModelHaiku,
	PrioritizeFiles: model.ModelHaiku,
	ReviewFile:      model.ModelSonnet,
	DeepReview:      model.ModelOpus,
}

// TierForTask returns the appropriate tier for a task type.
func TierForTask(t Type) model.Tier {
	switch t {
	case DeepReview:
		return model.TierThinking
	case ParseRequest, PrioritizeFiles:
		return model.TierFast
	default:
		return model.TierDefault
	}
}

// NewSelector creates a model selector using the review task-to-tier mapping.
func NewSelector(opts ...model.SelectorOption) *model.Selector {
	allOpts := append([]model.SelectorOption{
		model.WithTierFunc(func(task any) model.Tier {
			if t, ok := task.(Type); ok {
				return TierForTask(t)
			}
			return model.TierDefault
		}),
	}, opts...)

	return model.NewSelector(allOpts...)
}

// SelectModel returns the model for t. overrides (from configuration) win
// over DefaultModelMap; unknown tasks fall back to their tier.
func SelectModel(t Type, overrides map[Type]string) model.ModelName {
	if m, ok := overrides[t]; ok && m != "" {
		return model.ModelName(m)
	}
	if m, ok := DefaultModelMap[t]; ok {
		return m
	}
	switch TierForTask(t) {
	case model.TierThinking:
		return model.ModelOpus
	case model.TierFast:
		return model.ModelHaiku
	default:
		return model.ModelSonnet
	}
}
