package rules

import (
	"fmt"
	"sort"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
)

// MergePolicy selects how weight contributions from multiple matching
// rules combine per candidate key.
type MergePolicy string

const (
	// MergeSum adds contributions. Default policy.
	MergeSum MergePolicy = "sum"
	// MergeMax keeps the largest single contribution per key.
	MergeMax MergePolicy = "max"
	// MergeOverride lets the highest-priority rule naming a key set it.
	MergeOverride MergePolicy = "override"
)

// ParsePolicy validates a policy string from configuration.
func ParsePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case MergeSum, MergeMax, MergeOverride:
		return MergePolicy(s), nil
	case "":
		return MergeSum, nil
	}
	return "", fmt.Errorf("unknown merge policy %q: %w", s, model.ErrValidation)
}

// Contribution records what one matched rule added, for the reasoning
// trail stored alongside each generation.
type Contribution struct {
	RuleID           string             `json:"ruleId"`
	Segment          model.Segment      `json:"segment"`
	Priority         int                `json:"priority"`
	StyleWeights     map[string]float64 `json:"styleWeights,omitempty"`
	CharacterWeights map[string]float64 `json:"characterWeights,omitempty"`
	Tags             []string           `json:"tags,omitempty"`
}

// Resolution is the merged output of all rules matching one request.
type Resolution struct {
	RulesetID        string             `json:"rulesetId"`
	StyleWeights     map[string]float64 `json:"styleWeights"`
	CharacterWeights map[string]float64 `json:"characterWeights"`
	Tags             []string           `json:"tags,omitempty"`
	Fallback         bool               `json:"fallback,omitempty"`
	Contributions    []Contribution     `json:"contributions,omitempty"`
}

// Merge combines matched rules under the given policy. Rules are
// considered in priority-descending order (stable on input order for
// ties), which fixes tag ordering and the override winner. Keys whose
// merged weight is not positive are dropped entirely so they never
// participate in sampling.
func Merge(matched []model.Rule, policy MergePolicy) Resolution {
	ordered := make([]model.Rule, len(matched))
	copy(ordered, matched)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	res := Resolution{
		StyleWeights:     map[string]float64{},
		CharacterWeights: map[string]float64{},
	}

	seenTag := map[string]bool{}
	for _, r := range ordered {
		mergeInto(res.StyleWeights, r.StyleWeights, policy)
		mergeInto(res.CharacterWeights, r.CharacterWeights, policy)
		for _, tag := range r.PromptTags {
			if !seenTag[tag] {
				seenTag[tag] = true
				res.Tags = append(res.Tags, tag)
			}
		}
		res.Contributions = append(res.Contributions, Contribution{
			RuleID:           r.RuleID,
			Segment:          r.Segment,
			Priority:         r.Priority,
			StyleWeights:     r.StyleWeights,
			CharacterWeights: r.CharacterWeights,
			Tags:             r.PromptTags,
		})
	}

	dropNonPositive(res.StyleWeights)
	dropNonPositive(res.CharacterWeights)
	return res
}

func mergeInto(acc map[string]float64, contrib map[string]float64, policy MergePolicy) {
	for k, w := range contrib {
		switch policy {
		case MergeMax:
			if w > acc[k] {
				acc[k] = w
			}
		case MergeOverride:
			// Rules arrive priority-descending: first writer wins.
			if _, ok := acc[k]; !ok {
				acc[k] = w
			}
		default: // MergeSum
			acc[k] += w
		}
	}
}

func dropNonPositive(m map[string]float64) {
	for k, w := range m {
		if w <= 0 {
			delete(m, k)
		}
	}
}
