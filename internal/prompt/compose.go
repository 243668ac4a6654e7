// Package prompt renders image-generation prompts from sampled
// selections. Everything here is deterministic; all randomness happens
// upstream in the sampler.
package prompt

import (
	"fmt"
	"strings"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/rules"
)

// ComposeInput bundles the sampled selections with the light
// personalization pulled from the user's profile.
type ComposeInput struct {
	Style     model.Style
	Character string
	Tags      []string

	Name     string
	Hobbies  []string
	Sign     string
	Element  string
	Weekday  string
	Season   string
	Prefs    Preferences
	Decision *rules.Resolution
}

// Preferences mirrors the profile's boolean content preferences.
type Preferences struct {
	LikesFantasy bool
	LikesScifi   bool
	LikesCute    bool
	LikesMinimal bool
	HatesClowns  bool
}

// Reasoning captures which segments produced which weight
// contributions and what was ultimately selected, so callers can audit
// a generation without re-deriving it.
type Reasoning struct {
	RulesetID         string               `json:"rulesetId,omitempty"`
	Fallback          bool                 `json:"fallback,omitempty"`
	SelectedStyle     string               `json:"selectedStyle"`
	SelectedCharacter string               `json:"selectedCharacter"`
	Contributions     []rules.Contribution `json:"contributions,omitempty"`
}

// Composed is the rendered prompt plus its audit trail.
type Composed struct {
	Prompt    string            `json:"prompt"`
	Slots     model.PromptSlots `json:"slots"`
	Reasoning Reasoning         `json:"reasoning"`
}

// Compose renders the prompt: subject clause, style directive, mood
// clause, then explicit negative constraints for every stated dislike.
func Compose(in ComposeInput) Composed {
	var clauses []string

	subject := fmt.Sprintf("A %s as the daily horoscope companion for %s, a %s %s sign",
		strings.ReplaceAll(in.Character, "_", " "), displayName(in.Name), in.Element, in.Sign)
	clauses = append(clauses, subject)

	if len(in.Hobbies) > 0 {
		clauses = append(clauses, fmt.Sprintf("subtly nodding to their love of %s", joinNatural(in.Hobbies)))
	}

	clauses = append(clauses, fmt.Sprintf("rendered in %s style", in.Style.Label))
	clauses = append(clauses, fmt.Sprintf("with a %s %s mood", in.Weekday, in.Season))

	if len(in.Tags) > 0 {
		clauses = append(clauses, "evoking "+joinNatural(in.Tags))
	}

	if neg := negativeClauses(in.Prefs); len(neg) > 0 {
		clauses = append(clauses, strings.Join(neg, ", "))
	}

	out := Composed{
		Prompt: strings.Join(clauses, ", ") + ".",
		Slots: model.PromptSlots{
			Style:     in.Style.Key,
			Character: in.Character,
			Tags:      in.Tags,
		},
		Reasoning: Reasoning{
			SelectedStyle:     in.Style.Key,
			SelectedCharacter: in.Character,
		},
	}
	if in.Decision != nil {
		out.Reasoning.RulesetID = in.Decision.RulesetID
		out.Reasoning.Fallback = in.Decision.Fallback
		out.Reasoning.Contributions = in.Decision.Contributions
	}
	return out
}

func negativeClauses(p Preferences) []string {
	var neg []string
	if p.HatesClowns {
		neg = append(neg, "no clowns")
	}
	if !p.LikesFantasy {
		neg = append(neg, "no fantasy elements")
	}
	if !p.LikesScifi {
		neg = append(neg, "no sci-fi elements")
	}
	if !p.LikesCute {
		neg = append(neg, "nothing overly cute")
	}
	if !p.LikesMinimal {
		neg = append(neg, "avoid stark minimalism")
	}
	return neg
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "a teammate"
	}
	return name
}

func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
