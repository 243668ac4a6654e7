package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/rules"
)

func sampleInput() ComposeInput {
	return ComposeInput{
		Style:     model.Style{Key: "watercolor", Label: "Watercolor", Family: "AnalogColor"},
		Character: "sea_otter",
		Tags:      []string{"calm", "dreamy"},
		Name:      "Ida",
		Hobbies:   []string{"climbing", "film photography"},
		Sign:      "pisces",
		Element:   "water",
		Weekday:   "tuesday",
		Season:    "autumn",
		Prefs: Preferences{
			LikesFantasy: true,
			LikesScifi:   true,
			LikesCute:    true,
			LikesMinimal: true,
		},
	}
}

func TestComposeRendersAllClauses(t *testing.T) {
	got := Compose(sampleInput())

	assert.Contains(t, got.Prompt, "sea otter")
	assert.Contains(t, got.Prompt, "Ida")
	assert.Contains(t, got.Prompt, "water pisces")
	assert.Contains(t, got.Prompt, "climbing and film photography")
	assert.Contains(t, got.Prompt, "rendered in Watercolor style")
	assert.Contains(t, got.Prompt, "tuesday autumn mood")
	assert.Contains(t, got.Prompt, "calm and dreamy")
	assert.True(t, strings.HasSuffix(got.Prompt, "."))

	assert.Equal(t, model.PromptSlots{Style: "watercolor", Character: "sea_otter", Tags: []string{"calm", "dreamy"}}, got.Slots)
}

func TestComposeNegativeConstraints(t *testing.T) {
	in := sampleInput()
	in.Prefs = Preferences{HatesClowns: true} // and dislikes everything else
	got := Compose(in)

	assert.Contains(t, got.Prompt, "no clowns")
	assert.Contains(t, got.Prompt, "no fantasy elements")
	assert.Contains(t, got.Prompt, "no sci-fi elements")
	assert.Contains(t, got.Prompt, "nothing overly cute")
	assert.Contains(t, got.Prompt, "avoid stark minimalism")
}

func TestComposeNoNegativesWhenAllLiked(t *testing.T) {
	got := Compose(sampleInput())
	assert.NotContains(t, got.Prompt, "no clowns")
	assert.NotContains(t, got.Prompt, "no fantasy")
}

func TestComposeDeterministic(t *testing.T) {
	a := Compose(sampleInput())
	b := Compose(sampleInput())
	assert.Equal(t, a, b)
}

func TestComposeReasoningCarriesContributions(t *testing.T) {
	in := sampleInput()
	in.Decision = &rules.Resolution{
		RulesetID: "rs1",
		Contributions: []rules.Contribution{{
			RuleID:       "water-styles",
			Segment:      model.Segment{Type: model.SegmentElement, Value: "water"},
			StyleWeights: map[string]float64{"watercolor": 2.0},
		}},
	}
	got := Compose(in)
	assert.Equal(t, "rs1", got.Reasoning.RulesetID)
	assert.Equal(t, "watercolor", got.Reasoning.SelectedStyle)
	assert.Len(t, got.Reasoning.Contributions, 1)
}

func TestComposeAnonymousFallbackName(t *testing.T) {
	in := sampleInput()
	in.Name = "  "
	got := Compose(in)
	assert.Contains(t, got.Prompt, "a teammate")
}
