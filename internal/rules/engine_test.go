package rules

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
)

type fakeRuleStore struct {
	ruleset    *model.Ruleset
	rules      []model.Rule
	styles     []model.Style
	characters []string

	rulesetCalls int
	rulesCalls   int
}

func (f *fakeRuleStore) ActiveRuleset(ctx context.Context) (*model.Ruleset, error) {
	f.rulesetCalls++
	return f.ruleset, nil
}

func (f *fakeRuleStore) RulesForSegments(ctx context.Context, rulesetID string, segments []model.Segment) ([]model.Rule, error) {
	f.rulesCalls++
	var out []model.Rule
	for _, r := range f.rules {
		if r.RulesetID != rulesetID {
			continue
		}
		for _, s := range segments {
			if r.Segment == s {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRuleStore) Styles(ctx context.Context) ([]model.Style, error) {
	return f.styles, nil
}

func (f *fakeRuleStore) Characters(ctx context.Context) ([]string, error) {
	return f.characters, nil
}

func newFakeRuleStore() *fakeRuleStore {
	return &fakeRuleStore{
		ruleset: &model.Ruleset{RulesetID: "rs1", Name: "default", Version: 1, Active: true},
		rules: []model.Rule{
			{
				RuleID:       "water-styles",
				RulesetID:    "rs1",
				Segment:      model.Segment{Type: model.SegmentElement, Value: "water"},
				StyleWeights: map[string]float64{"watercolor": 2.0, "oil_painting": 1.0},
				Priority:     1,
			},
		},
		styles: []model.Style{
			{Key: "watercolor", Label: "Watercolor", Family: "AnalogColor"},
			{Key: "pixel_art", Label: "Pixel Art", Family: "DigitalArt"},
		},
		characters: []string{"mermaid", "robot"},
	}
}

func TestEngineResolveMatchingRules(t *testing.T) {
	fs := newFakeRuleStore()
	e := NewEngine(fs, MergeSum, time.Minute, zerolog.Nop())

	segs := []model.Segment{
		{Type: model.SegmentSign, Value: "pisces"},
		{Type: model.SegmentElement, Value: "water"},
	}
	res, err := e.Resolve(context.Background(), segs)
	require.NoError(t, err)
	assert.Equal(t, "rs1", res.RulesetID)
	assert.False(t, res.Fallback)
	assert.Equal(t, map[string]float64{"watercolor": 2.0, "oil_painting": 1.0}, res.StyleWeights)
	assert.Len(t, res.Contributions, 1)
	assert.Equal(t, "water-styles", res.Contributions[0].RuleID)
}

func TestEngineUniformFallbackWhenNoRulesMatch(t *testing.T) {
	fs := newFakeRuleStore()
	e := NewEngine(fs, MergeSum, time.Minute, zerolog.Nop())

	segs := []model.Segment{{Type: model.SegmentElement, Value: "fire"}}
	res, err := e.Resolve(context.Background(), segs)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, map[string]float64{"watercolor": 1, "pixel_art": 1}, res.StyleWeights)
	assert.Equal(t, map[string]float64{"mermaid": 1, "robot": 1}, res.CharacterWeights)
}

func TestEngineCachesReferenceData(t *testing.T) {
	fs := newFakeRuleStore()
	e := NewEngine(fs, MergeSum, time.Minute, zerolog.Nop())

	segs := []model.Segment{{Type: model.SegmentElement, Value: "water"}}
	for i := 0; i < 3; i++ {
		_, err := e.Resolve(context.Background(), segs)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fs.rulesetCalls)
	assert.Equal(t, 1, fs.rulesCalls)
}
