// Package rules looks up and merges weighting rules for one resolution.
package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
)

// Engine resolves segments against the active ruleset. Reference data
// (active ruleset, matched rules, style/character catalogs) is cached
// in-process with a short TTL since it changes rarely and every daily
// generation reads it.
type Engine struct {
	rules  store.Rules
	policy MergePolicy
	cache  *gocache.Cache
	log    zerolog.Logger
}

func NewEngine(rules store.Rules, policy MergePolicy, ttl time.Duration, log zerolog.Logger) *Engine {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Engine{
		rules:  rules,
		policy: policy,
		cache:  gocache.New(ttl, 2*ttl),
		log:    log,
	}
}

// Resolve merges all rules matching the given segments in the active
// ruleset. When nothing matches it falls back to uniform weights over
// the full style and character catalogs; the pipeline always produces
// a selection. An empty catalog is a configuration bug surfaced later
// by the sampler, never papered over here.
func (e *Engine) Resolve(ctx context.Context, segments []model.Segment) (*Resolution, error) {
	rs, err := e.activeRuleset(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active ruleset: %w", err)
	}

	matched, err := e.rulesForSegments(ctx, rs.RulesetID, segments)
	if err != nil {
		return nil, fmt.Errorf("load rules for ruleset %s: %w", rs.RulesetID, err)
	}

	if len(matched) == 0 {
		return e.fallback(ctx, rs.RulesetID, segments)
	}

	res := Merge(matched, e.policy)
	res.RulesetID = rs.RulesetID
	return &res, nil
}

func (e *Engine) fallback(ctx context.Context, rulesetID string, segments []model.Segment) (*Resolution, error) {
	styles, err := e.styleCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load style catalog: %w", err)
	}
	characters, err := e.characterCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load character catalog: %w", err)
	}

	e.log.Warn().
		Str("ruleset_id", rulesetID).
		Int("segments", len(segments)).
		Msg("no rules matched; using uniform fallback weights")

	res := &Resolution{
		RulesetID:        rulesetID,
		StyleWeights:     map[string]float64{},
		CharacterWeights: map[string]float64{},
		Fallback:         true,
	}
	for _, s := range styles {
		res.StyleWeights[s.Key] = 1
	}
	for _, c := range characters {
		res.CharacterWeights[c] = 1
	}
	return res, nil
}

func (e *Engine) activeRuleset(ctx context.Context) (*model.Ruleset, error) {
	const key = "ruleset:active"
	if v, ok := e.cache.Get(key); ok {
		return v.(*model.Ruleset), nil
	}
	rs, err := e.rules.ActiveRuleset(ctx)
	if err != nil {
		return nil, err
	}
	e.cache.SetDefault(key, rs)
	return rs, nil
}

func (e *Engine) rulesForSegments(ctx context.Context, rulesetID string, segments []model.Segment) ([]model.Rule, error) {
	key := rulesKey(rulesetID, segments)
	if v, ok := e.cache.Get(key); ok {
		return v.([]model.Rule), nil
	}
	matched, err := e.rules.RulesForSegments(ctx, rulesetID, segments)
	if err != nil {
		return nil, err
	}
	e.cache.SetDefault(key, matched)
	return matched, nil
}

func (e *Engine) styleCatalog(ctx context.Context) ([]model.Style, error) {
	const key = "catalog:styles"
	if v, ok := e.cache.Get(key); ok {
		return v.([]model.Style), nil
	}
	styles, err := e.rules.Styles(ctx)
	if err != nil {
		return nil, err
	}
	e.cache.SetDefault(key, styles)
	return styles, nil
}

func (e *Engine) characterCatalog(ctx context.Context) ([]string, error) {
	const key = "catalog:characters"
	if v, ok := e.cache.Get(key); ok {
		return v.([]string), nil
	}
	characters, err := e.rules.Characters(ctx)
	if err != nil {
		return nil, err
	}
	e.cache.SetDefault(key, characters)
	return characters, nil
}

func rulesKey(rulesetID string, segments []model.Segment) string {
	var b strings.Builder
	b.WriteString("rules:")
	b.WriteString(rulesetID)
	for _, s := range segments {
		b.WriteByte('|')
		b.WriteString(string(s.Type))
		b.WriteByte('=')
		b.WriteString(s.Value)
	}
	return b.String()
}
