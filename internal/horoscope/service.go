// Package horoscope orchestrates the daily generation flow: cache
// check, segment resolution, rule weighting, sampling, prompt
// composition, the external generation call, and the merge-preserve
// upsert.
package horoscope

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulsedeck/pulsedeck/server/internal/freshness"
	"github.com/pulsedeck/pulsedeck/server/internal/generation"
	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/prompt"
	"github.com/pulsedeck/pulsedeck/server/internal/rules"
	"github.com/pulsedeck/pulsedeck/server/internal/sampling"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
	"github.com/pulsedeck/pulsedeck/server/internal/zodiac"
)

// State is a terminal state of one orchestration request.
type State string

const (
	StateCachedHit State = "cached_hit"
	StateGenerated State = "generated"
	StateFailed    State = "failed"
)

// Outcome is what the caller receives: a usable artifact or an
// explicit failure, never an ambiguous partial.
type Outcome struct {
	State    State           `json:"state"`
	Artifact *model.Artifact `json:"artifact,omitempty"`
}

// Service is the generation orchestrator.
type Service struct {
	store   store.Store
	engine  *rules.Engine
	sampler sampling.Source
	policy  freshness.Policy
	gen     generation.Generator
	loc     *time.Location
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(
	st store.Store,
	engine *rules.Engine,
	src sampling.Source,
	policy freshness.Policy,
	gen generation.Generator,
	loc *time.Location,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:   st,
		engine:  engine,
		sampler: src,
		policy:  policy,
		gen:     gen,
		loc:     loc,
		log:     log,
		now:     time.Now,
	}
}

// WithClock overrides the time source; tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Daily returns today's horoscope for the user, generating it if the
// cached artifact is missing, legacy, or expiring. The cache key is
// the user's date at local midnight in the service timezone, not UTC.
func (s *Service) Daily(ctx context.Context, userID string) (*Outcome, error) {
	now := s.now().In(s.loc)
	date := now.Format(time.DateOnly)

	cached, err := s.store.Artifacts().Get(ctx, userID, date)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return &Outcome{State: StateFailed}, fmt.Errorf("load artifact: %w", err)
	}
	if cached != nil && s.policy.Usable(cached, now) {
		return &Outcome{State: StateCachedHit, Artifact: cached}, nil
	}

	profile, err := s.store.Profiles().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return &Outcome{State: StateFailed}, fmt.Errorf("complete your profile: %w", model.ErrValidation)
		}
		return &Outcome{State: StateFailed}, fmt.Errorf("load profile: %w", err)
	}
	if strings.TrimSpace(profile.Birthday) == "" {
		return &Outcome{State: StateFailed}, fmt.Errorf("complete your profile: birthday missing: %w", model.ErrValidation)
	}

	composed, sign, err := s.compose(ctx, profile, now)
	if err != nil {
		return &Outcome{State: StateFailed}, err
	}

	result, err := s.gen.Generate(ctx, generation.Request{
		Prompt:     composed.Prompt,
		SourceText: fmt.Sprintf("Daily %s reading for %s", sign, date),
		Sign:       sign.String(),
	})
	if err != nil {
		s.log.Error().Stack().Err(err).Str("user_id", userID).Str("date", date).Msg("generation failed")
		return &Outcome{State: StateFailed}, err
	}

	slots := composed.Slots
	artifact, err := s.store.Artifacts().Upsert(ctx, &model.Artifact{
		UserID:        userID,
		Date:          date,
		StarSign:      sign.String(),
		HoroscopeText: result.HoroscopeText,
		Dos:           result.Dos,
		Donts:         result.Donts,
		ImageURL:      result.ImageURL,
		ImagePrompt:   composed.Prompt,
		PromptSlots:   &slots,
		GeneratedAt:   now,
	})
	if err != nil {
		return &Outcome{State: StateFailed}, fmt.Errorf("persist artifact: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("date", date).
		Str("style", slots.Style).
		Str("character", slots.Character).
		Bool("fallback", composed.Reasoning.Fallback).
		Msg("horoscope generated")
	return &Outcome{State: StateGenerated, Artifact: artifact}, nil
}

// compose runs the pure in-process stages: resolve, weight, sample,
// compose. Errors here indicate programmer or configuration bugs and
// fail loudly.
func (s *Service) compose(ctx context.Context, profile *model.Profile, now time.Time) (*prompt.Composed, zodiac.Sign, error) {
	segments, err := zodiac.Resolve(profile, now)
	if err != nil {
		return nil, "", err
	}
	sign := zodiac.Sign(segments[0].Value)

	resolution, err := s.engine.Resolve(ctx, segments)
	if err != nil {
		return nil, "", err
	}

	styleKey, err := sampling.Pick(resolution.StyleWeights, s.sampler)
	if err != nil {
		return nil, "", fmt.Errorf("sample style: %w", err)
	}
	character, err := sampling.Pick(resolution.CharacterWeights, s.sampler)
	if err != nil {
		return nil, "", fmt.Errorf("sample character: %w", err)
	}

	style, err := s.styleByKey(ctx, styleKey)
	if err != nil {
		return nil, "", err
	}

	composed := prompt.Compose(prompt.ComposeInput{
		Style:     style,
		Character: character,
		Tags:      resolution.Tags,
		Name:      profile.Name,
		Hobbies:   profile.Hobbies,
		Sign:      sign.String(),
		Element:   sign.Element(),
		Weekday:   strings.ToLower(now.Weekday().String()),
		Season:    zodiac.SeasonFor(now),
		Prefs: prompt.Preferences{
			LikesFantasy: profile.LikesFantasy,
			LikesScifi:   profile.LikesScifi,
			LikesCute:    profile.LikesCute,
			LikesMinimal: profile.LikesMinimal,
			HatesClowns:  profile.HatesClowns,
		},
		Decision: resolution,
	})
	return &composed, sign, nil
}

func (s *Service) styleByKey(ctx context.Context, key string) (model.Style, error) {
	styles, err := s.store.Rules().Styles(ctx)
	if err != nil {
		return model.Style{}, fmt.Errorf("load style catalog: %w", err)
	}
	for _, st := range styles {
		if st.Key == key {
			return st, nil
		}
	}
	// Rules may weight a style missing from the catalog table; derive a
	// display label rather than failing the whole generation.
	return model.Style{Key: key, Label: labelFromKey(key)}, nil
}

func labelFromKey(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
