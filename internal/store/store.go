package store

import (
	"context"
	"time"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres for
// Supabase, fake for tests).
type Store interface {
	Profiles() Profiles
	Artifacts() Artifacts
	Rules() Rules
	Roster() Roster
	Assignments() Assignments
}

type Profiles interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Upsert(ctx context.Context, p *model.Profile) (*model.Profile, error)
}

// Artifacts persists generated horoscopes keyed on (userID, date).
type Artifacts interface {
	Get(ctx context.Context, userID, date string) (*model.Artifact, error)
	// Upsert merges on the (userID, date) uniqueness constraint with
	// preserve semantics: non-empty text fields survive an image-only
	// refresh and vice versa.
	Upsert(ctx context.Context, a *model.Artifact) (*model.Artifact, error)
	// ListDates returns up to limit dates with a stored artifact for
	// the user, most recent first. A non-positive limit means 30.
	ListDates(ctx context.Context, userID string, limit int) ([]string, error)
}

type Rules interface {
	ActiveRuleset(ctx context.Context) (*model.Ruleset, error)
	RulesForSegments(ctx context.Context, rulesetID string, segments []model.Segment) ([]model.Rule, error)
	Styles(ctx context.Context) ([]model.Style, error)
	Characters(ctx context.Context) ([]string, error)
}

type Roster interface {
	ListActive(ctx context.Context) ([]*model.Member, error)
	// SetCurator grants the capability flag to userID and clears it
	// from everyone else.
	SetCurator(ctx context.Context, userID string) error
}

// Assignments persists curator periods. Periods are half-open
// [StartDate, EndDate): a period ending on a day boundary does not
// overlap one starting there, so back-to-back weekly rotations tile.
type Assignments interface {
	Insert(ctx context.Context, a *model.Assignment) (*model.Assignment, error)
	// Recent returns up to limit assignments, most recent first.
	Recent(ctx context.Context, limit int) ([]*model.Assignment, error)
	FindOverlapping(ctx context.Context, start, end time.Time) ([]*model.Assignment, error)
	Current(ctx context.Context, at time.Time) (*model.Assignment, error)
}
