// Package curator implements fair curator rotation: recency-excluding
// uniform selection with overlap-checked assignment periods.
package curator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/notify"
	"github.com/pulsedeck/pulsedeck/server/internal/sampling"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
)

// Assignment period offsets, fixed by policy: the new curator gets a
// 3-day heads-up, then holds the role for a week.
const (
	StartOffsetDays = 3
	PeriodDays      = 7
)

type Service struct {
	store    store.Store
	sampler  sampling.Source
	notifier notify.Notifier
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(st store.Store, src sampling.Source, n notify.Notifier, loc *time.Location, log zerolog.Logger) *Service {
	return &Service{
		store:    st,
		sampler:  src,
		notifier: n,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source; tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Rotate selects the next curator and commits the assignment.
// Members named in the most recent N assignments (N = roster size) are
// excluded, so nobody repeats until everyone has had a turn. If the
// exclusion empties the pool (roster shrank), the full roster is used.
// The overlap re-check immediately before commit is the correctness
// gate; periods are half-open, so a weekly rotation may start a new
// period exactly on the previous end date. Notification failure never
// fails the rotation.
func (s *Service) Rotate(ctx context.Context, assignedBy string, manual bool) (*model.Assignment, error) {
	roster, err := s.store.Roster().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("no active roster members: %w", model.ErrValidation)
	}

	recent, err := s.store.Assignments().Recent(ctx, len(roster))
	if err != nil {
		return nil, fmt.Errorf("load recent assignments: %w", err)
	}

	pool := eligible(roster, recent)
	if len(pool) == 0 {
		pool = roster
	}

	byID := make(map[string]*model.Member, len(pool))
	ids := make([]string, 0, len(pool))
	for _, m := range pool {
		byID[m.UserID] = m
		ids = append(ids, m.UserID)
	}
	pickedID, err := sampling.Pick(sampling.Uniform(ids), s.sampler)
	if err != nil {
		return nil, fmt.Errorf("draw curator: %w", err)
	}
	picked := byID[pickedID]

	assignmentDate := midnight(s.now().In(s.loc))
	start := assignmentDate.AddDate(0, 0, StartOffsetDays)
	end := start.AddDate(0, 0, PeriodDays)

	overlapping, err := s.store.Assignments().FindOverlapping(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, &model.SchedulingConflictError{Conflict: *overlapping[0]}
	}

	// Commit the assignment row first; the capability flag only moves
	// once the rotation is durably recorded.
	committed, err := s.store.Assignments().Insert(ctx, &model.Assignment{
		CuratorUserID:    picked.UserID,
		CuratorName:      picked.Name,
		AssignmentDate:   assignmentDate,
		StartDate:        start,
		EndDate:          end,
		IsManualOverride: manual,
		AssignedBy:       assignedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}

	if err := s.store.Roster().SetCurator(ctx, picked.UserID); err != nil {
		return nil, fmt.Errorf("grant curator capability: %w", err)
	}

	if err := s.notifier.Notify(ctx, notify.Payload{
		UserID: picked.UserID,
		Title:  "You're up next as curator",
		Text: fmt.Sprintf("Your curation week runs %s through %s.",
			start.Format(time.DateOnly), end.Format(time.DateOnly)),
	}); err != nil {
		s.log.Warn().Err(err).Str("user_id", picked.UserID).Msg("curator notification failed")
	}

	return committed, nil
}

// Current returns the assignment covering today, if any.
func (s *Service) Current(ctx context.Context) (*model.Assignment, error) {
	return s.store.Assignments().Current(ctx, s.now().In(s.loc))
}

// History returns recent assignments, most recent first.
func (s *Service) History(ctx context.Context, limit int) ([]*model.Assignment, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.Assignments().Recent(ctx, limit)
}

// eligible filters out members named in the recent assignment window.
func eligible(roster []*model.Member, recent []*model.Assignment) []*model.Member {
	excluded := make(map[string]bool, len(recent))
	for _, a := range recent {
		excluded[a.CuratorName] = true
	}
	var pool []*model.Member
	for _, m := range roster {
		if !excluded[m.Name] {
			pool = append(pool, m)
		}
	}
	return pool
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
