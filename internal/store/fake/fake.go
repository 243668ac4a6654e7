// Package fake is an in-memory store.Store for tests and local
// development. It honors the same merge-preserve and uniqueness
// contracts as the postgres driver.
package fake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
)

type Store struct {
	mu sync.Mutex

	profiles    map[string]*model.Profile
	artifacts   map[string]*model.Artifact // key: userID + "|" + date
	ruleset     *model.Ruleset
	rules       []model.Rule
	styles      []model.Style
	characters  []string
	members     map[string]*model.Member
	assignments []*model.Assignment
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		profiles:  map[string]*model.Profile{},
		artifacts: map[string]*model.Artifact{},
		members:   map[string]*model.Member{},
	}
}

func (s *Store) Profiles() store.Profiles       { return (*profiles)(s) }
func (s *Store) Artifacts() store.Artifacts     { return (*artifacts)(s) }
func (s *Store) Rules() store.Rules             { return (*rulesStore)(s) }
func (s *Store) Roster() store.Roster           { return (*roster)(s) }
func (s *Store) Assignments() store.Assignments { return (*assignments)(s) }

// Seed helpers used by tests.

func (s *Store) SeedRuleset(rs *model.Ruleset, rules []model.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleset = rs
	s.rules = rules
}

func (s *Store) SeedCatalog(styles []model.Style, characters []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.styles = styles
	s.characters = characters
}

func (s *Store) SeedMember(m *model.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.members[m.UserID] = &cp
}

// --- Profiles ---

type profiles Store

func (p *profiles) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prof, ok := p.profiles[userID]; ok {
		cp := *prof
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (p *profiles) Upsert(ctx context.Context, in *model.Profile) (*model.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *in
	p.profiles[in.UserID] = &cp
	out := cp
	return &out, nil
}

// --- Artifacts ---

type artifacts Store

func artifactKey(userID, date string) string { return userID + "|" + date }

func (a *artifacts) Get(ctx context.Context, userID, date string) (*model.Artifact, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if art, ok := a.artifacts[artifactKey(userID, date)]; ok {
		cp := *art
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (a *artifacts) Upsert(ctx context.Context, in *model.Artifact) (*model.Artifact, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := artifactKey(in.UserID, in.Date)
	merged := *in
	if prev, ok := a.artifacts[key]; ok {
		// Merge-preserve: an image-only refresh keeps existing text and
		// vice versa. Never overwrite non-empty fields with emptier data.
		if merged.HoroscopeText == "" && prev.HoroscopeText != "" {
			merged.HoroscopeText = prev.HoroscopeText
			merged.Dos = prev.Dos
			merged.Donts = prev.Donts
		}
		if merged.ImageURL == "" && prev.ImageURL != "" {
			merged.ImageURL = prev.ImageURL
			merged.ImagePrompt = prev.ImagePrompt
		}
		if merged.PromptSlots == nil {
			merged.PromptSlots = prev.PromptSlots
		}
		if merged.StarSign == "" {
			merged.StarSign = prev.StarSign
		}
	}
	if merged.GeneratedAt.IsZero() {
		merged.GeneratedAt = time.Now().UTC()
	}
	a.artifacts[key] = &merged
	out := merged
	return &out, nil
}

func (a *artifacts) ListDates(ctx context.Context, userID string, limit int) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit <= 0 {
		limit = 30
	}
	var dates []string
	for _, art := range a.artifacts {
		if art.UserID == userID {
			dates = append(dates, art.Date)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > limit {
		dates = dates[:limit]
	}
	return dates, nil
}

// --- Rules ---

type rulesStore Store

func (r *rulesStore) ActiveRuleset(ctx context.Context) (*model.Ruleset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ruleset == nil {
		return nil, model.ErrNotFound
	}
	cp := *r.ruleset
	return &cp, nil
}

func (r *rulesStore) RulesForSegments(ctx context.Context, rulesetID string, segments []model.Segment) ([]model.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Rule
	for _, rule := range r.rules {
		if rule.RulesetID != rulesetID {
			continue
		}
		for _, s := range segments {
			if rule.Segment == s {
				out = append(out, rule)
				break
			}
		}
	}
	return out, nil
}

func (r *rulesStore) Styles(ctx context.Context) ([]model.Style, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Style(nil), r.styles...), nil
}

func (r *rulesStore) Characters(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.characters...), nil
}

// --- Roster ---

type roster Store

func (r *roster) ListActive(ctx context.Context) ([]*model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Member
	for _, m := range r.members {
		if m.Active {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *roster) SetCurator(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[userID]; !ok {
		return model.ErrNotFound
	}
	for id, m := range r.members {
		m.IsCurator = id == userID
	}
	return nil
}

// --- Assignments ---

type assignments Store

func (a *assignments) Insert(ctx context.Context, in *model.Assignment) (*model.Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := *in
	if cp.AssignmentID == "" {
		cp.AssignmentID = uuid.New().String()
	}
	a.assignments = append(a.assignments, &cp)
	out := cp
	return &out, nil
}

func (a *assignments) Recent(ctx context.Context, limit int) ([]*model.Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sorted := append([]*model.Assignment(nil), a.assignments...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].AssignmentDate.After(sorted[j].AssignmentDate)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]*model.Assignment, len(sorted))
	for i, asg := range sorted {
		cp := *asg
		out[i] = &cp
	}
	return out, nil
}

func (a *assignments) FindOverlapping(ctx context.Context, start, end time.Time) ([]*model.Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*model.Assignment
	for _, asg := range a.assignments {
		if asg.EndDate.After(start) && asg.StartDate.Before(end) {
			cp := *asg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (a *assignments) Current(ctx context.Context, at time.Time) (*model.Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, asg := range a.assignments {
		if !at.Before(asg.StartDate) && at.Before(asg.EndDate) {
			cp := *asg
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}
