package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
)

// Run exercises a compliance suite against a store.Store
// implementation. Implementations should provide a clean, isolated
// store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()

	// Profiles
	if _, err := s.Profiles().Get(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Profiles.Get missing: want ErrNotFound, got %v", err)
	}
	p := &model.Profile{UserID: userID, Name: "Ida", Birthday: "03/15", Hobbies: []string{"climbing"}}
	if _, err := s.Profiles().Upsert(ctx, p); err != nil {
		t.Fatalf("Profiles.Upsert: %v", err)
	}
	if got, err := s.Profiles().Get(ctx, userID); err != nil || got.Name != "Ida" || len(got.Hobbies) != 1 {
		t.Fatalf("Profiles.Get: got=%+v err=%v", got, err)
	}

	// Artifacts: text-first then image-only refresh must merge-preserve.
	date := "2026-09-01"
	if _, err := s.Artifacts().Get(ctx, userID, date); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Artifacts.Get missing: want ErrNotFound, got %v", err)
	}
	if _, err := s.Artifacts().Upsert(ctx, &model.Artifact{
		UserID: userID, Date: date,
		StarSign:      "pisces",
		HoroscopeText: "Original text.",
		Dos:           []string{"a"}, Donts: []string{"b"},
	}); err != nil {
		t.Fatalf("Artifacts.Upsert text: %v", err)
	}
	merged, err := s.Artifacts().Upsert(ctx, &model.Artifact{
		UserID: userID, Date: date,
		ImageURL:    "https://cdn.example.com/i.png",
		ImagePrompt: "prompt",
		PromptSlots: &model.PromptSlots{Style: "watercolor", Character: "sea_otter", Tags: []string{"calm"}},
	})
	if err != nil {
		t.Fatalf("Artifacts.Upsert image: %v", err)
	}
	if merged.HoroscopeText != "Original text." || merged.ImageURL == "" || merged.PromptSlots == nil {
		t.Fatalf("Artifacts.Upsert merge-preserve violated: %+v", merged)
	}
	if merged.StarSign != "pisces" {
		t.Fatalf("Artifacts.Upsert dropped star sign: %+v", merged)
	}
	if got, err := s.Artifacts().Get(ctx, userID, date); err != nil || got.HoroscopeText != "Original text." || got.ImageURL == "" {
		t.Fatalf("Artifacts.Get after merge: got=%+v err=%v", got, err)
	}

	// ListDates: most recent first, limit respected.
	if _, err := s.Artifacts().Upsert(ctx, &model.Artifact{
		UserID: userID, Date: "2026-08-31", HoroscopeText: "Earlier.",
	}); err != nil {
		t.Fatalf("Artifacts.Upsert earlier date: %v", err)
	}
	dates, err := s.Artifacts().ListDates(ctx, userID, 10)
	if err != nil || len(dates) != 2 || dates[0] != date || dates[1] != "2026-08-31" {
		t.Fatalf("Artifacts.ListDates: dates=%v err=%v", dates, err)
	}
	if dates, err := s.Artifacts().ListDates(ctx, userID, 1); err != nil || len(dates) != 1 || dates[0] != date {
		t.Fatalf("Artifacts.ListDates limit: dates=%v err=%v", dates, err)
	}
	if dates, err := s.Artifacts().ListDates(ctx, userID, 0); err != nil || len(dates) != 2 {
		t.Fatalf("Artifacts.ListDates default limit: dates=%v err=%v", dates, err)
	}

	// Roster & assignments
	m1 := &model.Member{UserID: userID, Name: "Ida", Active: true}
	seedMember(t, s, m1)
	members, err := s.Roster().ListActive(ctx)
	if err != nil || len(members) == 0 {
		t.Fatalf("Roster.ListActive: n=%d err=%v", len(members), err)
	}
	if err := s.Roster().SetCurator(ctx, userID); err != nil {
		t.Fatalf("Roster.SetCurator: %v", err)
	}
	if err := s.Roster().SetCurator(ctx, "nope-"+uuid.New().String()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Roster.SetCurator unknown: want ErrNotFound, got %v", err)
	}

	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	a1, err := s.Assignments().Insert(ctx, &model.Assignment{
		CuratorUserID:  userID,
		CuratorName:    "Ida",
		AssignmentDate: base,
		StartDate:      base.AddDate(0, 0, 3),
		EndDate:        base.AddDate(0, 0, 10),
	})
	if err != nil || a1.AssignmentID == "" {
		t.Fatalf("Assignments.Insert: a=%+v err=%v", a1, err)
	}
	if recent, err := s.Assignments().Recent(ctx, 5); err != nil || len(recent) != 1 {
		t.Fatalf("Assignments.Recent: n=%d err=%v", len(recent), err)
	}
	if overlap, err := s.Assignments().FindOverlapping(ctx, base.AddDate(0, 0, 5), base.AddDate(0, 0, 12)); err != nil || len(overlap) != 1 {
		t.Fatalf("Assignments.FindOverlapping hit: n=%d err=%v", len(overlap), err)
	}
	if overlap, err := s.Assignments().FindOverlapping(ctx, base.AddDate(0, 0, 20), base.AddDate(0, 0, 27)); err != nil || len(overlap) != 0 {
		t.Fatalf("Assignments.FindOverlapping miss: n=%d err=%v", len(overlap), err)
	}
	// Periods are half-open: a query starting exactly on the stored
	// end date does not overlap, so weekly periods can tile.
	if overlap, err := s.Assignments().FindOverlapping(ctx, base.AddDate(0, 0, 10), base.AddDate(0, 0, 17)); err != nil || len(overlap) != 0 {
		t.Fatalf("Assignments.FindOverlapping boundary: n=%d err=%v", len(overlap), err)
	}
	if cur, err := s.Assignments().Current(ctx, base.AddDate(0, 0, 4)); err != nil || cur.CuratorName != "Ida" {
		t.Fatalf("Assignments.Current: a=%+v err=%v", cur, err)
	}
	if _, err := s.Assignments().Current(ctx, base.AddDate(0, 0, 10)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Assignments.Current at end boundary: want ErrNotFound, got %v", err)
	}
	if _, err := s.Assignments().Current(ctx, base.AddDate(0, 0, 20)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Assignments.Current outside period: want ErrNotFound, got %v", err)
	}
}

// seedMember inserts a roster member through whatever mechanism the
// implementation provides.
type memberSeeder interface {
	SeedMember(m *model.Member)
}

func seedMember(t *testing.T, s store.Store, m *model.Member) {
	t.Helper()
	if seeder, ok := s.(memberSeeder); ok {
		seeder.SeedMember(m)
		return
	}
	t.Skip("store implementation does not support member seeding in tests")
}
