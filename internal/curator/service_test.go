package curator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/notify"
	"github.com/pulsedeck/pulsedeck/server/internal/sampling"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
	"github.com/pulsedeck/pulsedeck/server/internal/store/fake"
)

type recordingNotifier struct {
	calls []notify.Payload
	err   error
}

func (n *recordingNotifier) Notify(ctx context.Context, p notify.Payload) error {
	n.calls = append(n.calls, p)
	return n.err
}

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func rosterStore(names ...string) *fake.Store {
	st := fake.New()
	for i, name := range names {
		st.SeedMember(&model.Member{UserID: fmt.Sprintf("u%d", i+1), Name: name, Active: true})
	}
	return st
}

func newTestService(st *fake.Store, n notify.Notifier) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	return NewService(st, sampling.CryptoSource{}, n, time.UTC, zerolog.Nop()).
		WithClock(func() time.Time { return testNow })
}

func TestRotateCommitsAssignmentWithFixedOffsets(t *testing.T) {
	st := rosterStore("Ada", "Ben", "Cleo")
	n := &recordingNotifier{}
	svc := newTestService(st, n)

	a, err := svc.Rotate(context.Background(), "ops", false)
	require.NoError(t, err)

	wantStart := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), a.AssignmentDate)
	assert.Equal(t, wantStart, a.StartDate)
	assert.Equal(t, wantStart.AddDate(0, 0, 7), a.EndDate)
	assert.False(t, a.IsManualOverride)
	assert.Equal(t, "ops", a.AssignedBy)

	// Capability flag granted to exactly the chosen member.
	members, err := st.Roster().ListActive(context.Background())
	require.NoError(t, err)
	curators := 0
	for _, m := range members {
		if m.IsCurator {
			curators++
			assert.Equal(t, a.CuratorUserID, m.UserID)
		}
	}
	assert.Equal(t, 1, curators)

	require.Len(t, n.calls, 1)
	assert.Equal(t, a.CuratorUserID, n.calls[0].UserID)
}

func TestRotateExcludesRecentFullCycle(t *testing.T) {
	// P4: with roster size N, a member is ineligible for the N-1
	// assignments after their own, then eligible again.
	st := rosterStore("Ada", "Ben", "Cleo")
	svc := newTestService(st, nil)
	ctx := context.Background()

	day := testNow
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		svc.WithClock(func() time.Time { return day })
		a, err := svc.Rotate(ctx, "ops", false)
		require.NoError(t, err)
		assert.False(t, seen[a.CuratorName], "repeat before full rotation: %s", a.CuratorName)
		seen[a.CuratorName] = true
		day = day.AddDate(0, 0, 11) // past the previous period end
	}
	assert.Len(t, seen, 3)

	// Fourth rotation: pool was emptied, reset to full roster.
	svc.WithClock(func() time.Time { return day })
	a, err := svc.Rotate(ctx, "ops", false)
	require.NoError(t, err)
	assert.True(t, seen[a.CuratorName])
}

func TestRotatePoolResetWhenHistoryCoversRoster(t *testing.T) {
	// Scenario E: roster [A,B,C], last 3 assignments [C,B,A] → pool is
	// empty before fallback, then resets to the full roster.
	st := rosterStore("Ada", "Ben", "Cleo")
	ctx := context.Background()
	for i, name := range []string{"Ada", "Ben", "Cleo"} {
		_, err := st.Assignments().Insert(ctx, &model.Assignment{
			CuratorUserID:  fmt.Sprintf("u%d", i+1),
			CuratorName:    name,
			AssignmentDate: testNow.AddDate(0, 0, -30+i*10),
			StartDate:      testNow.AddDate(0, 0, -30+i*10+3),
			EndDate:        testNow.AddDate(0, 0, -30+i*10+10),
		})
		require.NoError(t, err)
	}

	a, err := newTestService(st, nil).Rotate(ctx, "ops", false)
	require.NoError(t, err)
	assert.Contains(t, []string{"Ada", "Ben", "Cleo"}, a.CuratorName)
}

func TestRotateWeeklyCadenceTilesPeriods(t *testing.T) {
	// A weekly rotation schedule produces back-to-back periods: the new
	// start lands exactly on the previous end date and must not be
	// treated as an overlap.
	st := rosterStore("Ada", "Ben", "Cleo")
	svc := newTestService(st, nil)
	ctx := context.Background()

	monday := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return monday })
	first, err := svc.Rotate(ctx, "scheduler", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), first.StartDate)
	assert.Equal(t, time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC), first.EndDate)

	svc.WithClock(func() time.Time { return monday.AddDate(0, 0, 7) })
	second, err := svc.Rotate(ctx, "scheduler", false)
	require.NoError(t, err, "weekly rotation must not conflict with the previous period's end date")
	assert.Equal(t, first.EndDate, second.StartDate)

	// The handover instant belongs to the new period.
	svc.WithClock(func() time.Time { return first.EndDate })
	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.CuratorName, cur.CuratorName)
}

func TestRotateSchedulingConflict(t *testing.T) {
	// P5: a committed overlapping period blocks the rotation.
	st := rosterStore("Ada", "Ben", "Cleo")
	ctx := context.Background()
	existing, err := st.Assignments().Insert(ctx, &model.Assignment{
		CuratorUserID:  "u9",
		CuratorName:    "Drew",
		AssignmentDate: testNow.AddDate(0, 0, -2),
		StartDate:      testNow.AddDate(0, 0, 1),
		EndDate:        testNow.AddDate(0, 0, 8),
	})
	require.NoError(t, err)

	_, err = newTestService(st, nil).Rotate(ctx, "ops", false)
	require.Error(t, err)

	var sce *model.SchedulingConflictError
	require.True(t, errors.As(err, &sce))
	assert.Equal(t, existing.CuratorName, sce.Conflict.CuratorName)
	assert.Equal(t, "assignment overlaps existing curator period Drew (2026-09-02 to 2026-09-09)", sce.Error())

	// Nothing new committed.
	recent, err := st.Assignments().Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

type failingInsertStore struct {
	*fake.Store
	insertErr error
}

func (s *failingInsertStore) Assignments() store.Assignments {
	return &failingInserts{Assignments: s.Store.Assignments(), err: s.insertErr}
}

type failingInserts struct {
	store.Assignments
	err error
}

func (a *failingInserts) Insert(ctx context.Context, in *model.Assignment) (*model.Assignment, error) {
	return nil, a.err
}

func TestRotateInsertFailureLeavesCapabilityUntouched(t *testing.T) {
	inner := rosterStore("Ada", "Ben")
	st := &failingInsertStore{Store: inner, insertErr: errors.New("insert failed")}
	svc := NewService(st, sampling.CryptoSource{}, notify.Nop{}, time.UTC, zerolog.Nop()).
		WithClock(func() time.Time { return testNow })

	_, err := svc.Rotate(context.Background(), "ops", false)
	require.Error(t, err)

	members, err := inner.Roster().ListActive(context.Background())
	require.NoError(t, err)
	for _, m := range members {
		assert.False(t, m.IsCurator, "capability flag moved despite failed assignment insert")
	}
}

func TestRotateNotificationFailureDoesNotFail(t *testing.T) {
	st := rosterStore("Ada")
	n := &recordingNotifier{err: errors.New("webhook down")}

	a, err := newTestService(st, n).Rotate(context.Background(), "ops", false)
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.Len(t, n.calls, 1)
}

func TestRotateEmptyRoster(t *testing.T) {
	st := fake.New()
	_, err := newTestService(st, nil).Rotate(context.Background(), "ops", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestCurrentAndHistory(t *testing.T) {
	st := rosterStore("Ada")
	svc := newTestService(st, nil)
	ctx := context.Background()

	_, err := svc.Current(ctx)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = st.Assignments().Insert(ctx, &model.Assignment{
		CuratorUserID:  "u1",
		CuratorName:    "Ada",
		AssignmentDate: testNow.AddDate(0, 0, -5),
		StartDate:      testNow.AddDate(0, 0, -2),
		EndDate:        testNow.AddDate(0, 0, 5),
	})
	require.NoError(t, err)

	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", cur.CuratorName)

	hist, err := svc.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}
