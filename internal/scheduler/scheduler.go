// Package scheduler runs the in-process periodic jobs: the daily
// horoscope pre-generation sweep and the weekly curator rotation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pulsedeck/pulsedeck/server/internal/curator"
	"github.com/pulsedeck/pulsedeck/server/internal/horoscope"
	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
)

// Config holds the cron specs; an empty spec disables that job.
type Config struct {
	HoroscopeSweepSpec string
	CuratorRotateSpec  string
	JobTimeout         time.Duration
}

type Scheduler struct {
	cron     *cron.Cron
	store    store.Store
	horo     *horoscope.Service
	curators *curator.Service
	cfg      Config
	log      zerolog.Logger
}

func New(st store.Store, horo *horoscope.Service, curators *curator.Service, loc *time.Location, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 15 * time.Minute
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		store:    st,
		horo:     horo,
		curators: curators,
		cfg:      cfg,
		log:      log,
	}
}

// Start registers the configured jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if spec := s.cfg.HoroscopeSweepSpec; spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.runSweep(ctx) }); err != nil {
			return fmt.Errorf("register horoscope sweep %q: %w", spec, err)
		}
	}
	if spec := s.cfg.CuratorRotateSpec; spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.runRotation(ctx) }); err != nil {
			return fmt.Errorf("register curator rotation %q: %w", spec, err)
		}
	}
	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
	return nil
}

// runSweep pre-generates today's horoscope for every active member so
// the morning dashboard load hits warm cache. Per-member failures are
// logged and skipped; one bad profile never blocks the rest.
func (s *Scheduler) runSweep(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	members, err := s.store.Roster().ListActive(jobCtx)
	if err != nil {
		s.log.Error().Stack().Err(err).Msg("horoscope sweep: roster load failed")
		return
	}

	var generated, cached, failed int
	for _, m := range members {
		out, err := s.horo.Daily(jobCtx, m.UserID)
		switch {
		case err != nil && errors.Is(err, model.ErrValidation):
			// Incomplete profile; nothing to pre-generate.
			continue
		case err != nil:
			failed++
			s.log.Warn().Err(err).Str("user_id", m.UserID).Msg("horoscope sweep: generation failed")
		case out.State == horoscope.StateCachedHit:
			cached++
		default:
			generated++
		}
	}
	s.log.Info().
		Int("members", len(members)).
		Int("generated", generated).
		Int("cached", cached).
		Int("failed", failed).
		Msg("horoscope sweep complete")
}

func (s *Scheduler) runRotation(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	a, err := s.curators.Rotate(jobCtx, "scheduler", false)
	if err != nil {
		var sce *model.SchedulingConflictError
		if errors.As(err, &sce) {
			// A manual assignment already covers the period.
			s.log.Info().Str("curator", sce.Conflict.CuratorName).Msg("curator rotation skipped: period already assigned")
			return
		}
		s.log.Error().Stack().Err(err).Msg("curator rotation failed")
		return
	}
	s.log.Info().
		Str("curator", a.CuratorName).
		Time("start", a.StartDate).
		Time("end", a.EndDate).
		Msg("curator rotated")
}
