package sweep

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/guiChehade/planner-tatatu/internal/task"
)

type Config struct {
	// Schedule is a cron spec or descriptor ("@hourly", "@every 30m").
	Schedule string
	// RunOnStart triggers one sweep immediately when the service
	// starts, so a freshly booted server catches today's instances
	// without waiting for the first tick.
	RunOnStart bool
	// Timezone is an IANA zone name; empty means the host's local zone.
	Timezone string
}

// Service runs the sweeper on a cron schedule across every owner in
// the store.
type Service struct {
	mu sync.Mutex

	log     zerolog.Logger
	cfg     Config
	store   task.UserStore
	sweeper *Sweeper

	parser cron.Parser
	c      *cron.Cron
}

func NewService(cfg Config, store task.UserStore, sweeper *Sweeper, log zerolog.Logger) *Service {
	return &Service{
		log:     log,
		cfg:     cfg,
		store:   store,
		sweeper: sweeper,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	loc := s.locationLocked()
	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	if _, err := c.AddFunc(s.scheduleLocked(), func() { s.RunAll() }); err != nil {
		return err
	}
	s.c = c
	c.Start()
	s.log.Info().Str("schedule", s.scheduleLocked()).Str("tz", loc.String()).Msg("sweep scheduler started")

	if s.cfg.RunOnStart {
		go s.RunAll()
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.log.Info().Msg("sweep scheduler stopped")
}

// Apply swaps in a new schedule/timezone, restarting the cron loop if
// it is running. Used by the config watcher.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	running := s.c != nil
	changed := s.cfg.Schedule != cfg.Schedule || s.cfg.Timezone != cfg.Timezone
	s.cfg = cfg
	s.mu.Unlock()

	if !running || !changed {
		return
	}
	s.Stop()
	// Restart with a background context; the original ctx already
	// triggered Stop once, so lifecycle is owned by the next Stop call.
	if err := s.Start(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("restart sweep scheduler")
	}
}

// RunAll sweeps every owner's tasks and returns the per-owner reports.
func (s *Service) RunAll() map[string]Report {
	users, err := s.store.Users()
	if err != nil {
		s.log.Error().Err(err).Msg("list store users")
		return nil
	}
	if len(users) == 0 {
		users = []string{"default"}
	}

	out := make(map[string]Report, len(users))
	for _, uid := range users {
		report, err := s.sweeper.Run(s.store.ForUser(uid))
		if err != nil {
			s.log.Error().Err(err).Str("user", uid).Msg("sweep failed")
			continue
		}
		out[uid] = report
		s.log.Info().
			Str("user", uid).
			Int("templates", report.Templates).
			Int("created", len(report.Created)).
			Int("already_exists", report.AlreadyExists).
			Msg("sweep complete")
	}
	return out
}

func (s *Service) scheduleLocked() string {
	if strings.TrimSpace(s.cfg.Schedule) == "" {
		return "@hourly"
	}
	return s.cfg.Schedule
}

func (s *Service) locationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn().Str("tz", tz).Msg("unknown timezone, falling back to local")
		return time.Local
	}
	return loc
}
