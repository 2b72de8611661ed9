// Package jobs runs background work on a gocron scheduler.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	DefaultSweepInterval = time.Minute
	jobTimeout           = 30 * time.Second
)

// RegistrationValidator is the part of services.TeamService the jobs call.
type RegistrationValidator interface {
	ValidateRegistration(ctx context.Context, teamID int) (*models.Team, error)
	ValidateOpenRegistrations(ctx context.Context) (int, error)
}

type Scheduler struct {
	sched     gocron.Scheduler
	validator RegistrationValidator
	interval  time.Duration
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(validator RegistrationValidator, interval time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	logger = logger.Named("jobs")

	sched, err := gocron.NewScheduler(gocron.WithLogger(zapLogger{logger.Sugar()}))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sched:     sched,
		validator: validator,
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start registers the periodic registration sweep and starts the scheduler.
func (s *Scheduler) Start() error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.sweepRegistrations),
		gocron.WithName("registration-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule registration sweep: %w", err)
	}
	s.sched.Start()
	s.logger.Info("scheduler started", zap.Duration("sweep_interval", s.interval))
	return nil
}

// DispatchRegistrationCheck queues a one-off validation of a team and returns immediately.
func (s *Scheduler) DispatchRegistrationCheck(teamID int) {
	_, err := s.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
		gocron.NewTask(s.checkRegistration, teamID),
		gocron.WithName(fmt.Sprintf("registration-check-%d", teamID)),
	)
	if err != nil {
		s.logger.Error("failed to dispatch registration check", zap.Int("team_id", teamID), zap.Error(err))
	}
}

func (s *Scheduler) Shutdown() error {
	s.cancel()
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) checkRegistration(teamID int) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	team, err := s.validator.ValidateRegistration(ctx, teamID)
	if err != nil {
		s.logger.Warn("registration check failed", zap.Int("team_id", teamID), zap.Error(err))
		return
	}
	s.logger.Debug("registration checked",
		zap.Int("team_id", team.ID), zap.Int("players", team.PlayerCount), zap.Bool("complete", team.RegistrationComplete))
}

func (s *Scheduler) sweepRegistrations() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	checked, err := s.validator.ValidateOpenRegistrations(ctx)
	if err != nil {
		s.logger.Error("registration sweep failed", zap.Int("checked", checked), zap.Error(err))
		return
	}
	s.logger.Debug("registration sweep finished", zap.Int("checked", checked))
}

// zapLogger adapts zap to gocron.Logger.
type zapLogger struct {
	l *zap.SugaredLogger
}

func (z zapLogger) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }
func (z zapLogger) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }
func (z zapLogger) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z zapLogger) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
