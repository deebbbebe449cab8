package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/cache"
	"github.com/xeo-app/xeo-backend/internal/config"
	"github.com/xeo-app/xeo-backend/internal/notifications"
	"github.com/xeo-app/xeo-backend/internal/usage"
)

// Digest windows. Both run at 9 AM UTC, weekly on Mondays.
const (
	dailyExpression  = "0 0 9 * * *"
	weeklyExpression = "0 0 9 * * MON"
)

// UsageKind labels pruned usage events in cleanup results.
const UsageKind = "usage"

// Service runs cache maintenance and the usage digest on cron schedules.
type Service struct {
	config   *config.Config
	tiers    *cache.Tiers
	recorder *usage.Recorder
	notifier notifications.NotificationInterface
	cron     *cron.Cron
	now      func() time.Time
}

// NewService creates a new scheduler service. recorder and notifier may be nil.
func NewService(cfg *config.Config, tiers *cache.Tiers, recorder *usage.Recorder, notifier notifications.NotificationInterface) *Service {
	return &Service{
		config:   cfg,
		tiers:    tiers,
		recorder: recorder,
		notifier: notifier,
		cron:     cron.New(cron.WithSeconds()),
		now:      time.Now,
	}
}

// RunCleanup sweeps the local tier, deletes expired shared entries and prunes
// usage events past the retention window. The result counts deletions per
// record kind.
func (s *Service) RunCleanup(ctx context.Context) (map[string]int, error) {
	deleted := map[string]int{}

	if n := s.tiers.Local().Sweep(); n > 0 {
		logrus.Debugf("Swept %d expired local cache entries", n)
	}

	if shared := s.tiers.Shared(); shared != nil {
		kinds, err := shared.Cleanup(ctx)
		for k, n := range kinds {
			deleted[k] += n
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to clean shared cache: %w", err)
		}
	}

	if s.recorder != nil && s.config.UsageRetention > 0 {
		if n := s.recorder.Prune(ctx, s.now().Add(-s.config.UsageRetention)); n > 0 {
			deleted[UsageKind] = n
		}
	}

	logrus.WithField("deleted", deleted).Info("Cache cleanup completed")
	return deleted, nil
}

// RunDigest sends the usage report for the configured period.
func (s *Service) RunDigest() error {
	if s.recorder == nil || s.notifier == nil {
		return fmt.Errorf("usage digest is not configured")
	}

	window := 24 * time.Hour
	if s.config.DigestSchedule == config.DigestWeekly {
		window = 7 * 24 * time.Hour
	}
	report := s.recorder.Snapshot(s.now().Add(-window), s.config.DigestSchedule)

	if err := s.notifier.SendReport(report); err != nil {
		return fmt.Errorf("failed to send usage digest: %w", err)
	}
	logrus.Infof("Sent %s usage digest: %d analyses", s.config.DigestSchedule, report.TotalAnalyses)
	return nil
}

// Start registers the jobs and starts the cron runner
func (s *Service) Start() error {
	if s.config.CleanupSchedule != "" {
		_, err := s.cron.AddFunc(s.config.CleanupSchedule, func() {
			logrus.Info("Starting scheduled cache cleanup")
			if _, err := s.RunCleanup(context.Background()); err != nil {
				logrus.Errorf("Scheduled cache cleanup failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cleanup schedule %q: %w", s.config.CleanupSchedule, err)
		}
	}

	var digestExpression string
	switch s.config.DigestSchedule {
	case config.DigestDaily:
		digestExpression = dailyExpression
	case config.DigestWeekly:
		digestExpression = weeklyExpression
	}

	if digestExpression != "" {
		_, err := s.cron.AddFunc(digestExpression, func() {
			logrus.Info("Starting scheduled usage digest")
			if err := s.RunDigest(); err != nil {
				logrus.Errorf("Scheduled usage digest failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	logrus.Infof("Scheduler started (cleanup %q, digest %s)", s.config.CleanupSchedule, s.config.DigestSchedule)
	return nil
}

// Entries reports how many jobs are registered.
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
