package jobs

import (
	"context"
	"errors"
	"time"

	"medledger/config"
	"medledger/internal/service"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

const (
	BackupTag   = "backup"
	ReminderTag = "appointment-reminder"

	jobTimeout = 5 * time.Minute
)

type BackupRunner interface {
	Run(ctx context.Context) (*service.BackupResult, error)
}

type ReminderSender interface {
	SendReminders(ctx context.Context, lead time.Duration) (int, error)
}

// Scheduler runs the periodic backup and appointment reminder jobs. A job
// never overlaps with a still running copy of itself.
type Scheduler struct {
	scheduler *gocron.Scheduler
	backup    BackupRunner
	reminders ReminderSender
	cfg       config.JobsConfig
	log       *logrus.Logger
}

// NewScheduler registers the jobs. backup may be nil when delivery is not
// configured; the backup job is then left out.
func NewScheduler(cfg config.JobsConfig, backup BackupRunner, reminders ReminderSender, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		backup:    backup,
		reminders: reminders,
		cfg:       cfg,
		log:       log,
	}
	s.scheduler.SingletonModeAll()

	if backup != nil {
		if _, err := s.scheduler.Every(cfg.BackupInterval).WaitForSchedule().Tag(BackupTag).Do(s.runBackup); err != nil {
			return nil, err
		}
	} else {
		log.Warn("Telegram is not configured, scheduled backups are disabled")
	}

	if _, err := s.scheduler.Every(cfg.ReminderInterval).Tag(ReminderTag).Do(s.sendReminders); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
	s.log.Infof("Scheduler started with %d jobs", s.scheduler.Len())
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.log.Info("Scheduler stopped")
}

// Tags lists the tags of the registered jobs.
func (s *Scheduler) Tags() []string {
	var tags []string
	for _, job := range s.scheduler.Jobs() {
		tags = append(tags, job.Tags()...)
	}
	return tags
}

func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.backup.Run(ctx); err != nil {
		if errors.Is(err, service.ErrBackupNotConfigured) {
			s.log.Warn("Skipping scheduled backup: Telegram is not configured")
			return
		}
		s.log.Errorf("Scheduled backup failed: %+v", err)
	}
}

func (s *Scheduler) sendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	sent, err := s.reminders.SendReminders(ctx, s.cfg.ReminderLead)
	if err != nil {
		s.log.Errorf("Appointment reminder job failed: %+v", err)
		return
	}
	if sent > 0 {
		s.log.Infof("Sent %d appointment reminders", sent)
	}
}
