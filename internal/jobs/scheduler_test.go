package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"medledger/config"
	"medledger/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackup struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (f *fakeBackup) Run(context.Context) (*service.BackupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	if f.err != nil {
		return nil, f.err
	}
	return &service.BackupResult{Filename: "backup.json.gz"}, nil
}

type fakeReminders struct {
	mu    sync.Mutex
	calls int
	lead  time.Duration
}

func (f *fakeReminders) SendReminders(_ context.Context, lead time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lead = lead
	return 1, nil
}

func (f *fakeReminders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var testJobsConfig = config.JobsConfig{
	BackupInterval:   time.Hour,
	ReminderInterval: time.Hour,
	ReminderLead:     24 * time.Hour,
}

func TestSchedulerRegistersJobs(t *testing.T) {
	s, err := NewScheduler(testJobsConfig, &fakeBackup{}, &fakeReminders{}, quietLogger())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{BackupTag, ReminderTag}, s.Tags())
}

func TestSchedulerWithoutBackup(t *testing.T) {
	s, err := NewScheduler(testJobsConfig, nil, &fakeReminders{}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{ReminderTag}, s.Tags())
}

func TestReminderJobRunsOnStart(t *testing.T) {
	reminders := &fakeReminders{}
	backup := &fakeBackup{}
	s, err := NewScheduler(testJobsConfig, backup, reminders, quietLogger())
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return reminders.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 24*time.Hour, reminders.lead)

	backup.mu.Lock()
	defer backup.mu.Unlock()
	assert.Zero(t, backup.runs, "backup waits for its first interval")
}

func TestRunBackupSwallowsErrors(t *testing.T) {
	for _, err := range []error{service.ErrBackupNotConfigured, errors.New("telegram down")} {
		backup := &fakeBackup{err: err}
		s := &Scheduler{backup: backup, log: quietLogger()}

		assert.NotPanics(t, s.runBackup)
		assert.Equal(t, 1, backup.runs)
	}
}
