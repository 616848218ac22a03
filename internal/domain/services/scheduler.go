package services

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"aegis-secure/pkg/logger"
)

const (
	defaultSyncSchedule = "@every 15m"
	syncLockKey         = "mailbox-sync"
)

// MailboxSyncer syncs every linked mailbox
type MailboxSyncer interface {
	SyncAll(ctx context.Context) (int, error)
}

// SyncLocker serializes sync runs across replicas
type SyncLocker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// JobResult holds the result of one sync run
type JobResult struct {
	Success     bool          `json:"success"`
	Skipped     bool          `json:"skipped"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	NewMessages int           `json:"new_messages"`
	CompletedAt time.Time     `json:"completed_at"`
}

// MailboxSyncScheduler periodically ingests new mail for all linked accounts
type MailboxSyncScheduler struct {
	syncer   MailboxSyncer
	locker   SyncLocker
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	running bool
	last    *JobResult
}

// NewMailboxSyncScheduler creates a scheduler; locker may be nil on a single replica
func NewMailboxSyncScheduler(syncer MailboxSyncer, locker SyncLocker, schedule string, log *logger.Logger) *MailboxSyncScheduler {
	if schedule == "" {
		schedule = defaultSyncSchedule
	}
	return &MailboxSyncScheduler{
		syncer:   syncer,
		locker:   locker,
		cron:     cron.New(cron.WithLogger(cron.DiscardLogger)),
		schedule: schedule,
		timeout:  10 * time.Minute,
		logger:   log.WithComponent("mailbox-sync"),
	}
}

// Start registers the sync job and starts the cron runner
func (s *MailboxSyncScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("mailbox sync scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job
func (s *MailboxSyncScheduler) Stop() context.Context {
	s.logger.Info().Msg("mailbox sync scheduler stopped")
	return s.cron.Stop()
}

// LastResult returns the result of the most recent run
func (s *MailboxSyncScheduler) LastResult() *JobResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RunOnce performs one sync unless another run is in progress here or on another replica
func (s *MailboxSyncScheduler) RunOnce(ctx context.Context) *JobResult {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return &JobResult{Skipped: true, CompletedAt: time.Now()}
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.locker != nil {
		ok, err := s.locker.AcquireLock(ctx, syncLockKey, s.timeout)
		switch {
		case err != nil:
			// dedup keeps an unlocked overlapping run harmless
			s.logger.Warn().Err(err).Msg("failed to acquire sync lock, running unlocked")
		case !ok:
			return &JobResult{Skipped: true, CompletedAt: time.Now()}
		default:
			defer func() {
				if err := s.locker.ReleaseLock(context.Background(), syncLockKey); err != nil {
					s.logger.Warn().Err(err).Msg("failed to release sync lock")
				}
			}()
		}
	}

	start := time.Now()
	stored, err := s.syncer.SyncAll(ctx)

	result := &JobResult{
		Success:     err == nil,
		Duration:    time.Since(start),
		NewMessages: stored,
		CompletedAt: time.Now(),
	}
	if err != nil {
		result.Error = err.Error()
		s.logger.Warn().Err(err).Int("new_messages", stored).Msg("mailbox sync finished with errors")
	} else {
		s.logger.Info().Int("new_messages", stored).Dur("duration", result.Duration).Msg("mailbox sync complete")
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	return result
}
