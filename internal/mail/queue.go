package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"acemc/internal/model"
	"acemc/internal/repository"
)

const (
	batchSize   = 20
	leaseTime   = 2 * time.Minute
	baseBackoff = 30 * time.Second
	maxBackoff  = time.Hour
)

// Enqueuer accepts messages for later delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg Message) error
}

// Queue persists messages and delivers them from a background worker.
// Delivery is at-least-once: a crash after sending but before marking the
// job sent causes one resend once the lease expires.
type Queue struct {
	repo        repository.MailJobRepository
	sender      Sender
	maxAttempts int
	interval    time.Duration
	logger      zerolog.Logger
	nudge       chan struct{}
	now         func() time.Time
}

// NewQueue creates a mail queue.
func NewQueue(repo repository.MailJobRepository, sender Sender, maxAttempts int, interval time.Duration, logger zerolog.Logger) *Queue {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Queue{
		repo:        repo,
		sender:      sender,
		maxAttempts: maxAttempts,
		interval:    interval,
		logger:      logger,
		nudge:       make(chan struct{}, 1),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue stores msg and wakes the worker.
func (q *Queue) Enqueue(ctx context.Context, msg Message) error {
	job := &model.MailJob{
		To:            msg.To,
		ToName:        msg.ToName,
		Subject:       msg.Subject,
		HTMLBody:      msg.HTMLBody,
		Status:        model.MailJobPending,
		NextAttemptAt: q.now(),
	}
	if err := q.repo.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}

	// Wake the worker without blocking; a pending nudge already covers this job.
	select {
	case q.nudge <- struct{}{}:
	default:
	}
	return nil
}

// Run processes due jobs on every tick or nudge until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-q.nudge:
		case <-ctx.Done():
			return
		}
		if _, err := q.ProcessDue(ctx); err != nil && ctx.Err() == nil {
			q.logger.Error().Err(err).Msg("mail queue poll failed")
		}
	}
}

// ProcessDue attempts every job that is due and returns how many were sent.
func (q *Queue) ProcessDue(ctx context.Context) (int, error) {
	now := q.now()
	jobs, err := q.repo.Due(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range jobs {
		job := &jobs[i]
		claimed, err := q.repo.Claim(ctx, job, now, now.Add(leaseTime))
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}
		if q.deliver(ctx, job) {
			sent++
		}
	}
	return sent, nil
}

func (q *Queue) deliver(ctx context.Context, job *model.MailJob) bool {
	log := q.logger.With().Uint("mail_job_id", job.ID).Int("attempt", job.Attempts).Logger()

	err := q.sender.Send(ctx, Message{
		To:       job.To,
		ToName:   job.ToName,
		Subject:  job.Subject,
		HTMLBody: job.HTMLBody,
	})
	if err == nil {
		if err := q.repo.MarkSent(ctx, job.ID, q.now()); err != nil {
			log.Error().Err(err).Msg("mail sent but not marked")
		}
		return true
	}

	if job.Attempts >= q.maxAttempts {
		log.Error().Err(err).Msg("mail delivery failed permanently")
		if err := q.repo.MarkFailed(ctx, job.ID, err.Error()); err != nil {
			log.Error().Err(err).Msg("mark mail failed")
		}
		return false
	}

	next := q.now().Add(Backoff(job.Attempts))
	log.Warn().Err(err).Time("next_attempt_at", next).Msg("mail delivery failed, will retry")
	if err := q.repo.MarkRetry(ctx, job.ID, next, err.Error()); err != nil {
		log.Error().Err(err).Msg("schedule mail retry")
	}
	return false
}

// Backoff is the delay after the given failed attempt, doubling from 30s up to an hour.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := baseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
