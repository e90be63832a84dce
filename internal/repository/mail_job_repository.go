package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"acemc/internal/model"
)

// MailJobRepository persists the outbound mail queue.
type MailJobRepository interface {
	Enqueue(ctx context.Context, job *model.MailJob) error
	// Due returns pending jobs whose next attempt is at or before now.
	Due(ctx context.Context, now time.Time, limit int) ([]model.MailJob, error)
	// Claim leases a job until leaseUntil by bumping its attempt counter.
	// It reports false when another worker claimed the job first.
	Claim(ctx context.Context, job *model.MailJob, now, leaseUntil time.Time) (bool, error)
	MarkSent(ctx context.Context, id uint, at time.Time) error
	MarkRetry(ctx context.Context, id uint, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id uint, lastErr string) error
	FindByID(ctx context.Context, id uint) (*model.MailJob, error)
}

type mailJobRepository struct {
	db *gorm.DB
}

// NewMailJobRepository creates a new mail job repository.
func NewMailJobRepository(db *gorm.DB) MailJobRepository {
	return &mailJobRepository{db: db}
}

func (r *mailJobRepository) Enqueue(ctx context.Context, job *model.MailJob) error {
	if job.Status == "" {
		job.Status = model.MailJobPending
	}
	if job.NextAttemptAt.IsZero() {
		job.NextAttemptAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *mailJobRepository) Due(ctx context.Context, now time.Time, limit int) ([]model.MailJob, error) {
	var jobs []model.MailJob
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", model.MailJobPending, now.UTC()).
		Order("next_attempt_at ASC, id ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (r *mailJobRepository) Claim(ctx context.Context, job *model.MailJob, now, leaseUntil time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.MailJob{}).
		Where("id = ? AND status = ? AND attempts = ? AND next_attempt_at <= ?",
			job.ID, model.MailJobPending, job.Attempts, now.UTC()).
		Updates(map[string]interface{}{
			"attempts":        job.Attempts + 1,
			"next_attempt_at": leaseUntil.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	job.Attempts++
	job.NextAttemptAt = leaseUntil.UTC()
	return true, nil
}

func (r *mailJobRepository) MarkSent(ctx context.Context, id uint, at time.Time) error {
	at = at.UTC()
	return r.db.WithContext(ctx).Model(&model.MailJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.MailJobSent,
			"sent_at":    at,
			"last_error": "",
			// the body may carry a plaintext password
			"html_body": "",
		}).Error
}

func (r *mailJobRepository) MarkRetry(ctx context.Context, id uint, next time.Time, lastErr string) error {
	return r.db.WithContext(ctx).Model(&model.MailJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"next_attempt_at": next.UTC(),
			"last_error":      lastErr,
		}).Error
}

func (r *mailJobRepository) MarkFailed(ctx context.Context, id uint, lastErr string) error {
	return r.db.WithContext(ctx).Model(&model.MailJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.MailJobFailed,
			"last_error": lastErr,
			"html_body":  "",
		}).Error
}

func (r *mailJobRepository) FindByID(ctx context.Context, id uint) (*model.MailJob, error) {
	var job model.MailJob
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}
