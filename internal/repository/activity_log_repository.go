package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"acemc/internal/model"
)

// ActivityLogFilter narrows the activity log listing. Dates are whole days;
// To is inclusive.
type ActivityLogFilter struct {
	UserID uint
	Action string
	Model  string
	Search string
	From   *time.Time
	To     *time.Time
	Page   int
}

// ActivityLogRepository persists the audit trail.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) (*Page[model.ActivityLog], error)
	Distinct(ctx context.Context, column string) ([]string, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Omit("User").Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) (*Page[model.ActivityLog], error) {
	q := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.Model != "" {
		q = q.Where("model = ?", filter.Model)
	}
	q = search(q, filter.Search, "description")
	if filter.From != nil {
		q = q.Where("created_at >= ?", startOfDay(*filter.From))
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", startOfDay(*filter.To).AddDate(0, 0, 1))
	}
	return paginate[model.ActivityLog](q, filter.Page, ActivityLogsPerPage, newestFirst, "User")
}

// Distinct lists the distinct non-empty values of action or model.
func (r *activityLogRepository) Distinct(ctx context.Context, column string) ([]string, error) {
	switch column {
	case "action", "model":
	default:
		return nil, gorm.ErrInvalidField
	}
	var values []string
	err := r.db.WithContext(ctx).Model(&model.ActivityLog{}).
		Where(column+" <> ''").
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	return values, err
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
