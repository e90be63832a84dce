// Package audit records who changed what.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"acemc/internal/model"
	"acemc/internal/repository"
)

// Actor identifies the user behind a mutation and the request it came from.
type Actor struct {
	UserID    uint
	IP        string
	UserAgent string
}

// Entry is one auditable event.
type Entry struct {
	Action      string
	Model       string
	ModelID     uint
	Description string
	Properties  map[string]interface{}
}

// Recorder appends entries to the activity log.
type Recorder interface {
	Record(ctx context.Context, actor Actor, entry Entry)
}

// DBRecorder writes entries through the activity log repository.
type DBRecorder struct {
	repo repository.ActivityLogRepository
}

// NewRecorder creates a database-backed recorder.
func NewRecorder(repo repository.ActivityLogRepository) *DBRecorder {
	return &DBRecorder{repo: repo}
}

// Record stores entry. Anonymous actors are skipped and write failures are
// logged, so the mutation that triggered the entry still succeeds.
func (r *DBRecorder) Record(ctx context.Context, actor Actor, entry Entry) {
	if actor.UserID == 0 {
		return
	}
	row := &model.ActivityLog{
		UserID:      actor.UserID,
		Action:      entry.Action,
		Model:       entry.Model,
		Description: entry.Description,
		Properties:  entry.Properties,
		IPAddress:   actor.IP,
		UserAgent:   actor.UserAgent,
	}
	if entry.ModelID != 0 {
		id := entry.ModelID
		row.ModelID = &id
	}
	if err := r.repo.Create(ctx, row); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("action", entry.Action).
			Str("model", entry.Model).
			Uint("model_id", entry.ModelID).
			Msg("activity log write failed")
	}
}
