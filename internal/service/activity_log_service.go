package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	apperrors "acemc/internal/errors"
	"acemc/internal/model"
	"acemc/internal/repository"
)

// ActivityLogQuery holds the raw activity log filters of a request.
type ActivityLogQuery struct {
	User     string `query:"user" json:"user,omitempty"`
	Action   string `query:"action" json:"action,omitempty"`
	Model    string `query:"model" json:"model,omitempty"`
	Search   string `query:"search" json:"search,omitempty"`
	DateFrom string `query:"date_from" json:"date_from,omitempty"`
	DateTo   string `query:"date_to" json:"date_to,omitempty"`
	Page     int    `query:"page" json:"-"`
}

// UserOption is one entry of a user filter dropdown.
type UserOption struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ActivityLogIndex is a page of activity with the options of every filter.
type ActivityLogIndex struct {
	Logs    *repository.Page[model.ActivityLog] `json:"logs"`
	Filters ActivityLogQuery                    `json:"filters"`
	Users   []UserOption                        `json:"users"`
	Actions []string                            `json:"actions"`
	Models  []string                            `json:"models"`
}

// ActivityLogService reads the audit trail.
type ActivityLogService interface {
	List(ctx context.Context, q ActivityLogQuery) (*ActivityLogIndex, error)
}

type activityLogService struct {
	logs  repository.ActivityLogRepository
	users repository.UserRepository
}

// NewActivityLogService builds an ActivityLogService.
func NewActivityLogService(logs repository.ActivityLogRepository, users repository.UserRepository) ActivityLogService {
	return &activityLogService{logs: logs, users: users}
}

func parseDay(raw, field string, verr *apperrors.ValidationError) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		verr.Add(field, "The "+strings.ReplaceAll(field, "_", " ")+" field must be a valid date.")
		return nil
	}
	return &t
}

func (s *activityLogService) List(ctx context.Context, q ActivityLogQuery) (*ActivityLogIndex, error) {
	verr := &apperrors.ValidationError{}
	filter := repository.ActivityLogFilter{
		Action: strings.TrimSpace(q.Action),
		Model:  strings.TrimSpace(q.Model),
		Search: q.Search,
		From:   parseDay(q.DateFrom, "date_from", verr),
		To:     parseDay(q.DateTo, "date_to", verr),
		Page:   q.Page,
	}
	if u := strings.TrimSpace(q.User); u != "" {
		id, err := strconv.ParseUint(u, 10, 64)
		if err != nil {
			verr.Add("user", "The user field must be an integer.")
		}
		filter.UserID = uint(id)
	}
	if !verr.Empty() {
		return nil, verr
	}

	logs, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	actors, err := s.users.ListActors(ctx)
	if err != nil {
		return nil, err
	}
	actions, err := s.logs.Distinct(ctx, "action")
	if err != nil {
		return nil, err
	}
	models, err := s.logs.Distinct(ctx, "model")
	if err != nil {
		return nil, err
	}

	idx := &ActivityLogIndex{
		Logs:    logs,
		Filters: q,
		Users:   make([]UserOption, 0, len(actors)),
		Actions: actions,
		Models:  models,
	}
	for _, u := range actors {
		idx.Users = append(idx.Users, UserOption{ID: u.ID, Name: u.Name})
	}
	return idx, nil
}
