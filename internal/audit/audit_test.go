package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"acemc/internal/model"
	"acemc/internal/repository"
)

// MockActivityLogRepository is a mock implementation of ActivityLogRepository.
type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityLogRepository) List(ctx context.Context, filter repository.ActivityLogFilter) (*repository.Page[model.ActivityLog], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(*repository.Page[model.ActivityLog]), args.Error(1)
}

func (m *MockActivityLogRepository) Distinct(ctx context.Context, column string) ([]string, error) {
	args := m.Called(ctx, column)
	return args.Get(0).([]string), args.Error(1)
}

func TestRecord(t *testing.T) {
	repo := new(MockActivityLogRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *model.ActivityLog) bool {
		return l.UserID == 1 && l.Action == model.ActionCreated && l.Model == "User" &&
			l.ModelID != nil && *l.ModelID == 9 && l.IPAddress == "10.0.0.1" &&
			l.Properties["user"] != nil
	})).Return(nil).Once()

	NewRecorder(repo).Record(context.Background(), Actor{UserID: 1, IP: "10.0.0.1", UserAgent: "test"}, Entry{
		Action:      model.ActionCreated,
		Model:       "User",
		ModelID:     9,
		Description: "Created new user: Jane (billing)",
		Properties:  map[string]interface{}{"user": map[string]interface{}{"name": "Jane"}},
	})

	repo.AssertExpectations(t)
}

func TestRecord_SkipsAnonymous(t *testing.T) {
	repo := new(MockActivityLogRepository)
	NewRecorder(repo).Record(context.Background(), Actor{}, Entry{Action: model.ActionDeleted})
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecord_SwallowsWriteErrors(t *testing.T) {
	repo := new(MockActivityLogRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		NewRecorder(repo).Record(context.Background(), Actor{UserID: 1}, Entry{Action: model.ActionUpdated})
	})
	repo.AssertExpectations(t)
}
