package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"acemc/internal/model"
)

// UserFilter narrows a user listing.
type UserFilter struct {
	Search       string
	Role         model.Role
	ExcludeRoles []model.Role
	Page         int
	PerPage      int
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	List(ctx context.Context, filter UserFilter) (*Page[model.User], error)
	ListActors(ctx context.Context) ([]model.User, error)
	CountByRole(ctx context.Context, roles ...model.Role) (int64, error)
	CountVerified(ctx context.Context, roles ...model.Role) (int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time, roles ...model.Role) (int64, error)
	Recent(ctx context.Context, limit int, roles ...model.Role) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, id).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.User{}).Where("LOWER(email) = ?", strings.ToLower(email))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) (*Page[model.User], error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	q = search(q, filter.Search, "name", "email")
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if len(filter.ExcludeRoles) > 0 {
		q = q.Where("role NOT IN ?", filter.ExcludeRoles)
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = UsersPerPage
	}
	return paginate[model.User](q, filter.Page, perPage, newestFirst)
}

// ListActors returns every user who appears in the activity log, by name.
func (r *userRepository) ListActors(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&model.ActivityLog{}).Select("user_id")).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) byRoles(ctx context.Context, roles []model.Role) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	return q
}

func (r *userRepository) CountByRole(ctx context.Context, roles ...model.Role) (int64, error) {
	var n int64
	err := r.byRoles(ctx, roles).Count(&n).Error
	return n, err
}

func (r *userRepository) CountVerified(ctx context.Context, roles ...model.Role) (int64, error) {
	var n int64
	err := r.byRoles(ctx, roles).Where("email_verified_at IS NOT NULL").Count(&n).Error
	return n, err
}

func (r *userRepository) CountCreatedBetween(ctx context.Context, from, to time.Time, roles ...model.Role) (int64, error) {
	var n int64
	err := r.byRoles(ctx, roles).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Count(&n).Error
	return n, err
}

func (r *userRepository) Recent(ctx context.Context, limit int, roles ...model.Role) ([]model.User, error) {
	var users []model.User
	err := r.byRoles(ctx, roles).Order(newestFirst).Limit(limit).Find(&users).Error
	return users, err
}
