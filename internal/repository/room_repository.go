package repository

import (
	"context"

	"gorm.io/gorm"

	"acemc/internal/model"
)

// RoomRepository defines room persistence operations.
type RoomRepository interface {
	Create(ctx context.Context, room *model.PtRoom) error
	Update(ctx context.Context, room *model.PtRoom) error
	FindByID(ctx context.Context, id uint) (*model.PtRoom, error)
	List(ctx context.Context, term string, page int) (*Page[model.PtRoom], error)
	Delete(ctx context.Context, id uint) error
	NumberTaken(ctx context.Context, number string, exceptID uint) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *model.PtRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepository) Update(ctx context.Context, room *model.PtRoom) error {
	return r.db.WithContext(ctx).Save(room).Error
}

func (r *roomRepository) FindByID(ctx context.Context, id uint) (*model.PtRoom, error) {
	var room model.PtRoom
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) List(ctx context.Context, term string, page int) (*Page[model.PtRoom], error) {
	q := search(r.db.WithContext(ctx).Model(&model.PtRoom{}), term, "room_number")
	return paginate[model.PtRoom](q, page, DefaultPerPage, newestFirst)
}

func (r *roomRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.PtRoom{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *roomRepository) NumberTaken(ctx context.Context, number string, exceptID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.PtRoom{}).Where("room_number = ?", number)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *roomRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PtRoom{}).Count(&n).Error
	return n, err
}
