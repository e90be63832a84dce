package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "acemc/internal/errors"
	"acemc/internal/model"
	"acemc/internal/repository"
)

// RoomInput is the create and update payload for a room.
type RoomInput struct {
	RoomNumber string `json:"room_number" validate:"required,max=255"`
}

// RoomService manages hospital rooms.
type RoomService interface {
	List(ctx context.Context, search string, page int) (*repository.Page[model.PtRoom], error)
	Get(ctx context.Context, id uint) (*model.PtRoom, error)
	Create(ctx context.Context, in RoomInput) (*model.PtRoom, error)
	Update(ctx context.Context, id uint, in RoomInput) (*model.PtRoom, error)
	Delete(ctx context.Context, id uint) error
}

type roomService struct {
	repo repository.RoomRepository
}

// NewRoomService builds a RoomService.
func NewRoomService(repo repository.RoomRepository) RoomService {
	return &roomService{repo: repo}
}

func roomTaken() error {
	return apperrors.NewValidationError("room_number", "The room number has already been taken.")
}

func (s *roomService) List(ctx context.Context, search string, page int) (*repository.Page[model.PtRoom], error) {
	return s.repo.List(ctx, search, page)
}

func (s *roomService) Get(ctx context.Context, id uint) (*model.PtRoom, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrRoomNotFound)
	}
	return room, nil
}

func (s *roomService) ensureFree(ctx context.Context, number string, exceptID uint) error {
	taken, err := s.repo.NumberTaken(ctx, number, exceptID)
	if err != nil {
		return fmt.Errorf("check room number: %w", err)
	}
	if taken {
		return roomTaken()
	}
	return nil
}

func (s *roomService) Create(ctx context.Context, in RoomInput) (*model.PtRoom, error) {
	number := strings.TrimSpace(in.RoomNumber)
	if err := s.ensureFree(ctx, number, 0); err != nil {
		return nil, err
	}
	room := &model.PtRoom{RoomNumber: number}
	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, roomTaken()
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

func (s *roomService) Update(ctx context.Context, id uint, in RoomInput) (*model.PtRoom, error) {
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	number := strings.TrimSpace(in.RoomNumber)
	if err := s.ensureFree(ctx, number, id); err != nil {
		return nil, err
	}
	room.RoomNumber = number
	if err := s.repo.Update(ctx, room); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, roomTaken()
		}
		return nil, fmt.Errorf("update room: %w", err)
	}
	return room, nil
}

func (s *roomService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, apperrors.ErrRoomNotFound)
	}
	return nil
}
