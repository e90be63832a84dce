package service

import (
	"context"
	"fmt"

	apperrors "acemc/internal/errors"
	"acemc/internal/model"
	"acemc/internal/repository"
)

// DoctorInput is the create and update payload for either doctor kind.
type DoctorInput struct {
	Fullname string `json:"fullname" validate:"required,max=255"`
}

// DoctorService manages one kind of doctor record.
type DoctorService[D repository.Doctor] interface {
	List(ctx context.Context, search string, page int) (*repository.Page[D], error)
	Get(ctx context.Context, id uint) (*D, error)
	Create(ctx context.Context, in DoctorInput) (*D, error)
	Update(ctx context.Context, id uint, in DoctorInput) (*D, error)
	Delete(ctx context.Context, id uint) error
}

type doctorService[D repository.Doctor] struct {
	repo repository.DoctorRepository[D]
	set  func(d *D, fullname string)
}

// NewAttendingDoctorService builds the attending doctor service.
func NewAttendingDoctorService(repo repository.DoctorRepository[model.DocAttending]) DoctorService[model.DocAttending] {
	return &doctorService[model.DocAttending]{
		repo: repo,
		set:  func(d *model.DocAttending, name string) { d.Fullname = name },
	}
}

// NewAdmittingDoctorService builds the admitting doctor service.
func NewAdmittingDoctorService(repo repository.DoctorRepository[model.DocAdmitting]) DoctorService[model.DocAdmitting] {
	return &doctorService[model.DocAdmitting]{
		repo: repo,
		set:  func(d *model.DocAdmitting, name string) { d.Fullname = name },
	}
}

func (s *doctorService[D]) List(ctx context.Context, search string, page int) (*repository.Page[D], error) {
	return s.repo.List(ctx, search, page)
}

func (s *doctorService[D]) Get(ctx context.Context, id uint) (*D, error) {
	doctor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrDoctorNotFound)
	}
	return doctor, nil
}

func (s *doctorService[D]) Create(ctx context.Context, in DoctorInput) (*D, error) {
	doctor := new(D)
	s.set(doctor, in.Fullname)
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return doctor, nil
}

func (s *doctorService[D]) Update(ctx context.Context, id uint, in DoctorInput) (*D, error) {
	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(doctor, in.Fullname)
	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return doctor, nil
}

func (s *doctorService[D]) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, apperrors.ErrDoctorNotFound)
	}
	return nil
}
