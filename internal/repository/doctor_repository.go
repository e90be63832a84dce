package repository

import (
	"context"

	"gorm.io/gorm"

	"acemc/internal/model"
)

// Doctor is either kind of doctor record.
type Doctor interface {
	model.DocAttending | model.DocAdmitting
}

// DoctorRepository defines persistence operations shared by attending and
// admitting doctors.
type DoctorRepository[D Doctor] interface {
	Create(ctx context.Context, doctor *D) error
	Update(ctx context.Context, doctor *D) error
	FindByID(ctx context.Context, id uint) (*D, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, term string, page int) (*Page[D], error)
	ListAll(ctx context.Context) ([]D, error)
	// Delete removes the doctor and every patient assignment pointing at it.
	Delete(ctx context.Context, id uint) error
}

type doctorRepository[D Doctor] struct {
	db               *gorm.DB
	assignment       interface{}
	assignmentColumn string
}

// NewAttendingDoctorRepository creates the attending doctor repository.
func NewAttendingDoctorRepository(db *gorm.DB) DoctorRepository[model.DocAttending] {
	return &doctorRepository[model.DocAttending]{
		db:               db,
		assignment:       &model.PtAttendingDoctor{},
		assignmentColumn: "attending_doctor",
	}
}

// NewAdmittingDoctorRepository creates the admitting doctor repository.
func NewAdmittingDoctorRepository(db *gorm.DB) DoctorRepository[model.DocAdmitting] {
	return &doctorRepository[model.DocAdmitting]{
		db:               db,
		assignment:       &model.PtAdmittingDoctor{},
		assignmentColumn: "admitting_doctor",
	}
}

func (r *doctorRepository[D]) Create(ctx context.Context, doctor *D) error {
	return r.db.WithContext(ctx).Create(doctor).Error
}

func (r *doctorRepository[D]) Update(ctx context.Context, doctor *D) error {
	return r.db.WithContext(ctx).Save(doctor).Error
}

func (r *doctorRepository[D]) FindByID(ctx context.Context, id uint) (*D, error) {
	var doctor D
	if err := r.db.WithContext(ctx).First(&doctor, id).Error; err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository[D]) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(D)).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *doctorRepository[D]) List(ctx context.Context, term string, page int) (*Page[D], error) {
	q := search(r.db.WithContext(ctx).Model(new(D)), term, "fullname")
	return paginate[D](q, page, DefaultPerPage, newestFirst)
}

func (r *doctorRepository[D]) ListAll(ctx context.Context) ([]D, error) {
	var doctors []D
	err := r.db.WithContext(ctx).Order("fullname ASC").Find(&doctors).Error
	return doctors, err
}

func (r *doctorRepository[D]) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(r.assignmentColumn+" = ?", id).Delete(r.assignment).Error; err != nil {
			return err
		}
		res := tx.Delete(new(D), id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
