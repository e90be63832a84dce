package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"acemc/internal/model"
)

// PatientRepository defines patient persistence operations.
type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Update(ctx context.Context, patient *model.Patient) error
	FindByID(ctx context.Context, id uint) (*model.Patient, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, term string, page int) (*Page[model.Patient], error)
	ListAll(ctx context.Context) ([]model.Patient, error)
	Recent(ctx context.Context, limit int) ([]model.Patient, error)
	// Delete removes the patient with its doctor assignments and statements
	// and returns the attachment paths the statements referenced.
	Delete(ctx context.Context, id uint) ([]string, error)
	AssignAttendingDoctor(ctx context.Context, patientID, doctorID uint) error
	AssignAdmittingDoctor(ctx context.Context, patientID, doctorID uint) error
	Count(ctx context.Context) (int64, error)
	CountWithAdmittingDoctor(ctx context.Context) (int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository.
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

var patientDoctorPreloads = []string{"AttendingDoctor.Doctor", "AdmittingDoctor.Doctor"}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(patient).Error
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(patient).Error
}

func (r *patientRepository) FindByID(ctx context.Context, id uint) (*model.Patient, error) {
	var patient model.Patient
	q := r.db.WithContext(ctx)
	for _, p := range patientDoctorPreloads {
		q = q.Preload(p)
	}
	if err := q.First(&patient, id).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Patient{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *patientRepository) List(ctx context.Context, term string, page int) (*Page[model.Patient], error) {
	q := r.db.WithContext(ctx).Model(&model.Patient{})
	q = search(q, term, "first_name", "last_name", "middle_name", "phone_number", "address")
	return paginate[model.Patient](q, page, DefaultPerPage, newestFirst, patientDoctorPreloads...)
}

func (r *patientRepository) ListAll(ctx context.Context) ([]model.Patient, error) {
	var patients []model.Patient
	err := r.db.WithContext(ctx).Order(newestFirst).Find(&patients).Error
	return patients, err
}

func (r *patientRepository) Recent(ctx context.Context, limit int) ([]model.Patient, error) {
	var patients []model.Patient
	q := r.db.WithContext(ctx)
	for _, p := range patientDoctorPreloads {
		q = q.Preload(p)
	}
	err := q.Order(newestFirst).Limit(limit).Find(&patients).Error
	return patients, err
}

func (r *patientRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var attachments []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PatientSoa{}).
			Where("patient_id = ? AND soa_attach IS NOT NULL AND soa_attach <> ''", id).
			Pluck("soa_attach", &attachments).Error; err != nil {
			return err
		}
		for _, owned := range []interface{}{&model.PatientSoa{}, &model.PtAttendingDoctor{}, &model.PtAdmittingDoctor{}} {
			if err := tx.Where("patient_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.Patient{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// AssignAttendingDoctor creates or replaces the patient's single attending assignment.
func (r *patientRepository) AssignAttendingDoctor(ctx context.Context, patientID, doctorID uint) error {
	row := model.PtAttendingDoctor{PatientID: patientID, AttendingDoctorID: doctorID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "patient_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"attending_doctor", "updated_at"}),
	}).Create(&row).Error
}

// AssignAdmittingDoctor creates or replaces the patient's single admitting assignment.
func (r *patientRepository) AssignAdmittingDoctor(ctx context.Context, patientID, doctorID uint) error {
	row := model.PtAdmittingDoctor{PatientID: patientID, AdmittingDoctorID: doctorID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "patient_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"admitting_doctor", "updated_at"}),
	}).Create(&row).Error
}

func (r *patientRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Patient{}).Count(&n).Error
	return n, err
}

func (r *patientRepository) CountWithAdmittingDoctor(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Patient{}).
		Where("id IN (?)", r.db.Model(&model.PtAdmittingDoctor{}).Select("patient_id")).
		Count(&n).Error
	return n, err
}

func (r *patientRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Patient{}).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Count(&n).Error
	return n, err
}
