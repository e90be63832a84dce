package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"acemc/internal/model"
)

// SoaRepository defines statement-of-account persistence operations.
type SoaRepository interface {
	Create(ctx context.Context, soa *model.PatientSoa) error
	Update(ctx context.Context, soa *model.PatientSoa) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.PatientSoa, error)
	FindByToken(ctx context.Context, token string) (*model.PatientSoa, error)
	List(ctx context.Context, term string, page int) (*Page[model.PatientSoa], error)
	ListAll(ctx context.Context) ([]model.PatientSoa, error)
	Attachments(ctx context.Context) ([]string, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo SoaRepository) error) error
}

type soaRepository struct {
	db *gorm.DB
}

// NewSoaRepository creates a new statement-of-account repository.
func NewSoaRepository(db *gorm.DB) SoaRepository {
	return &soaRepository{db: db}
}

// WithTransaction runs fn against a repository bound to a single transaction.
func (r *soaRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo SoaRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &soaRepository{db: tx})
	})
}

func (r *soaRepository) Create(ctx context.Context, soa *model.PatientSoa) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(soa).Error
}

func (r *soaRepository) Update(ctx context.Context, soa *model.PatientSoa) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(soa).Error
}

func (r *soaRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.PatientSoa{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *soaRepository) FindByID(ctx context.Context, id uint) (*model.PatientSoa, error) {
	var soa model.PatientSoa
	if err := r.db.WithContext(ctx).Preload("Patient").First(&soa, id).Error; err != nil {
		return nil, err
	}
	return &soa, nil
}

// FindByToken resolves a public token by exact match only.
func (r *soaRepository) FindByToken(ctx context.Context, token string) (*model.PatientSoa, error) {
	if token == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var soa model.PatientSoa
	if err := r.db.WithContext(ctx).Preload("Patient").
		Where("public_token = ?", token).
		First(&soa).Error; err != nil {
		return nil, err
	}
	return &soa, nil
}

func (r *soaRepository) List(ctx context.Context, term string, page int) (*Page[model.PatientSoa], error) {
	q := r.db.WithContext(ctx).Model(&model.PatientSoa{})
	if strings.TrimSpace(term) != "" {
		patients := search(r.db.Model(&model.Patient{}).Select("id"), term, "first_name", "last_name")
		q = q.Where("patient_id IN (?)", patients)
	}
	return paginate[model.PatientSoa](q, page, DefaultPerPage, newestFirst, "Patient")
}

func (r *soaRepository) ListAll(ctx context.Context) ([]model.PatientSoa, error) {
	var rows []model.PatientSoa
	err := r.db.WithContext(ctx).Preload("Patient").Order(newestFirst).Find(&rows).Error
	return rows, err
}

// Attachments lists every stored attachment path still referenced by a row.
func (r *soaRepository) Attachments(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&model.PatientSoa{}).
		Where("soa_attach IS NOT NULL AND soa_attach <> ''").
		Pluck("soa_attach", &paths).Error
	return paths, err
}
