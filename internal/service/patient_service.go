package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"acemc/internal/audit"
	apperrors "acemc/internal/errors"
	"acemc/internal/model"
	"acemc/internal/repository"
	"acemc/internal/storage"
)

// PatientInput is the create and update payload for a patient.
type PatientInput struct {
	FirstName     string  `json:"first_name" validate:"required,max=255"`
	LastName      string  `json:"last_name" validate:"required,max=255"`
	MiddleName    *string `json:"middle_name" validate:"omitempty,max=255"`
	ExtensionName *string `json:"extension_name" validate:"omitempty,max=255"`
	PhoneNumber   *string `json:"phone_number" validate:"omitempty,max=255"`
	Address       *string `json:"address"`
}

func (in PatientInput) apply(p *model.Patient) {
	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.MiddleName = nullable(in.MiddleName)
	p.ExtensionName = nullable(in.ExtensionName)
	p.PhoneNumber = nullable(in.PhoneNumber)
	p.Address = nullable(in.Address)
}

// AssignDoctorsInput selects the attending and admitting doctor of a patient.
// A zero id leaves that assignment unchanged.
type AssignDoctorsInput struct {
	AttendingDoctorID uint `json:"attending_doctor_id"`
	AdmittingDoctorID uint `json:"admitting_doctor_id"`
}

// PatientRow is a patient listing row with the assigned doctors' names.
type PatientRow struct {
	model.Patient
	AttendingDoctorName *string `json:"attending_doctor_name"`
	AdmittingDoctorName *string `json:"admitting_doctor_name"`
}

// NewPatientRow flattens the doctor assignments of p.
func NewPatientRow(p model.Patient) PatientRow {
	row := PatientRow{Patient: p}
	if p.AttendingDoctor != nil && p.AttendingDoctor.Doctor != nil {
		row.AttendingDoctorName = &p.AttendingDoctor.Doctor.Fullname
	}
	if p.AdmittingDoctor != nil && p.AdmittingDoctor.Doctor != nil {
		row.AdmittingDoctorName = &p.AdmittingDoctor.Doctor.Fullname
	}
	return row
}

// CurrentAssignments are the doctor ids currently assigned to a patient.
type CurrentAssignments struct {
	Attending *model.PtAttendingDoctor `json:"attending"`
	Admitting *model.PtAdmittingDoctor `json:"admitting"`
}

// AssignDoctorsForm is everything needed to render the assignment form.
type AssignDoctorsForm struct {
	Patient            *model.Patient       `json:"patient"`
	AttendingDoctors   []model.DocAttending `json:"attending_doctors"`
	AdmittingDoctors   []model.DocAdmitting `json:"admitting_doctors"`
	CurrentAssignments CurrentAssignments   `json:"current_assignments"`
}

// PatientService manages patients and their doctor assignments.
type PatientService interface {
	List(ctx context.Context, search string, page int) (*repository.Page[PatientRow], error)
	Get(ctx context.Context, id uint) (*model.Patient, error)
	Create(ctx context.Context, actor audit.Actor, in PatientInput) (*model.Patient, error)
	Update(ctx context.Context, actor audit.Actor, id uint, in PatientInput) (*model.Patient, error)
	Delete(ctx context.Context, actor audit.Actor, id uint) error
	AssignDoctorsForm(ctx context.Context, id uint) (*AssignDoctorsForm, error)
	AssignDoctors(ctx context.Context, id uint, in AssignDoctorsInput) error
}

type patientService struct {
	repo      repository.PatientRepository
	attending repository.DoctorRepository[model.DocAttending]
	admitting repository.DoctorRepository[model.DocAdmitting]
	disk      *storage.Disk
	recorder  audit.Recorder
}

// NewPatientService builds a PatientService.
func NewPatientService(
	repo repository.PatientRepository,
	attending repository.DoctorRepository[model.DocAttending],
	admitting repository.DoctorRepository[model.DocAdmitting],
	disk *storage.Disk,
	recorder audit.Recorder,
) PatientService {
	return &patientService{
		repo:      repo,
		attending: attending,
		admitting: admitting,
		disk:      disk,
		recorder:  recorder,
	}
}

func (s *patientService) List(ctx context.Context, search string, page int) (*repository.Page[PatientRow], error) {
	p, err := s.repo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	return repository.MapPage(p, NewPatientRow), nil
}

func (s *patientService) Get(ctx context.Context, id uint) (*model.Patient, error) {
	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrPatientNotFound)
	}
	return patient, nil
}

func (s *patientService) Create(ctx context.Context, actor audit.Actor, in PatientInput) (*model.Patient, error) {
	patient := &model.Patient{}
	in.apply(patient)
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.recorder.Record(ctx, actor, audit.Entry{
		Action:      model.ActionCreated,
		Model:       "Patient",
		ModelID:     patient.ID,
		Description: fmt.Sprintf("Created patient: %s %s", patient.FirstName, patient.LastName),
		Properties:  map[string]interface{}{"patient": patient.Snapshot()},
	})
	return patient, nil
}

func (s *patientService) Update(ctx context.Context, actor audit.Actor, id uint, in PatientInput) (*model.Patient, error) {
	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrPatientNotFound)
	}
	old := patient.Snapshot()
	in.apply(patient)
	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}

	s.recorder.Record(ctx, actor, audit.Entry{
		Action:      model.ActionUpdated,
		Model:       "Patient",
		ModelID:     patient.ID,
		Description: fmt.Sprintf("Updated patient: %s %s", patient.FirstName, patient.LastName),
		Properties:  map[string]interface{}{"old": old, "new": patient.Snapshot()},
	})
	return patient, nil
}

func (s *patientService) Delete(ctx context.Context, actor audit.Actor, id uint) error {
	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, apperrors.ErrPatientNotFound)
	}
	attachments, err := s.repo.Delete(ctx, id)
	if err != nil {
		return notFound(err, apperrors.ErrPatientNotFound)
	}
	for _, p := range attachments {
		if err := s.disk.Delete(p); err != nil {
			// the sweeper picks up whatever is left behind
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("remove statement attachment")
		}
	}

	s.recorder.Record(ctx, actor, audit.Entry{
		Action:      model.ActionDeleted,
		Model:       "Patient",
		ModelID:     id,
		Description: fmt.Sprintf("Deleted patient: %s %s", patient.FirstName, patient.LastName),
	})
	return nil
}

func (s *patientService) AssignDoctorsForm(ctx context.Context, id uint) (*AssignDoctorsForm, error) {
	patient, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	attending, err := s.attending.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attending doctors: %w", err)
	}
	admitting, err := s.admitting.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admitting doctors: %w", err)
	}
	return &AssignDoctorsForm{
		Patient:          patient,
		AttendingDoctors: attending,
		AdmittingDoctors: admitting,
		CurrentAssignments: CurrentAssignments{
			Attending: patient.AttendingDoctor,
			Admitting: patient.AdmittingDoctor,
		},
	}, nil
}

func (s *patientService) AssignDoctors(ctx context.Context, id uint, in AssignDoctorsInput) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("find patient: %w", err)
	}
	if !exists {
		return apperrors.ErrPatientNotFound
	}

	verr := &apperrors.ValidationError{}
	if in.AttendingDoctorID != 0 {
		ok, err := s.attending.Exists(ctx, in.AttendingDoctorID)
		if err != nil {
			return fmt.Errorf("find attending doctor: %w", err)
		}
		if !ok {
			verr.Add("attending_doctor_id", "The selected attending doctor id is invalid.")
		}
	}
	if in.AdmittingDoctorID != 0 {
		ok, err := s.admitting.Exists(ctx, in.AdmittingDoctorID)
		if err != nil {
			return fmt.Errorf("find admitting doctor: %w", err)
		}
		if !ok {
			verr.Add("admitting_doctor_id", "The selected admitting doctor id is invalid.")
		}
	}
	if !verr.Empty() {
		return verr
	}

	if in.AttendingDoctorID != 0 {
		if err := s.repo.AssignAttendingDoctor(ctx, id, in.AttendingDoctorID); err != nil {
			return fmt.Errorf("assign attending doctor: %w", err)
		}
	}
	if in.AdmittingDoctorID != 0 {
		if err := s.repo.AssignAdmittingDoctor(ctx, id, in.AdmittingDoctorID); err != nil {
			return fmt.Errorf("assign admitting doctor: %w", err)
		}
	}
	return nil
}

// nullable trims s and maps blank values to nil.
func nullable(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
