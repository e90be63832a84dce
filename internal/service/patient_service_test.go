package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acemc/internal/audit"
	"acemc/internal/db/dbtest"
	apperrors "acemc/internal/errors"
	"acemc/internal/model"
	"acemc/internal/repository"
	"acemc/internal/storage"
)

type patientFixture struct {
	patients  repository.PatientRepository
	attending repository.DoctorRepository[model.DocAttending]
	admitting repository.DoctorRepository[model.DocAdmitting]
	soas      repository.SoaRepository
	logs      repository.ActivityLogRepository
	disk      *storage.Disk
	service   PatientService
	actor     audit.Actor
}

func newPatientFixture(t *testing.T) *patientFixture {
	t.Helper()
	db := dbtest.New(t)
	f := &patientFixture{
		patients:  repository.NewPatientRepository(db),
		attending: repository.NewAttendingDoctorRepository(db),
		admitting: repository.NewAdmittingDoctorRepository(db),
		soas:      repository.NewSoaRepository(db),
		logs:      repository.NewActivityLogRepository(db),
		disk:      storage.NewDisk(afero.NewMemMapFs()),
	}
	f.service = NewPatientService(f.patients, f.attending, f.admitting, f.disk, audit.NewRecorder(f.logs))

	staff := &model.User{Name: "Admitting Staff", Email: "admitting@acemc.test", PasswordHash: "x", Role: model.RoleAdmitting}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), staff))
	f.actor = audit.Actor{UserID: staff.ID}
	return f
}

func strptr(s string) *string { return &s }

func TestPatientService_CreateNormalisesOptionalFields(t *testing.T) {
	f := newPatientFixture(t)
	ctx := context.Background()

	patient, err := f.service.Create(ctx, f.actor, PatientInput{
		FirstName:  " Juan ",
		LastName:   "Dela Cruz",
		MiddleName: strptr("  "),
		Address:    strptr("Tuguegarao City"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Juan", patient.FirstName)
	assert.Nil(t, patient.MiddleName)
	assert.Equal(t, "Tuguegarao City", *patient.Address)
	assert.Equal(t, "Juan Dela Cruz", patient.FullName())

	page, err := f.logs.List(ctx, repository.ActivityLogFilter{Model: "Patient"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Created patient: Juan Dela Cruz", page.Data[0].Description)
}

func TestPatientService_AssignDoctors(t *testing.T) {
	f := newPatientFixture(t)
	ctx := context.Background()

	patient, err := f.service.Create(ctx, f.actor, PatientInput{FirstName: "Maria", LastName: "Santos"})
	require.NoError(t, err)
	dr1 := &model.DocAttending{Fullname: "Dr. Reyes"}
	dr2 := &model.DocAttending{Fullname: "Dr. Lim"}
	adm := &model.DocAdmitting{Fullname: "Dr. Tan"}
	require.NoError(t, f.attending.Create(ctx, dr1))
	require.NoError(t, f.attending.Create(ctx, dr2))
	require.NoError(t, f.admitting.Create(ctx, adm))

	require.NoError(t, f.service.AssignDoctors(ctx, patient.ID, AssignDoctorsInput{AttendingDoctorID: dr1.ID, AdmittingDoctorID: adm.ID}))
	require.NoError(t, f.service.AssignDoctors(ctx, patient.ID, AssignDoctorsInput{AttendingDoctorID: dr2.ID}))

	form, err := f.service.AssignDoctorsForm(ctx, patient.ID)
	require.NoError(t, err)
	assert.Len(t, form.AttendingDoctors, 2)
	assert.Len(t, form.AdmittingDoctors, 1)
	require.NotNil(t, form.CurrentAssignments.Attending)
	assert.Equal(t, dr2.ID, form.CurrentAssignments.Attending.AttendingDoctorID)
	require.NotNil(t, form.CurrentAssignments.Admitting)
	assert.Equal(t, adm.ID, form.CurrentAssignments.Admitting.AdmittingDoctorID)

	page, err := f.service.List(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.NotNil(t, page.Data[0].AttendingDoctorName)
	assert.Equal(t, "Dr. Lim", *page.Data[0].AttendingDoctorName)
	assert.Equal(t, "Dr. Tan", *page.Data[0].AdmittingDoctorName)
}

func TestPatientService_AssignDoctorsValidatesIDs(t *testing.T) {
	f := newPatientFixture(t)
	ctx := context.Background()
	patient, err := f.service.Create(ctx, f.actor, PatientInput{FirstName: "Maria", LastName: "Santos"})
	require.NoError(t, err)

	err = f.service.AssignDoctors(ctx, patient.ID, AssignDoctorsInput{AttendingDoctorID: 77, AdmittingDoctorID: 78})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "attending_doctor_id")
	assert.Contains(t, verr.Fields, "admitting_doctor_id")

	err = f.service.AssignDoctors(ctx, 999, AssignDoctorsInput{})
	assert.ErrorIs(t, err, apperrors.ErrPatientNotFound)
}

func TestPatientService_DeleteRemovesStatementsAndFiles(t *testing.T) {
	f := newPatientFixture(t)
	ctx := context.Background()
	patient, err := f.service.Create(ctx, f.actor, PatientInput{FirstName: "Maria", LastName: "Santos"})
	require.NoError(t, err)

	staged, err := f.disk.Stage(SoaDir, ".pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	final, err := f.disk.Commit(staged)
	require.NoError(t, err)
	require.NoError(t, f.soas.Create(ctx, &model.PatientSoa{PatientID: patient.ID, SoaAttach: &final}))

	require.NoError(t, f.service.Delete(ctx, f.actor, patient.ID))
	assert.False(t, f.disk.Exists(final))

	all, err := f.soas.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	page, err := f.logs.List(ctx, repository.ActivityLogFilter{Action: model.ActionDeleted})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Deleted patient: Maria Santos", page.Data[0].Description)

	assert.ErrorIs(t, f.service.Delete(ctx, f.actor, patient.ID), apperrors.ErrPatientNotFound)
}

func TestPatientService_UpdateRecordsOldAndNew(t *testing.T) {
	f := newPatientFixture(t)
	ctx := context.Background()
	patient, err := f.service.Create(ctx, f.actor, PatientInput{FirstName: "Maria", LastName: "Santos"})
	require.NoError(t, err)

	_, err = f.service.Update(ctx, f.actor, patient.ID, PatientInput{FirstName: "Maria", LastName: "Reyes", PhoneNumber: strptr("09171234567")})
	require.NoError(t, err)

	page, err := f.logs.List(ctx, repository.ActivityLogFilter{Action: model.ActionUpdated})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Updated patient: Maria Reyes", page.Data[0].Description)
	assert.Equal(t, "Santos", page.Data[0].Properties["old"].(map[string]interface{})["last_name"])
	assert.Equal(t, "Reyes", page.Data[0].Properties["new"].(map[string]interface{})["last_name"])

	_, err = f.service.Update(ctx, f.actor, 999, PatientInput{FirstName: "x", LastName: "y"})
	assert.ErrorIs(t, err, apperrors.ErrPatientNotFound)
}

func TestDoctorService(t *testing.T) {
	f := newPatientFixture(t)
	ctx := context.Background()
	svc := NewAdmittingDoctorService(f.admitting)

	doc, err := svc.Create(ctx, DoctorInput{Fullname: "Dr. Tan"})
	require.NoError(t, err)
	doc, err = svc.Update(ctx, doc.ID, DoctorInput{Fullname: "Dr. Tan Jr."})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Tan Jr.", doc.Fullname)

	page, err := svc.List(ctx, "jr", 1)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	require.NoError(t, svc.Delete(ctx, doc.ID))
	assert.ErrorIs(t, svc.Delete(ctx, doc.ID), apperrors.ErrDoctorNotFound)
	_, err = svc.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, apperrors.ErrDoctorNotFound)
}

func TestRoomService_UniqueNumber(t *testing.T) {
	db := dbtest.New(t)
	svc := NewRoomService(repository.NewRoomRepository(db))
	ctx := context.Background()

	a, err := svc.Create(ctx, RoomInput{RoomNumber: "101"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, RoomInput{RoomNumber: "102"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, RoomInput{RoomNumber: "101"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "The room number has already been taken.", verr.Fields["room_number"])

	_, err = svc.Update(ctx, b.ID, RoomInput{RoomNumber: "101"})
	require.ErrorAs(t, err, &verr)

	_, err = svc.Update(ctx, a.ID, RoomInput{RoomNumber: "101"})
	assert.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), apperrors.ErrRoomNotFound)
}
