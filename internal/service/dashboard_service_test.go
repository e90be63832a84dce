package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"acemc/internal/db/dbtest"
	"acemc/internal/model"
	"acemc/internal/repository"
)

func TestTrailingMonths(t *testing.T) {
	now := time.Date(2026, time.March, 31, 15, 0, 0, 0, time.UTC)
	months := trailingMonths(now, 6)

	require.Len(t, months, 6)
	labels := make([]string, 0, len(months))
	for _, m := range months {
		labels = append(labels, m.label)
	}
	assert.Equal(t, []string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}, labels)
	assert.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), months[0].start)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), months[5].end)
}

func newDashboard(db *gorm.DB, now time.Time) *dashboardService {
	svc := NewDashboardService(
		repository.NewUserRepository(db),
		repository.NewPatientRepository(db),
		repository.NewRoomRepository(db),
		repository.NewSoaRepository(db),
	).(*dashboardService)
	svc.now = func() time.Time { return now }
	return svc
}

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestDashboardService_Billing(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	now := time.Now().UTC()
	patient := &model.Patient{FirstName: "Juan", LastName: "Dela Cruz"}
	require.NoError(t, repository.NewPatientRepository(db).Create(ctx, patient))

	soas := repository.NewSoaRepository(db)
	for _, a := range []decimal.NullDecimal{amount("500"), amount("9999.99"), amount("10000"), amount("150000"), {}} {
		require.NoError(t, soas.Create(ctx, &model.PatientSoa{PatientID: patient.ID, Amount: a}))
	}
	old := &model.PatientSoa{PatientID: patient.ID, Amount: amount("1"), CreatedAt: now.AddDate(-2, 0, 0)}
	require.NoError(t, soas.Create(ctx, old))

	d, err := newDashboard(db, now).Billing(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, d.Stats.TotalInvoices)
	assert.Zero(t, d.Stats.PendingInvoices)
	assert.Zero(t, d.Stats.PaidInvoices)
	assert.InDelta(t, 170500.99, d.Stats.TotalAmountDue, 0.001)
	assert.Len(t, d.PatientBills, 6)
	assert.Len(t, d.RecentSoas, 5)
	assert.Equal(t, "Juan Dela Cruz", d.PatientBills[0].PatientName)

	require.Len(t, d.MonthlyBilling, 6)
	current := d.MonthlyBilling[5]
	assert.Equal(t, now.Format("Jan"), current.Month)
	assert.Equal(t, 5, current.Invoices)
	assert.InDelta(t, 170499.99, current.Amount, 0.001)

	assert.Equal(t, []Slice{
		{Name: "< ₱10,000", Value: 3},
		{Name: "₱10,000 - ₱50,000", Value: 1},
		{Name: "> ₱100,000", Value: 1},
	}, d.AmountDistribution)
}

func TestDashboardService_Admin(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	now := time.Now().UTC()
	verified := now
	threeMonthsAgo := time.Date(now.Year(), now.Month()-3, 2, 12, 0, 0, 0, time.UTC)

	for _, u := range []*model.User{
		{Name: "Admin", Email: "a@acemc.test", Role: model.RoleAdmin, PasswordHash: "x"},
		{Name: "Bill", Email: "b@acemc.test", Role: model.RoleBilling, PasswordHash: "x", EmailVerifiedAt: &verified},
		{Name: "Ada", Email: "c@acemc.test", Role: model.RoleAdmitting, PasswordHash: "x"},
		{Name: "Old", Email: "d@acemc.test", Role: model.RoleBilling, PasswordHash: "x", CreatedAt: threeMonthsAgo},
	} {
		require.NoError(t, users.Create(ctx, u))
	}

	d, err := newDashboard(db, now).Admin(ctx)
	require.NoError(t, err)

	assert.Equal(t, AdminStats{TotalBilling: 2, TotalAdmitting: 1, TotalAdmins: 1, VerifiedUsers: 1, RecentSignups: 2}, d.Stats)
	assert.Len(t, d.RecentUsers, 3)
	require.Len(t, d.MonthlyRegistrations, 6)
	assert.Equal(t, int64(1), d.MonthlyRegistrations[5].Billing)
	assert.Equal(t, int64(1), d.MonthlyRegistrations[5].Admitting)
	assert.Equal(t, int64(1), d.MonthlyRegistrations[2].Billing)
	assert.Equal(t, []Slice{
		{Name: "Verified", Value: 1, Fill: "var(--color-verified)"},
		{Name: "Unverified", Value: 2, Fill: "var(--color-unverified)"},
	}, d.VerificationStatus)
}

func TestDashboardService_Admitting(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	patients := repository.NewPatientRepository(db)
	now := time.Now().UTC()

	today := &model.Patient{FirstName: "New", LastName: "Patient"}
	earlier := &model.Patient{FirstName: "Old", LastName: "Patient", CreatedAt: now.AddDate(0, 0, -3)}
	require.NoError(t, patients.Create(ctx, today))
	require.NoError(t, patients.Create(ctx, earlier))
	doc := &model.DocAdmitting{Fullname: "Dr. Tan"}
	require.NoError(t, repository.NewAdmittingDoctorRepository(db).Create(ctx, doc))
	require.NoError(t, patients.AssignAdmittingDoctor(ctx, earlier.ID, doc.ID))
	require.NoError(t, repository.NewRoomRepository(db).Create(ctx, &model.PtRoom{RoomNumber: "101"}))

	d, err := newDashboard(db, now).Admitting(ctx)
	require.NoError(t, err)

	assert.Equal(t, AdmittingStats{
		TotalPatients:     2,
		PendingAdmissions: 1,
		CompletedToday:    1,
		ActiveAdmissions:  1,
		TotalRooms:        1,
	}, d.Stats)
	require.Len(t, d.RecentAdmissions, 2)
	assert.Equal(t, "New", d.RecentAdmissions[0].FirstName)
	require.NotNil(t, d.RecentAdmissions[1].AdmittingDoctorName)
	assert.Equal(t, "Dr. Tan", *d.RecentAdmissions[1].AdmittingDoctorName)
}
