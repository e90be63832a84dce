package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"acemc/internal/model"
	"acemc/internal/repository"
)

const (
	dashboardMonths   = 6
	recentUsersLimit  = 10
	recentSoasLimit   = 5
	recentAdmitsLimit = 5
	recentSignupDays  = 30
)

var staffRoles = []model.Role{model.RoleBilling, model.RoleAdmitting}

// Slice is one segment of a pie chart.
type Slice struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Fill  string `json:"fill,omitempty"`
}

// AdminStats are the headline numbers of the admin dashboard.
type AdminStats struct {
	TotalBilling   int64 `json:"total_billing"`
	TotalAdmitting int64 `json:"total_admitting"`
	TotalAdmins    int64 `json:"total_admins"`
	VerifiedUsers  int64 `json:"verified_users"`
	RecentSignups  int64 `json:"recent_signups"`
}

// MonthlyRegistrations counts new staff accounts per role in one month.
type MonthlyRegistrations struct {
	Month     string `json:"month"`
	Billing   int64  `json:"billing"`
	Admitting int64  `json:"admitting"`
}

// AdminDashboard is the admin landing page payload.
type AdminDashboard struct {
	Stats                AdminStats             `json:"stats"`
	RecentUsers          []model.User           `json:"recent_users"`
	MonthlyRegistrations []MonthlyRegistrations `json:"monthly_registrations"`
	RoleDistribution     []Slice                `json:"role_distribution"`
	VerificationStatus   []Slice                `json:"verification_status"`
}

// BillingStats are the headline numbers of the billing dashboard.
type BillingStats struct {
	TotalInvoices   int     `json:"total_invoices"`
	PendingInvoices int     `json:"pending_invoices"`
	PaidInvoices    int     `json:"paid_invoices"`
	TotalAmountDue  float64 `json:"total_amount_due"`
}

// PatientBill is one statement summarised for the billing dashboard.
type PatientBill struct {
	ID          uint    `json:"id"`
	PatientName string  `json:"patient_name"`
	Amount      float64 `json:"amount"`
	CreatedAt   string  `json:"created_at"`
}

// MonthlyBilling counts and sums the statements issued in one month.
type MonthlyBilling struct {
	Month    string  `json:"month"`
	Invoices int     `json:"invoices"`
	Amount   float64 `json:"amount"`
}

// BillingDashboard is the billing landing page payload.
type BillingDashboard struct {
	Stats              BillingStats     `json:"stats"`
	PatientBills       []PatientBill    `json:"patient_bills"`
	MonthlyBilling     []MonthlyBilling `json:"monthly_billing"`
	RecentSoas         []PatientBill    `json:"recent_soas"`
	AmountDistribution []Slice          `json:"amount_distribution"`
}

// AdmittingStats are the headline numbers of the admitting dashboard.
type AdmittingStats struct {
	TotalPatients     int64 `json:"total_patients"`
	PendingAdmissions int64 `json:"pending_admissions"`
	CompletedToday    int64 `json:"completed_today"`
	ActiveAdmissions  int64 `json:"active_admissions"`
	TotalRooms        int64 `json:"total_rooms"`
}

// AdmittingDashboard is the admitting landing page payload.
type AdmittingDashboard struct {
	Stats            AdmittingStats `json:"stats"`
	RecentAdmissions []PatientRow   `json:"recent_admissions"`
}

type amountBucket struct {
	name     string
	min, max decimal.Decimal
	open     bool
}

var amountBuckets = []amountBucket{
	{name: "< ₱10,000", min: decimal.Zero, max: decimal.NewFromInt(10000)},
	{name: "₱10,000 - ₱50,000", min: decimal.NewFromInt(10000), max: decimal.NewFromInt(50000)},
	{name: "₱50,000 - ₱100,000", min: decimal.NewFromInt(50000), max: decimal.NewFromInt(100000)},
	{name: "> ₱100,000", min: decimal.NewFromInt(100000), open: true},
}

func (b amountBucket) contains(d decimal.Decimal) bool {
	if d.LessThan(b.min) {
		return false
	}
	return b.open || d.LessThan(b.max)
}

// DashboardService computes the role dashboards. Every call reads fresh data.
type DashboardService interface {
	Admin(ctx context.Context) (*AdminDashboard, error)
	Billing(ctx context.Context) (*BillingDashboard, error)
	Admitting(ctx context.Context) (*AdmittingDashboard, error)
}

type dashboardService struct {
	users    repository.UserRepository
	patients repository.PatientRepository
	rooms    repository.RoomRepository
	soas     repository.SoaRepository
	now      func() time.Time
}

// NewDashboardService builds a DashboardService.
func NewDashboardService(users repository.UserRepository, patients repository.PatientRepository, rooms repository.RoomRepository, soas repository.SoaRepository) DashboardService {
	return &dashboardService{
		users:    users,
		patients: patients,
		rooms:    rooms,
		soas:     soas,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// month is a [start, end) window.
type month struct {
	label      string
	start, end time.Time
}

// trailingMonths returns the n calendar months ending with the one holding now, oldest first.
func trailingMonths(now time.Time, n int) []month {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]month, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		out = append(out, month{label: start.Format("Jan"), start: start, end: start.AddDate(0, 1, 0)})
	}
	return out
}

func (s *dashboardService) Admin(ctx context.Context) (*AdminDashboard, error) {
	var (
		d   AdminDashboard
		err error
	)
	now := s.now()

	if d.Stats.TotalBilling, err = s.users.CountByRole(ctx, model.RoleBilling); err != nil {
		return nil, err
	}
	if d.Stats.TotalAdmitting, err = s.users.CountByRole(ctx, model.RoleAdmitting); err != nil {
		return nil, err
	}
	if d.Stats.TotalAdmins, err = s.users.CountByRole(ctx, model.RoleAdmin); err != nil {
		return nil, err
	}
	if d.Stats.VerifiedUsers, err = s.users.CountVerified(ctx, staffRoles...); err != nil {
		return nil, err
	}
	if d.Stats.RecentSignups, err = s.users.CountCreatedBetween(ctx, now.AddDate(0, 0, -recentSignupDays), now.Add(time.Second), staffRoles...); err != nil {
		return nil, err
	}
	if d.RecentUsers, err = s.users.Recent(ctx, recentUsersLimit, staffRoles...); err != nil {
		return nil, err
	}

	for _, m := range trailingMonths(now, dashboardMonths) {
		row := MonthlyRegistrations{Month: m.label}
		if row.Billing, err = s.users.CountCreatedBetween(ctx, m.start, m.end, model.RoleBilling); err != nil {
			return nil, err
		}
		if row.Admitting, err = s.users.CountCreatedBetween(ctx, m.start, m.end, model.RoleAdmitting); err != nil {
			return nil, err
		}
		d.MonthlyRegistrations = append(d.MonthlyRegistrations, row)
	}

	d.RoleDistribution = []Slice{
		{Name: "Billing", Value: d.Stats.TotalBilling, Fill: "var(--color-billing)"},
		{Name: "Admitting", Value: d.Stats.TotalAdmitting, Fill: "var(--color-admitting)"},
	}
	unverified := d.Stats.TotalBilling + d.Stats.TotalAdmitting - d.Stats.VerifiedUsers
	d.VerificationStatus = []Slice{
		{Name: "Verified", Value: d.Stats.VerifiedUsers, Fill: "var(--color-verified)"},
		{Name: "Unverified", Value: unverified, Fill: "var(--color-unverified)"},
	}
	return &d, nil
}

func newPatientBill(soa *model.PatientSoa) PatientBill {
	amount, _ := soa.Amount.Decimal.Float64()
	if !soa.Amount.Valid {
		amount = 0
	}
	return PatientBill{
		ID:          soa.ID,
		PatientName: soa.Patient.FullName(),
		Amount:      amount,
		CreatedAt:   soa.CreatedAt.Format(time.DateTime),
	}
}

func (s *dashboardService) Billing(ctx context.Context) (*BillingDashboard, error) {
	soas, err := s.soas.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	d := BillingDashboard{
		PatientBills:       make([]PatientBill, 0, len(soas)),
		RecentSoas:         []PatientBill{},
		AmountDistribution: []Slice{},
	}
	months := trailingMonths(s.now(), dashboardMonths)
	monthTotals := make([]decimal.Decimal, len(months))
	d.MonthlyBilling = make([]MonthlyBilling, len(months))
	for i, m := range months {
		d.MonthlyBilling[i].Month = m.label
	}
	bucketCounts := make([]int64, len(amountBuckets))
	total := decimal.Zero

	for i := range soas {
		soa := &soas[i]
		bill := newPatientBill(soa)
		d.PatientBills = append(d.PatientBills, bill)
		if i < recentSoasLimit {
			d.RecentSoas = append(d.RecentSoas, bill)
		}

		amount := decimal.Zero
		if soa.Amount.Valid {
			amount = soa.Amount.Decimal
			total = total.Add(amount)
			for b := range amountBuckets {
				if amountBuckets[b].contains(amount) {
					bucketCounts[b]++
					break
				}
			}
		}
		for mi, m := range months {
			if !soa.CreatedAt.Before(m.start) && soa.CreatedAt.Before(m.end) {
				d.MonthlyBilling[mi].Invoices++
				monthTotals[mi] = monthTotals[mi].Add(amount)
				break
			}
		}
	}

	for mi := range months {
		d.MonthlyBilling[mi].Amount, _ = monthTotals[mi].Float64()
	}
	for b, n := range bucketCounts {
		if n > 0 {
			d.AmountDistribution = append(d.AmountDistribution, Slice{Name: amountBuckets[b].name, Value: n})
		}
	}
	d.Stats.TotalInvoices = len(soas)
	d.Stats.TotalAmountDue, _ = total.Float64()
	return &d, nil
}

func (s *dashboardService) Admitting(ctx context.Context) (*AdmittingDashboard, error) {
	var (
		d   AdmittingDashboard
		err error
	)
	if d.Stats.TotalPatients, err = s.patients.Count(ctx); err != nil {
		return nil, err
	}
	if d.Stats.ActiveAdmissions, err = s.patients.CountWithAdmittingDoctor(ctx); err != nil {
		return nil, err
	}
	d.Stats.PendingAdmissions = d.Stats.TotalPatients - d.Stats.ActiveAdmissions

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Stats.CompletedToday, err = s.patients.CountCreatedBetween(ctx, today, today.AddDate(0, 0, 1)); err != nil {
		return nil, err
	}
	if d.Stats.TotalRooms, err = s.rooms.Count(ctx); err != nil {
		return nil, err
	}

	recent, err := s.patients.Recent(ctx, recentAdmitsLimit)
	if err != nil {
		return nil, err
	}
	d.RecentAdmissions = make([]PatientRow, 0, len(recent))
	for _, p := range recent {
		d.RecentAdmissions = append(d.RecentAdmissions, NewPatientRow(p))
	}
	return &d, nil
}
