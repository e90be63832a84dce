package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"acemc/internal/config"
	"acemc/internal/db"
	"acemc/internal/model"
	"acemc/internal/repository"
)

const defaultPassword = "password"

type seedUser struct {
	Name  string
	Email string
	Role  model.Role
}

var users = []seedUser{
	{Name: "Admin User", Email: "admin@example.com", Role: model.RoleAdmin},
	{Name: "Billing User", Email: "billing@example.com", Role: model.RoleBilling},
	{Name: "Admitting User", Email: "admitting@example.com", Role: model.RoleAdmitting},
	{Name: "Test User", Email: "test@example.com", Role: model.RoleBilling},
}

var attendingDoctors = []string{
	"Dr. Maria Santos",
	"Dr. Juan Dela Cruz",
	"Dr. Ana Reyes",
	"Dr. Carlos Garcia",
	"Dr. Sofia Mendoza",
}

var admittingDoctors = []string{
	"Dr. Roberto Cruz",
	"Dr. Elena Ramos",
	"Dr. Miguel Torres",
	"Dr. Isabel Flores",
	"Dr. Pedro Gonzales",
}

type seedPatient struct {
	First, Last, Middle, Phone, Address string
}

var patients = []seedPatient{
	{"Juan", "Dela Cruz", "Santos", "+63 912 345 6789", "123 Main St, Manila"},
	{"Maria", "Garcia", "Lopez", "+63 923 456 7890", "456 Rizal Ave, Quezon City"},
	{"Pedro", "Reyes", "Ramos", "+63 934 567 8901", "789 Bonifacio St, Makati"},
	{"Ana", "Mendoza", "Cruz", "+63 945 678 9012", "321 Luna St, Pasig"},
	{"Carlos", "Torres", "Flores", "+63 956 789 0123", "654 Mabini St, Taguig"},
}

var rooms = []string{"101", "102", "103", "201", "202", "203", "ICU-1", "ICU-2", "ER-1", "ER-2"}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	logger.Info().Msg("starting seed")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gormDB, false); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()

	created, err := seedUsers(ctx, repository.NewUserRepository(gormDB))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed users")
	}
	logger.Info().Int("created", created).Int("total", len(users)).Msg("users seeded")

	if err := seedSampleData(ctx, gormDB); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed sample data")
	}
	logger.Info().
		Int("attending_doctors", len(attendingDoctors)).
		Int("admitting_doctors", len(admittingDoctors)).
		Int("patients", len(patients)).
		Int("rooms", len(rooms)).
		Msg("sample data seeded")
}

// seedUsers creates the verified staff accounts that do not exist yet.
// Existing accounts are left untouched.
func seedUsers(ctx context.Context, repo repository.UserRepository) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	created := 0
	now := time.Now()
	for _, u := range users {
		_, err := repo.FindByEmail(ctx, u.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("look up %s: %w", u.Email, err)
		}

		user := &model.User{
			Name:            u.Name,
			Email:           u.Email,
			PasswordHash:    string(hash),
			Role:            u.Role,
			EmailVerifiedAt: &now,
		}
		if err := repo.Create(ctx, user); err != nil {
			return created, fmt.Errorf("create %s: %w", u.Email, err)
		}
		created++
	}
	return created, nil
}

func seedSampleData(ctx context.Context, gormDB *gorm.DB) error {
	return gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range attendingDoctors {
			if err := tx.Where(model.DocAttending{Fullname: name}).FirstOrCreate(&model.DocAttending{}).Error; err != nil {
				return fmt.Errorf("attending doctor %q: %w", name, err)
			}
		}
		for _, name := range admittingDoctors {
			if err := tx.Where(model.DocAdmitting{Fullname: name}).FirstOrCreate(&model.DocAdmitting{}).Error; err != nil {
				return fmt.Errorf("admitting doctor %q: %w", name, err)
			}
		}
		for _, p := range patients {
			patient := model.Patient{
				MiddleName:  strPtr(p.Middle),
				PhoneNumber: strPtr(p.Phone),
				Address:     strPtr(p.Address),
			}
			err := tx.Where(model.Patient{FirstName: p.First, LastName: p.Last}).
				Attrs(patient).
				FirstOrCreate(&model.Patient{}).Error
			if err != nil {
				return fmt.Errorf("patient %s %s: %w", p.First, p.Last, err)
			}
		}
		for _, number := range rooms {
			if err := tx.Where(model.PtRoom{RoomNumber: number}).FirstOrCreate(&model.PtRoom{}).Error; err != nil {
				return fmt.Errorf("room %s: %w", number, err)
			}
		}
		return nil
	})
}

func strPtr(s string) *string {
	return &s
}
