package model

import (
	"strings"
	"time"
)

// Patient is a registered hospital patient.
type Patient struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FirstName     string    `json:"first_name" gorm:"size:255;not null"`
	LastName      string    `json:"last_name" gorm:"size:255;not null"`
	MiddleName    *string   `json:"middle_name" gorm:"size:255"`
	ExtensionName *string   `json:"extension_name" gorm:"size:255"`
	PhoneNumber   *string   `json:"phone_number" gorm:"size:255"`
	Address       *string   `json:"address" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time `json:"updated_at"`

	AttendingDoctor *PtAttendingDoctor `json:"attending_doctor,omitempty" gorm:"foreignKey:PatientID"`
	AdmittingDoctor *PtAdmittingDoctor `json:"admitting_doctor,omitempty" gorm:"foreignKey:PatientID"`
}

// FullName joins first, middle and last name.
func (p *Patient) FullName() string {
	if p == nil {
		return "Unknown Patient"
	}
	parts := []string{p.FirstName}
	if p.MiddleName != nil {
		parts = append(parts, *p.MiddleName)
	}
	parts = append(parts, p.LastName)
	name := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if name == "" {
		return "Unknown Patient"
	}
	return name
}

// Snapshot is the subset of fields recorded in activity log properties.
func (p *Patient) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"first_name":     p.FirstName,
		"last_name":      p.LastName,
		"middle_name":    p.MiddleName,
		"extension_name": p.ExtensionName,
		"phone_number":   p.PhoneNumber,
		"address":        p.Address,
	}
}
