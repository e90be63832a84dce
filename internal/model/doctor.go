package model

import "time"

// DocAttending is a doctor who can be assigned as a patient's attending physician.
type DocAttending struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Fullname  string    `json:"fullname" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocAdmitting is a doctor who can be assigned as a patient's admitting physician.
type DocAdmitting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Fullname  string    `json:"fullname" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PtAttendingDoctor links a patient to at most one attending doctor.
type PtAttendingDoctor struct {
	ID                uint          `json:"id" gorm:"primaryKey"`
	PatientID         uint          `json:"patient_id" gorm:"uniqueIndex;not null"`
	AttendingDoctorID uint          `json:"attending_doctor" gorm:"column:attending_doctor;index;not null"`
	Doctor            *DocAttending `json:"doctor,omitempty" gorm:"foreignKey:AttendingDoctorID"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (PtAttendingDoctor) TableName() string { return "pt_attending_doctor" }

// PtAdmittingDoctor links a patient to at most one admitting doctor.
type PtAdmittingDoctor struct {
	ID                uint          `json:"id" gorm:"primaryKey"`
	PatientID         uint          `json:"patient_id" gorm:"uniqueIndex;not null"`
	AdmittingDoctorID uint          `json:"admitting_doctor" gorm:"column:admitting_doctor;index;not null"`
	Doctor            *DocAdmitting `json:"doctor,omitempty" gorm:"foreignKey:AdmittingDoctorID"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (PtAdmittingDoctor) TableName() string { return "pt_admitting_doctor" }

// PtRoom is a hospital room.
type PtRoom struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RoomNumber string    `json:"room_number" gorm:"uniqueIndex;size:255;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (PtRoom) TableName() string { return "pt_room" }
