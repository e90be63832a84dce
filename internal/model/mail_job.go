package model

import "time"

// MailJobStatus is the delivery state of a queued message.
type MailJobStatus string

const (
	MailJobPending MailJobStatus = "pending"
	MailJobSent    MailJobStatus = "sent"
	MailJobFailed  MailJobStatus = "failed"
)

// MailJob is an outbound email waiting for delivery.
type MailJob struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	To            string        `json:"to" gorm:"column:recipient;size:255;not null"`
	ToName        string        `json:"to_name" gorm:"size:255"`
	Subject       string        `json:"subject" gorm:"size:255;not null"`
	HTMLBody      string        `json:"-" gorm:"type:text"`
	Status        MailJobStatus `json:"status" gorm:"size:20;index;not null;default:'pending'"`
	Attempts      int           `json:"attempts" gorm:"not null;default:0"`
	NextAttemptAt time.Time     `json:"next_attempt_at" gorm:"index"`
	LastError     string        `json:"last_error" gorm:"type:text"`
	SentAt        *time.Time    `json:"sent_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
