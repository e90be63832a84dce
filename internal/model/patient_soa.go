package model

import (
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// File types reported for SOA attachments.
const (
	FileTypeImage = "image"
	FileTypePDF   = "pdf"
)

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
}

// PatientSoa is a statement of account issued to a patient.
type PatientSoa struct {
	ID          uint                `json:"id" gorm:"primaryKey"`
	PatientID   uint                `json:"patient_id" gorm:"index;not null"`
	Patient     *Patient            `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	SoaAttach   *string             `json:"soa_attach" gorm:"size:255"`
	SoaLink     *string             `json:"soa_link" gorm:"size:500"`
	PublicToken *string             `json:"-" gorm:"size:64;uniqueIndex"`
	Amount      decimal.NullDecimal `json:"amount" gorm:"type:decimal(12,2)"`
	CreatedAt   time.Time           `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (PatientSoa) TableName() string { return "patient_soa" }

// FileType classifies the stored attachment. Empty when there is none.
func (s *PatientSoa) FileType() string {
	if s.SoaAttach == nil || *s.SoaAttach == "" {
		return ""
	}
	return FileTypeOf(*s.SoaAttach)
}

// FileTypeOf classifies a stored path by extension.
func FileTypeOf(p string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if imageExtensions[ext] {
		return FileTypeImage
	}
	return FileTypePDF
}
