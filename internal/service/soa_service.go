package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "acemc/internal/errors"
	"acemc/internal/model"
	"acemc/internal/qrcode"
	"acemc/internal/repository"
	"acemc/internal/storage"
)

const (
	// SoaDir is the storage directory of statement attachments.
	SoaDir = "soa"
	// MaxSoaAttachSize is the largest accepted attachment, 10240 KB.
	MaxSoaAttachSize = 10240 * 1024

	sniffLen   = 3072
	tokenBytes = 32
)

var (
	maxSoaAmount = decimal.RequireFromString("9999999999.99")

	// accepted extensions and the content type each must carry
	soaExtensions = map[string]string{
		"pdf":  "application/pdf",
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"png":  "image/png",
		"gif":  "image/gif",
		"webp": "image/webp",
	}
)

// Upload is a file received with a request.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// SoaInput is the create and update payload for a statement of account.
// PatientID is ignored on update. A nil Amount leaves the stored amount
// unchanged on update; an empty one clears it.
type SoaInput struct {
	PatientID    uint
	Amount       *string
	GenerateLink bool
	Attachment   *Upload
}

// SoaView is a statement with its derived display fields.
type SoaView struct {
	model.PatientSoa
	PatientName string `json:"patient_name"`
	FileType    string `json:"file_type,omitempty"`
	FileURL     string `json:"file_url,omitempty"`
}

// NewSoaView derives the display fields of soa.
func NewSoaView(soa model.PatientSoa) SoaView {
	view := SoaView{
		PatientSoa:  soa,
		PatientName: soa.Patient.FullName(),
		FileType:    soa.FileType(),
	}
	if soa.SoaAttach != nil {
		view.FileURL = storage.URL(*soa.SoaAttach)
	}
	return view
}

// PublicSoa is what an anonymous holder of a statement link may see.
type PublicSoa struct {
	PatientName string              `json:"patient_name"`
	Amount      decimal.NullDecimal `json:"amount"`
	FileType    string              `json:"file_type,omitempty"`
	FileURL     string              `json:"file_url,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// PatientOption is one entry of the patient picker on the statement form.
type PatientOption struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// SoaService manages statements of account, their attachments and public links.
type SoaService interface {
	List(ctx context.Context, search string, page int) (*repository.Page[SoaView], error)
	Get(ctx context.Context, id uint) (*SoaView, error)
	PatientOptions(ctx context.Context) ([]PatientOption, error)
	Create(ctx context.Context, in SoaInput) (*SoaView, error)
	Update(ctx context.Context, id uint, in SoaInput) (*SoaView, error)
	Delete(ctx context.Context, id uint) error
	RotateLink(ctx context.Context, id uint) (*SoaView, error)
	RevokeLink(ctx context.Context, id uint) error
	QRCode(ctx context.Context, id uint) ([]byte, error)
	PublicView(ctx context.Context, token string) (*PublicSoa, error)
}

type soaService struct {
	repo          repository.SoaRepository
	patients      repository.PatientRepository
	disk          *storage.Disk
	publicBaseURL string
}

// NewSoaService builds a SoaService. Public links are rooted at publicBaseURL.
func NewSoaService(repo repository.SoaRepository, patients repository.PatientRepository, disk *storage.Disk, publicBaseURL string) SoaService {
	return &soaService{
		repo:          repo,
		patients:      patients,
		disk:          disk,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *soaService) List(ctx context.Context, search string, page int) (*repository.Page[SoaView], error) {
	p, err := s.repo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	return repository.MapPage(p, NewSoaView), nil
}

func (s *soaService) find(ctx context.Context, id uint) (*model.PatientSoa, error) {
	soa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSoaNotFound)
	}
	return soa, nil
}

func (s *soaService) Get(ctx context.Context, id uint) (*SoaView, error) {
	soa, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewSoaView(*soa)
	return &view, nil
}

func (s *soaService) PatientOptions(ctx context.Context) ([]PatientOption, error) {
	patients, err := s.patients.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PatientOption, 0, len(patients))
	for i := range patients {
		out = append(out, PatientOption{
			ID:        patients[i].ID,
			Name:      patients[i].FullName(),
			CreatedAt: patients[i].CreatedAt.Format("2006-01-02"),
		})
	}
	return out, nil
}

func (s *soaService) Create(ctx context.Context, in SoaInput) (*SoaView, error) {
	verr := &apperrors.ValidationError{}
	if in.PatientID == 0 {
		verr.Add("patient_id", "The patient id field is required.")
	} else {
		ok, err := s.patients.Exists(ctx, in.PatientID)
		if err != nil {
			return nil, fmt.Errorf("find patient: %w", err)
		}
		if !ok {
			verr.Add("patient_id", "The selected patient id is invalid.")
		}
	}
	amount := parseAmount(in.Amount, verr)
	upload := s.checkUpload(in.Attachment, verr)
	if !verr.Empty() {
		return nil, verr
	}

	soa := &model.PatientSoa{PatientID: in.PatientID}
	if amount != nil {
		soa.Amount = *amount
	}
	if in.GenerateLink {
		if err := s.issueLink(soa); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, soa, upload, true); err != nil {
		return nil, err
	}
	return s.Get(ctx, soa.ID)
}

func (s *soaService) Update(ctx context.Context, id uint, in SoaInput) (*SoaView, error) {
	soa, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	verr := &apperrors.ValidationError{}
	amount := parseAmount(in.Amount, verr)
	upload := s.checkUpload(in.Attachment, verr)
	if !verr.Empty() {
		return nil, verr
	}

	if amount != nil {
		soa.Amount = *amount
	}
	if in.GenerateLink && soa.PublicToken == nil {
		if err := s.issueLink(soa); err != nil {
			return nil, err
		}
	}

	previous := soa.SoaAttach
	if err := s.save(ctx, soa, upload, false); err != nil {
		return nil, err
	}
	if upload != nil && previous != nil && *previous != "" {
		s.removeFile(ctx, *previous)
	}
	return s.Get(ctx, soa.ID)
}

func (s *soaService) Delete(ctx context.Context, id uint) error {
	soa, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, apperrors.ErrSoaNotFound)
	}
	if soa.SoaAttach != nil && *soa.SoaAttach != "" {
		s.removeFile(ctx, *soa.SoaAttach)
	}
	return nil
}

// RotateLink issues a new public token. Earlier links stop resolving.
func (s *soaService) RotateLink(ctx context.Context, id uint) (*SoaView, error) {
	soa, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.issueLink(soa); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, soa); err != nil {
		return nil, fmt.Errorf("update statement link: %w", err)
	}
	view := NewSoaView(*soa)
	return &view, nil
}

func (s *soaService) RevokeLink(ctx context.Context, id uint) error {
	soa, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	soa.PublicToken = nil
	soa.SoaLink = nil
	if err := s.repo.Update(ctx, soa); err != nil {
		return fmt.Errorf("revoke statement link: %w", err)
	}
	return nil
}

func (s *soaService) QRCode(ctx context.Context, id uint) ([]byte, error) {
	soa, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if soa.SoaLink == nil || *soa.SoaLink == "" {
		return nil, apperrors.ErrSoaLinkMissing
	}
	return qrcode.PNG(*soa.SoaLink, qrcode.DefaultSize)
}

func (s *soaService) PublicView(ctx context.Context, token string) (*PublicSoa, error) {
	soa, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, notFound(err, apperrors.ErrSoaNotFound)
	}
	view := NewSoaView(*soa)
	return &PublicSoa{
		PatientName: view.PatientName,
		Amount:      soa.Amount,
		FileType:    view.FileType,
		FileURL:     view.FileURL,
		CreatedAt:   soa.CreatedAt,
	}, nil
}

// save writes soa and, when an upload is given, moves the staged file into
// place inside the same transaction. Files left behind by a failure are removed.
func (s *soaService) save(ctx context.Context, soa *model.PatientSoa, upload *Upload, create bool) error {
	var staged, final string
	if upload != nil {
		var err error
		staged, err = s.disk.Stage(SoaDir, "."+extension(upload.Filename), upload.Content)
		if err != nil {
			return fmt.Errorf("stage attachment: %w", err)
		}
		final = storage.FinalPath(staged)
		soa.SoaAttach = &final
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.SoaRepository) error {
		write := repo.Update
		if create {
			write = repo.Create
		}
		if err := write(ctx, soa); err != nil {
			return err
		}
		if staged != "" {
			if _, err := s.disk.Commit(staged); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if staged != "" {
			s.removeFile(ctx, staged)
			s.removeFile(ctx, final)
		}
		return fmt.Errorf("save statement: %w", err)
	}
	return nil
}

// checkUpload validates the attachment's extension, size and sniffed
// content type, which must be the one the extension names. It returns an upload whose Content still yields every byte.
func (s *soaService) checkUpload(u *Upload, verr *apperrors.ValidationError) *Upload {
	if u == nil {
		return nil
	}
	const typeMsg = "The soa attach field must be a file of type: pdf, jpg, jpeg, png, gif, webp."
	want, ok := soaExtensions[extension(u.Filename)]
	if !ok {
		verr.Add("soa_attach", typeMsg)
		return nil
	}
	if u.Size > MaxSoaAttachSize {
		verr.Add("soa_attach", "The soa attach field must not be greater than 10240 kilobytes.")
		return nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		verr.Add("soa_attach", "The soa attach failed to upload.")
		return nil
	}
	head = head[:n]
	if !mimetype.Detect(head).Is(want) {
		verr.Add("soa_attach", typeMsg)
		return nil
	}
	return &Upload{
		Filename: u.Filename,
		Size:     u.Size,
		Content:  io.MultiReader(bytes.NewReader(head), u.Content),
	}
}

func (s *soaService) issueLink(soa *model.PatientSoa) error {
	token, err := NewPublicToken()
	if err != nil {
		return fmt.Errorf("generate link token: %w", err)
	}
	link := s.publicBaseURL + "/soa/view/" + token
	soa.PublicToken = &token
	soa.SoaLink = &link
	return nil
}

func (s *soaService) removeFile(ctx context.Context, p string) {
	if err := s.disk.Delete(p); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("remove statement attachment")
	}
}

// NewPublicToken returns 32 random bytes encoded as unpadded base64url.
func NewPublicToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// parseAmount reads an optional amount. Nil input yields nil; blank input
// yields an invalid (SQL NULL) amount.
func parseAmount(raw *string, verr *apperrors.ValidationError) *decimal.NullDecimal {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return &decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		verr.Add("amount", "The amount field must be a number.")
		return nil
	}
	if d.IsNegative() {
		verr.Add("amount", "The amount field must be at least 0.")
		return nil
	}
	if d.GreaterThan(maxSoaAmount) {
		verr.Add("amount", "The amount field must not be greater than 9999999999.99.")
		return nil
	}
	return &decimal.NullDecimal{Decimal: d.Round(2), Valid: true}
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}
