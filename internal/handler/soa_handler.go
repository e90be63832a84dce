package handler

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"acemc/internal/errors"
	"acemc/internal/service"
)

// SoaHandler serves statements of account for billing staff and the
// public statement view.
type SoaHandler struct {
	svc service.SoaService
}

// NewSoaHandler creates a new statement handler.
func NewSoaHandler(svc service.SoaService) *SoaHandler {
	return &SoaHandler{svc: svc}
}

// LinkResponse carries a freshly issued public link.
type LinkResponse struct {
	Message string `json:"message"`
	SoaLink string `json:"soa_link"`
}

// soaForm reads the multipart form shared by create and update.
func soaForm(c echo.Context, withPatient bool) (service.SoaInput, func(), error) {
	var in service.SoaInput
	noop := func() {}

	form, err := c.FormParams()
	if err != nil {
		return in, noop, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	verr := &errors.ValidationError{}
	if withPatient {
		if raw := form.Get("patient_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				verr.Add("patient_id", "The patient id field must be an integer.")
			}
			in.PatientID = uint(id)
		}
	}
	if vals, ok := form["amount"]; ok && len(vals) > 0 {
		amount := vals[0]
		in.Amount = &amount
	}
	if raw := form.Get("generate_link"); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("generate_link", "The generate link field must be true or false.")
		}
		in.GenerateLink = on
	}
	if !verr.Empty() {
		return in, noop, fail(c, verr)
	}

	fh, err := c.FormFile("soa_attach")
	switch {
	case stderrors.Is(err, http.ErrMissingFile):
		return in, noop, nil
	case err != nil:
		return in, noop, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	f, err := fh.Open()
	if err != nil {
		return in, noop, fail(c, fmt.Errorf("open upload: %w", err))
	}
	in.Attachment = &service.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}
	return in, func() { _ = f.Close() }, nil
}

// List godoc
// @Summary List statements of account
// @Tags patient-soa
// @Produce json
// @Security BearerAuth
// @Param search query string false "Patient first or last name contains"
// @Param page query int false "Page number"
// @Success 200 {object} repository.Page[service.SoaView]
// @Router /billing/patient-soa [get]
func (h *SoaHandler) List(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), c.QueryParam("search"), pageParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// CreateForm godoc
// @Summary Patients a statement can be created for
// @Tags patient-soa
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.PatientOption
// @Router /billing/patient-soa/create [get]
func (h *SoaHandler) CreateForm(c echo.Context) error {
	opts, err := h.svc.PatientOptions(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"patients": opts})
}

// Get godoc
// @Summary Get statement of account
// @Tags patient-soa
// @Produce json
// @Security BearerAuth
// @Param id path int true "Statement ID"
// @Success 200 {object} service.SoaView
// @Failure 404 {object} errors.ErrorResponse
// @Router /billing/patient-soa/{id} [get]
func (h *SoaHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Create godoc
// @Summary Create statement of account
// @Tags patient-soa
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param patient_id formData int true "Patient ID"
// @Param amount formData string false "Amount due"
// @Param generate_link formData bool false "Issue a public link"
// @Param soa_attach formData file false "pdf, jpg, jpeg, png, gif or webp up to 10 MB"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /billing/patient-soa [post]
func (h *SoaHandler) Create(c echo.Context) error {
	in, done, err := soaForm(c, true)
	if err != nil {
		return err
	}
	defer done()

	view, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusCreated, "Patient SOA created successfully.", view)
}

// Update godoc
// @Summary Update statement of account
// @Description Without soa_attach the stored file is kept. An empty amount clears it.
// @Tags patient-soa
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Statement ID"
// @Param amount formData string false "Amount due"
// @Param generate_link formData bool false "Issue a public link when none exists"
// @Param soa_attach formData file false "Replacement attachment"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /billing/patient-soa/{id} [put]
func (h *SoaHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	in, done, err := soaForm(c, false)
	if err != nil {
		return err
	}
	defer done()

	view, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Patient SOA updated successfully.", view)
}

// Delete godoc
// @Summary Delete statement of account
// @Tags patient-soa
// @Produce json
// @Security BearerAuth
// @Param id path int true "Statement ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /billing/patient-soa/{id} [delete]
func (h *SoaHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Patient SOA deleted successfully.", nil)
}

// RotateLink godoc
// @Summary Issue or rotate the public link
// @Description Links issued earlier stop resolving.
// @Tags patient-soa
// @Produce json
// @Security BearerAuth
// @Param id path int true "Statement ID"
// @Success 200 {object} LinkResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /billing/patient-soa/{id}/link [post]
func (h *SoaHandler) RotateLink(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	view, err := h.svc.RotateLink(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, LinkResponse{Message: "Public link generated successfully.", SoaLink: *view.SoaLink})
}

// RevokeLink godoc
// @Summary Revoke the public link
// @Tags patient-soa
// @Produce json
// @Security BearerAuth
// @Param id path int true "Statement ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /billing/patient-soa/{id}/link [delete]
func (h *SoaHandler) RevokeLink(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.RevokeLink(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Public link revoked successfully.", nil)
}

// QRCode godoc
// @Summary QR code of the public link
// @Tags patient-soa
// @Produce png
// @Security BearerAuth
// @Param id path int true "Statement ID"
// @Success 200 {file} binary
// @Failure 404 {object} errors.ErrorResponse
// @Router /billing/patient-soa/{id}/qr [get]
func (h *SoaHandler) QRCode(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	png, err := h.svc.QRCode(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}

// PublicView godoc
// @Summary Public statement view
// @Description Resolves only an exact, current public token.
// @Tags public
// @Produce json
// @Param token path string true "Public token"
// @Success 200 {object} service.PublicSoa
// @Failure 404 {object} errors.ErrorResponse
// @Router /soa/view/{token} [get]
func (h *SoaHandler) PublicView(c echo.Context) error {
	soa, err := h.svc.PublicView(c.Request().Context(), c.Param("token"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, soa)
}
