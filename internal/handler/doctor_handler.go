package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"acemc/internal/model"
	"acemc/internal/repository"
	"acemc/internal/service"
)

// DoctorHandler serves one of the two doctor directories.
type DoctorHandler[D repository.Doctor] struct {
	svc   service.DoctorService[D]
	label string
}

// NewAttendingDoctorHandler serves /admitting/attending-doctors.
func NewAttendingDoctorHandler(svc service.DoctorService[model.DocAttending]) *DoctorHandler[model.DocAttending] {
	return &DoctorHandler[model.DocAttending]{svc: svc, label: "Attending doctor"}
}

// NewAdmittingDoctorHandler serves /admitting/admitting-doctors.
func NewAdmittingDoctorHandler(svc service.DoctorService[model.DocAdmitting]) *DoctorHandler[model.DocAdmitting] {
	return &DoctorHandler[model.DocAdmitting]{svc: svc, label: "Admitting doctor"}
}

// List godoc
// @Summary List doctors
// @Tags doctors
// @Produce json
// @Security BearerAuth
// @Param search query string false "Full name contains"
// @Param page query int false "Page number"
// @Success 200 {object} repository.Page[model.DocAttending]
// @Router /admitting/attending-doctors [get]
// @Router /admitting/admitting-doctors [get]
func (h *DoctorHandler[D]) List(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), c.QueryParam("search"), pageParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get godoc
// @Summary Get doctor
// @Tags doctors
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doctor ID"
// @Success 200 {object} model.DocAttending
// @Failure 404 {object} errors.ErrorResponse
// @Router /admitting/attending-doctors/{id} [get]
// @Router /admitting/admitting-doctors/{id} [get]
func (h *DoctorHandler[D]) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	doc, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// Create godoc
// @Summary Create doctor
// @Tags doctors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param doctor body service.DoctorInput true "Doctor"
// @Success 201 {object} MessageResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admitting/attending-doctors [post]
// @Router /admitting/admitting-doctors [post]
func (h *DoctorHandler[D]) Create(c echo.Context) error {
	var req service.DoctorInput
	if err := bind(c, &req); err != nil {
		return err
	}
	doc, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusCreated, h.label+" created successfully.", doc)
}

// Update godoc
// @Summary Update doctor
// @Tags doctors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doctor ID"
// @Param doctor body service.DoctorInput true "Doctor"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admitting/attending-doctors/{id} [put]
// @Router /admitting/admitting-doctors/{id} [put]
func (h *DoctorHandler[D]) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req service.DoctorInput
	if err := bind(c, &req); err != nil {
		return err
	}
	doc, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, h.label+" updated successfully.", doc)
}

// Delete godoc
// @Summary Delete doctor
// @Tags doctors
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doctor ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admitting/attending-doctors/{id} [delete]
// @Router /admitting/admitting-doctors/{id} [delete]
func (h *DoctorHandler[D]) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, h.label+" deleted successfully.", nil)
}
