package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"acemc/internal/service"
)

// PatientHandler serves patient registration for admitting staff.
type PatientHandler struct {
	svc service.PatientService
}

// NewPatientHandler creates a new patient handler.
func NewPatientHandler(svc service.PatientService) *PatientHandler {
	return &PatientHandler{svc: svc}
}

// List godoc
// @Summary List patients
// @Description Rows carry the names of the assigned doctors.
// @Tags patients
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name, phone or address contains"
// @Param page query int false "Page number"
// @Success 200 {object} repository.Page[service.PatientRow]
// @Router /admitting/patients [get]
func (h *PatientHandler) List(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), c.QueryParam("search"), pageParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get godoc
// @Summary Get patient
// @Tags patients
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patient ID"
// @Success 200 {object} model.Patient
// @Failure 404 {object} errors.ErrorResponse
// @Router /admitting/patients/{id} [get]
func (h *PatientHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	patient, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, patient)
}

// Create godoc
// @Summary Register patient
// @Tags patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param patient body service.PatientInput true "Patient"
// @Success 201 {object} MessageResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admitting/patients [post]
func (h *PatientHandler) Create(c echo.Context) error {
	var req service.PatientInput
	if err := bind(c, &req); err != nil {
		return err
	}
	patient, err := h.svc.Create(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusCreated, "Patient created successfully.", patient)
}

// Update godoc
// @Summary Update patient
// @Tags patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patient ID"
// @Param patient body service.PatientInput true "Patient"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admitting/patients/{id} [put]
func (h *PatientHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req service.PatientInput
	if err := bind(c, &req); err != nil {
		return err
	}
	patient, err := h.svc.Update(c.Request().Context(), actorFrom(c), id, req)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Patient updated successfully.", patient)
}

// Delete godoc
// @Summary Delete patient
// @Description Removes the patient's assignments, statements and their files.
// @Tags patients
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patient ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admitting/patients/{id} [delete]
func (h *PatientHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), actorFrom(c), id); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Patient deleted successfully.", nil)
}

// AssignDoctorsForm godoc
// @Summary Doctors available for assignment
// @Tags patients
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patient ID"
// @Success 200 {object} service.AssignDoctorsForm
// @Failure 404 {object} errors.ErrorResponse
// @Router /admitting/patients/{id}/assign-doctors [get]
func (h *PatientHandler) AssignDoctorsForm(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	form, err := h.svc.AssignDoctorsForm(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, form)
}

// AssignDoctors godoc
// @Summary Assign attending and admitting doctors
// @Description An omitted or zero id leaves that assignment unchanged.
// @Tags patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patient ID"
// @Param request body service.AssignDoctorsInput true "Doctor ids"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admitting/patients/{id}/assign-doctors [post]
func (h *PatientHandler) AssignDoctors(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req service.AssignDoctorsInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.AssignDoctors(c.Request().Context(), id, req); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Doctors assigned successfully.", nil)
}
