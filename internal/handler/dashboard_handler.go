package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"acemc/internal/service"
)

// DashboardHandler serves the per-role dashboards. Every call recomputes.
type DashboardHandler struct {
	svc service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Admin godoc
// @Summary Admin dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminDashboard
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c echo.Context) error {
	d, err := h.svc.Admin(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Billing godoc
// @Summary Billing dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.BillingDashboard
// @Failure 403 {object} errors.ErrorResponse
// @Router /billing/dashboard [get]
func (h *DashboardHandler) Billing(c echo.Context) error {
	d, err := h.svc.Billing(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Admitting godoc
// @Summary Admitting dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdmittingDashboard
// @Failure 403 {object} errors.ErrorResponse
// @Router /admitting/dashboard [get]
func (h *DashboardHandler) Admitting(c echo.Context) error {
	d, err := h.svc.Admitting(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
