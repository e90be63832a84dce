package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"acemc/internal/service"
)

// UserHandler serves staff account management for admins.
type UserHandler struct {
	svc  service.UserService
	logs service.ActivityLogService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, logs service.ActivityLogService) *UserHandler {
	return &UserHandler{svc: svc, logs: logs}
}

// ListUsers godoc
// @Summary List staff users
// @Description Admins are never listed.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email contains"
// @Param role query string false "billing or admitting"
// @Param page query int false "Page number"
// @Success 200 {object} repository.Page[model.User]
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	page, err := h.svc.ListUsers(c.Request().Context(), service.UserListQuery{
		Search: c.QueryParam("search"),
		Role:   c.QueryParam("role"),
		Page:   pageParam(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser godoc
// @Summary Create user
// @Description The account is created verified.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body service.CreateUserInput true "User payload"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req service.CreateUserInput
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.CreateUser(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusCreated, "User created successfully.", user)
}

// UpdateUser godoc
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body service.UpdateUserInput true "User payload"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req service.UpdateUserInput
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.UpdateUser(c.Request().Context(), actorFrom(c), id, req)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "User updated successfully.", user)
}

// DeleteUser godoc
// @Summary Delete user
// @Description Admins and the caller's own account cannot be deleted.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), actorFrom(c), id); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "User deleted successfully.", nil)
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Description Generates a new password and emails it to the user.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.ResetPassword(c.Request().Context(), actorFrom(c), id); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "New password has been sent to the user's email.", nil)
}

// ListClients godoc
// @Summary List legacy client accounts
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email contains"
// @Param page query int false "Page number"
// @Success 200 {object} repository.Page[model.User]
// @Router /admin/clients [get]
func (h *UserHandler) ListClients(c echo.Context) error {
	page, err := h.svc.ListClients(c.Request().Context(), c.QueryParam("search"), pageParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetClient godoc
// @Summary Get legacy client
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param id path int true "Client ID"
// @Success 200 {object} model.User
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/clients/{id} [get]
func (h *UserHandler) GetClient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	client, err := h.svc.GetClient(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

// ListActivityLogs godoc
// @Summary Browse the activity log
// @Tags activity-logs
// @Produce json
// @Security BearerAuth
// @Param user query int false "Acting user id"
// @Param action query string false "created, updated, deleted or password_reset"
// @Param model query string false "User or Patient"
// @Param search query string false "Description contains"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Param page query int false "Page number"
// @Success 200 {object} service.ActivityLogIndex
// @Failure 422 {object} errors.ErrorResponse
// @Router /admin/activity-logs [get]
func (h *UserHandler) ListActivityLogs(c echo.Context) error {
	q := service.ActivityLogQuery{
		User:     c.QueryParam("user"),
		Action:   c.QueryParam("action"),
		Model:    c.QueryParam("model"),
		Search:   c.QueryParam("search"),
		DateFrom: c.QueryParam("date_from"),
		DateTo:   c.QueryParam("date_to"),
		Page:     pageParam(c),
	}
	idx, err := h.logs.List(c.Request().Context(), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, idx)
}
