package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"acemc/internal/service"
)

// RoomHandler serves the room directory.
type RoomHandler struct {
	svc service.RoomService
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(svc service.RoomService) *RoomHandler {
	return &RoomHandler{svc: svc}
}

// List godoc
// @Summary List rooms
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param search query string false "Room number contains"
// @Param page query int false "Page number"
// @Success 200 {object} repository.Page[model.PtRoom]
// @Router /admitting/rooms [get]
func (h *RoomHandler) List(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), c.QueryParam("search"), pageParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get godoc
// @Summary Get room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} model.PtRoom
// @Failure 404 {object} errors.ErrorResponse
// @Router /admitting/rooms/{id} [get]
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	room, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// Create godoc
// @Summary Create room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room body service.RoomInput true "Room"
// @Success 201 {object} MessageResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admitting/rooms [post]
func (h *RoomHandler) Create(c echo.Context) error {
	var req service.RoomInput
	if err := bind(c, &req); err != nil {
		return err
	}
	room, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusCreated, "Room created successfully.", room)
}

// Update godoc
// @Summary Update room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param room body service.RoomInput true "Room"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /admitting/rooms/{id} [put]
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req service.RoomInput
	if err := bind(c, &req); err != nil {
		return err
	}
	room, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Room updated successfully.", room)
}

// Delete godoc
// @Summary Delete room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admitting/rooms/{id} [delete]
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Room deleted successfully.", nil)
}
