// Package handler exposes the services over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"acemc/internal/audit"
	"acemc/internal/auth"
	"acemc/internal/errors"
)

// MessageResponse is the envelope of a successful mutation.
type MessageResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func message(c echo.Context, status int, msg string, data interface{}) error {
	return c.JSON(status, MessageResponse{Message: msg, Data: data})
}

// bind decodes the request into req and runs the struct validator.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(req); err != nil {
		return fail(c, errors.FromValidator(err))
	}
	return nil
}

// fail converts a service error into the HTTP error returned to the client.
func fail(c echo.Context, err error) error {
	he := errors.MapErrorToHTTP(err)
	if he.StatusCode >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

// pathID reads the :id route parameter. Anything that is not a positive
// integer cannot name a row, so it is reported as not found.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
			Error: "resource not found",
			Code:  "NOT_FOUND",
		})
	}
	return uint(id), nil
}

func pageParam(c echo.Context) int {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	return page
}

func actorFrom(c echo.Context) audit.Actor {
	actor := audit.Actor{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
	if user := auth.CurrentUser(c); user != nil {
		actor.UserID = user.ID
	}
	return actor
}
