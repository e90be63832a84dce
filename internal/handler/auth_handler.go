package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"acemc/internal/auth"
	"acemc/internal/model"
	"acemc/internal/service"
)

// AuthHandler handles sign in and the signed-in user's own account.
type AuthHandler struct {
	authService service.AuthService
	users       service.UserService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, users service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, users: users}
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *model.User `json:"user,omitempty"`
	Home         string      `json:"home,omitempty"`
}

// MeResponse describes the signed-in user.
type MeResponse struct {
	User       *model.User     `json:"user"`
	RoleLabel  string          `json:"role_label"`
	Home       string          `json:"home"`
	Navigation []model.NavItem `json:"navigation"`
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := bind(c, &req); err != nil {
		return err
	}

	accessToken, refreshToken, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		Home:         user.Role.Home(),
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	accessToken, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, AuthResponse{AccessToken: accessToken})
}

// Logout godoc
// @Summary Logout user
// @Description Revokes the refresh token and the access token used for this call.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest true "Refresh token"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken, auth.CurrentClaims(c)); err != nil {
		return fail(c, err)
	}

	return message(c, http.StatusOK, "Logged out successfully.", nil)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user := auth.CurrentUser(c)
	return c.JSON(http.StatusOK, MeResponse{
		User:       user,
		RoleLabel:  user.Role.Label(),
		Home:       user.Role.Home(),
		Navigation: user.Role.Navigation(),
	})
}

// Navigation godoc
// @Summary Sidebar navigation for the current role
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.NavItem
// @Failure 401 {object} errors.ErrorResponse
// @Router /me/navigation [get]
func (h *AuthHandler) Navigation(c echo.Context) error {
	nav := auth.CurrentUser(c).Role.Navigation()
	if nav == nil {
		nav = []model.NavItem{}
	}
	return c.JSON(http.StatusOK, nav)
}

// Dashboard godoc
// @Summary Redirect to the role's dashboard
// @Tags auth
// @Security BearerAuth
// @Success 302 {string} string "Found"
// @Header 302 {string} Location "Dashboard of the user's role"
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /dashboard [get]
func (h *AuthHandler) Dashboard(c echo.Context) error {
	return c.Redirect(http.StatusFound, auth.CurrentUser(c).Role.Home())
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /settings/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req service.UpdateProfileInput
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), auth.CurrentUser(c).ID, req)
	if err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Profile updated successfully.", user)
}

// ChangePassword godoc
// @Summary Change own password
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ChangePasswordInput true "Passwords"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /settings/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req service.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.users.ChangePassword(c.Request().Context(), auth.CurrentUser(c).ID, req); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "Password updated successfully.", nil)
}
