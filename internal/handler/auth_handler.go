package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"dataridge/internal/auth"
	"dataridge/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	session     *auth.SessionTransport
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, session *auth.SessionTransport) *AuthHandler {
	return &AuthHandler{authService: authService, session: session}
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries the access token. The refresh token travels only in its cookie.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

const msgCredentialsRequired = "Email and password are required."

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Registration data"
// @Success 201 {object} model.PublicUser
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req CredentialsRequest
	if err := bindAndValidate(c, &req, msgCredentialsRequired); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary Login user
// @Description Returns an access token and sets the refresh token as an HTTP-only cookie scoped to /token/refresh.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := bindAndValidate(c, &req, msgCredentialsRequired); err != nil {
		return err
	}

	tokens, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(h.session.RefreshCookie(tokens.RefreshToken))
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: tokens.AccessToken})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchanges the refresh-token cookie for a new access token.
// @Tags auth
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /token/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken, err := h.session.RefreshToken(c.Request())
	if err != nil {
		return err
	}

	accessToken, err := h.authService.Refresh(c.Request().Context(), refreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{AccessToken: accessToken})
}

// Logout godoc
// @Summary Logout user
// @Description Clears the refresh-token cookie. Issued access tokens stay valid until they expire.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.session.ClearedCookie())
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully."})
}
