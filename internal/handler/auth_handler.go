package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/kodemy-backend/internal/middleware"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/response"
	"github.com/stemsi/kodemy-backend/internal/service"
	"github.com/stemsi/kodemy-backend/internal/validator"
)

// AuthHandler handles account and authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Home godoc
// GET /
func (h *AuthHandler) Home(c *gin.Context) {
	response.Success(c, http.StatusOK, "Welcome to the home page!")
}

// Register godoc
// POST /register
// Creates an email/password account. The password never leaves the server.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// Login godoc
// POST /login
// Validates email + password and returns an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"access_token": token})
}

// GoogleLogin godoc
// POST /google-login
// Exchanges a Google ID token for an access token, creating the account on
// first sign-in.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req model.GoogleLoginRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.authService.GoogleLogin(c.Request.Context(), req.Token)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetProfile godoc
// GET /profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// UpdateProfile godoc
// PUT /profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Profile updated successfully", user)
}

// DeleteAccount godoc
// DELETE /delete-account
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if err := h.userService.DeleteAccount(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		_ = c.Error(err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Your account has been successfully deleted", nil)
}
