package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"medledger/internal/delivery/dto"
	"medledger/internal/usecase"
	"medledger/pkg/jwt"
	"medledger/pkg/response"
	"medledger/pkg/validator"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *validator.CustomValidator
	cookies     SessionCookies
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, validator *validator.CustomValidator, cookies SessionCookies) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		validator:   validator,
		cookies:     cookies,
	}
}

// RegisterPatient handles patient registration
// @Summary Register a new patient
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterPatientRequest true "Register Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterPatientRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.authUsecase.RegisterPatient(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			response.Conflict(w, "Email already exists")
		case errors.Is(err, usecase.ErrInvalidDateFormat):
			response.BadRequest(w, err.Error())
		default:
			response.InternalServerError(w, "Failed to register user")
		}
		return
	}

	response.Success(w, http.StatusCreated, "User registered successfully", user)
}

// Login handles user login
// @Summary Login user
// @Description Login with email, password and, when enabled, a TOTP code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login Request"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	tokens, err := h.authUsecase.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			response.Unauthorized(w, "Invalid email or password")
		case errors.Is(err, usecase.ErrTOTPRequired):
			response.Error(w, http.StatusUnauthorized, "Authentication code required", err.Error())
		case errors.Is(err, usecase.ErrAccountInactive):
			response.Forbidden(w, "Account is inactive")
		default:
			response.InternalServerError(w, "Failed to login")
		}
		return
	}

	h.cookies.set(w, jwt.RealmPortal, tokens)
	response.Success(w, http.StatusOK, "Login successful", tokens)
}

// Logout handles user logout
// @Summary Logout user
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// The body is optional
	var req dto.RefreshTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.authUsecase.Logout(r.Context(), refreshTokenFrom(r, jwt.RealmPortal, req.RefreshToken)); err != nil {
		if unauthenticated(w, err) {
			return
		}
		response.InternalServerError(w, "Failed to logout")
		return
	}

	h.cookies.clear(w, jwt.RealmPortal)
	response.Success(w, http.StatusOK, "Logout successful", nil)
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh Token Request"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	tokens, err := h.authUsecase.RefreshToken(r.Context(), refreshTokenFrom(r, jwt.RealmPortal, req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidToken), errors.Is(err, usecase.ErrTokenRevoked):
			response.Unauthorized(w, err.Error())
		default:
			response.InternalServerError(w, "Failed to refresh token")
		}
		return
	}

	h.cookies.set(w, jwt.RealmPortal, tokens)
	response.Success(w, http.StatusOK, "Token refreshed successfully", tokens)
}

// GetCurrentUser handles getting current user info
// @Summary Get current user
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authUsecase.GetCurrentUser(r.Context())
	if err != nil {
		h.writeUserError(w, err, "Failed to get user info")
		return
	}

	response.Success(w, http.StatusOK, "User retrieved successfully", user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.authUsecase.UpdateProfile(r.Context(), &req)
	if err != nil {
		h.writeUserError(w, err, "Failed to update profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", user)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	tokens, err := h.authUsecase.ChangePassword(r.Context(), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrIncorrectPassword) {
			response.BadRequest(w, "Current password is incorrect")
			return
		}
		h.writeUserError(w, err, "Failed to change password")
		return
	}

	h.cookies.set(w, jwt.RealmPortal, tokens)
	response.Success(w, http.StatusOK, "Password changed successfully", tokens)
}

func (h *AuthHandler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	setup, err := h.authUsecase.SetupTOTP(r.Context())
	if err != nil {
		h.writeTOTPError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Scan the secret with your authenticator app", setup)
}

func (h *AuthHandler) EnableTOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.TOTPCodeRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.authUsecase.EnableTOTP(r.Context(), req.Code); err != nil {
		h.writeTOTPError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Two-factor authentication enabled", nil)
}

func (h *AuthHandler) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.TOTPCodeRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.authUsecase.DisableTOTP(r.Context(), req.Code); err != nil {
		h.writeTOTPError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Two-factor authentication disabled", nil)
}

func (h *AuthHandler) writeTOTPError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidTOTPCode):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrTOTPAlreadyEnabled),
		errors.Is(err, usecase.ErrTOTPNotEnabled),
		errors.Is(err, usecase.ErrTOTPNotSetup):
		response.Conflict(w, err.Error())
	default:
		h.writeUserError(w, err, "Failed to update two-factor authentication")
	}
}

func (h *AuthHandler) writeUserError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}
	if errors.Is(err, usecase.ErrUserNotFound) {
		response.NotFound(w, "User not found")
		return
	}
	response.InternalServerError(w, fallback)
}
