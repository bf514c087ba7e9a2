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

type LedgerAuthHandler struct {
	authUsecase usecase.LedgerAuthUsecase
	validator   *validator.CustomValidator
	cookies     SessionCookies
}

func NewLedgerAuthHandler(authUsecase usecase.LedgerAuthUsecase, validator *validator.CustomValidator, cookies SessionCookies) *LedgerAuthHandler {
	return &LedgerAuthHandler{
		authUsecase: authUsecase,
		validator:   validator,
		cookies:     cookies,
	}
}

func (h *LedgerAuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.LedgerRegisterRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.authUsecase.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to register user")
		return
	}

	response.Success(w, http.StatusCreated, "User registered successfully", user)
}

func (h *LedgerAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LedgerLoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	session, err := h.authUsecase.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to login")
		return
	}

	h.cookies.set(w, jwt.RealmLedger, session.Tokens)
	response.Success(w, http.StatusOK, "Login successful", session)
}

// WalletNonce issues the message a wallet has to sign
// @Summary Request a wallet login message
// @Tags Ledger Auth
// @Accept json
// @Produce json
// @Param request body dto.WalletNonceRequest true "Wallet address"
// @Success 200 {object} response.Response
// @Router /ledger/auth/wallet/nonce [post]
func (h *LedgerAuthHandler) WalletNonce(w http.ResponseWriter, r *http.Request) {
	var req dto.WalletNonceRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	nonce, err := h.authUsecase.WalletNonce(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to issue login message")
		return
	}

	response.Success(w, http.StatusOK, "Sign this message with your wallet", nonce)
}

// WalletLogin verifies the signed message and opens a ledger session
// @Summary Sign in with a wallet
// @Tags Ledger Auth
// @Accept json
// @Produce json
// @Param request body dto.WalletLoginRequest true "Signed message"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /ledger/auth/wallet/login [post]
func (h *LedgerAuthHandler) WalletLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.WalletLoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	session, err := h.authUsecase.WalletLogin(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to login with wallet")
		return
	}

	h.cookies.set(w, jwt.RealmLedger, session.Tokens)
	response.Success(w, http.StatusOK, "Login successful", session)
}

func (h *LedgerAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.authUsecase.Logout(r.Context(), refreshTokenFrom(r, jwt.RealmLedger, req.RefreshToken)); err != nil {
		h.writeError(w, err, "Failed to logout")
		return
	}

	h.cookies.clear(w, jwt.RealmLedger)
	response.Success(w, http.StatusOK, "Logout successful", nil)
}

func (h *LedgerAuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	tokens, err := h.authUsecase.RefreshToken(r.Context(), refreshTokenFrom(r, jwt.RealmLedger, req.RefreshToken))
	if err != nil {
		h.writeError(w, err, "Failed to refresh token")
		return
	}

	h.cookies.set(w, jwt.RealmLedger, tokens)
	response.Success(w, http.StatusOK, "Token refreshed successfully", tokens)
}

func (h *LedgerAuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authUsecase.GetCurrentUser(r.Context())
	if err != nil {
		h.writeError(w, err, "Failed to get user info")
		return
	}

	response.Success(w, http.StatusOK, "User retrieved successfully", user)
}

func (h *LedgerAuthHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if unauthenticated(w, err) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		response.Conflict(w, "Email already exists")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid email or password")
	case errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrTokenRevoked),
		errors.Is(err, usecase.ErrWalletNonceExpired),
		errors.Is(err, usecase.ErrInvalidWalletSig):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, usecase.ErrAccountInactive):
		response.Forbidden(w, "Account is inactive")
	case errors.Is(err, usecase.ErrInvalidWalletAddress):
		response.BadRequest(w, err.Error())
	case errors.Is(err, usecase.ErrUserNotFound):
		response.NotFound(w, "User not found")
	default:
		response.InternalServerError(w, fallback)
	}
}
