package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"roomchat/internal/entity"
	"roomchat/internal/usecase"
)

const maxBodyBytes = 1 << 16

type AuthHandler struct {
	authUc usecase.AuthUsecase
	log    zerolog.Logger
}

func NewAuthHandler(authUc usecase.AuthUsecase, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authUc: authUc,
		log:    log,
	}
}

// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	authResponse, err := h.authUc.CreateAccount(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, "signup", err)
		return
	}

	writeJSON(w, http.StatusCreated, Response{
		Message: "account created",
		Data:    authResponse,
	})
}

// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	authResponse, err := h.authUc.Authenticate(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Message: "login successful",
		Data:    authResponse,
	})
}

// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(UserContextKey).(*entity.TokenClaims)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "success", Data: claims})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (entity.Credentials, bool) {
	var req entity.Credentials
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "invalid request body"})
		return entity.Credentials{}, false
	}
	return req, true
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, usecase.ErrUsernameTaken):
		status = http.StatusConflict
		message = "username already taken"
	case errors.Is(err, usecase.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "invalid username or password"
	case errors.Is(err, usecase.ErrTooManyAttempts):
		status = http.StatusTooManyRequests
		message = "too many failed attempts, try again later"
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("op", op).Msg("auth request failed")
	} else {
		h.log.Debug().Err(err).Str("op", op).Int("status", status).Msg("auth request rejected")
	}
	writeJSON(w, status, Response{Message: message})
}
