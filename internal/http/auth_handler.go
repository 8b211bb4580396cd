package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/auth"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	provider auth.Provider
	log      logrus.FieldLogger
	timeout  time.Duration
	maxBody  int64
}

func NewAuthHandler(provider auth.Provider, log logrus.FieldLogger, timeout time.Duration, maxBody int64) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		log:      log,
		timeout:  timeout,
		maxBody:  maxBody,
	}
}

type SignUpRequestDTO struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type SignInRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileRequestDTO struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SignUpRequestDTO
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	session, err := h.provider.SignUp(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SignInRequestDTO
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	session, err := h.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireSignedIn(w, r)
	if !ok {
		return
	}

	if err := h.provider.SignOut(ctx, id.Token); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := requireSignedIn(w, r)
	if !ok {
		return
	}

	var req ProfileRequestDTO
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	user, err := h.provider.UpdateProfile(ctx, id.UserID, req.DisplayName, req.Email)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// requireSignedIn rejects guests.
func requireSignedIn(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return id, false
	}
	if id.Guest {
		respondError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		return auth.Identity{}, false
	}
	return id, true
}
