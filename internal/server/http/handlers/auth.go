package handlers

import (
	"net/http"

	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/http/respond"
	"github.com/dmitrijs2005/usergate/internal/server/services"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		h.badJSON(w)
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, sess)
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decode(w, r, &req); err != nil {
		h.badJSON(w)
		return
	}

	u, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, respond.Envelope{Success: true, Data: u, Message: "User registered successfully"})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respond.Unauthorized(w)
		return
	}

	u, err := h.auth.Me(r.Context(), p.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, u)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	if err := h.auth.Logout(r.Context(), p.UserID); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Message(w, "Logged out successfully")
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(w, r, &req); err != nil {
		h.badJSON(w)
		return
	}

	sess, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, sess)
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respond.Unauthorized(w)
		return
	}

	var req changePasswordRequest
	if err := decode(w, r, &req); err != nil {
		h.badJSON(w)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Message(w, "Password changed successfully")
}
