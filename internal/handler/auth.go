package handler

import (
	"net/http"
	"time"

	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/service"
)

// userResponse is the public view of a user.
type userResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Avatar    string      `json:"avatar"`
	CreatedAt time.Time   `json:"createdAt"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

type sessionResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !h.readBody(w, r, &in) {
		return
	}

	session, err := h.auth.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, "Registration failed", "An error occurred during registration")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Message: "User registered successfully",
		Token:   session.Token,
		User:    toUserResponse(session.User),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !h.readBody(w, r, &in) {
		return
	}

	session, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.writeError(w, r, err, "Login failed", "An error occurred during login")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "Login successful",
		Token:   session.Token,
		User:    toUserResponse(session.User),
	})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request, user *models.User) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserResponse(user),
	})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in service.ProfileUpdate
	if !h.readBody(w, r, &in) {
		return
	}

	updated, err := h.auth.UpdateProfile(r.Context(), user, in)
	if err != nil {
		h.writeError(w, r, err, "Failed to update profile", "An error occurred while updating profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    toUserResponse(updated),
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request, _ *models.User) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch users", "An error occurred while fetching users")
		return
	}

	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}
