// Package handler exposes the services over a JSON REST API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/findash/internal/apperr"
	"github.com/mmynk/findash/internal/auth"
	"github.com/mmynk/findash/internal/models"
	"github.com/mmynk/findash/internal/service"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 10 << 20

// Handler serves the REST API.
type Handler struct {
	auth         *service.AuthService
	transactions *service.TransactionService
	gateway      *auth.Gateway
	logger       *slog.Logger

	// showErrors exposes the cause of 500 responses to clients.
	showErrors bool
	now        func() time.Time
}

// New creates a Handler. showErrors should only be set in development.
func New(authSvc *service.AuthService, txSvc *service.TransactionService, gateway *auth.Gateway, logger *slog.Logger, showErrors bool) *Handler {
	return &Handler{
		auth:         authSvc,
		transactions: txSvc,
		gateway:      gateway,
		logger:       logger,
		showErrors:   showErrors,
		now:          time.Now,
	}
}

// Register adds every API route to mux, plus a JSON 404 for anything else.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)

	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	for _, prefix := range []string{"/api/auth", "/api/users"} {
		mux.HandleFunc("GET "+prefix+"/profile", h.authed(h.handleGetProfile))
		mux.HandleFunc("PUT "+prefix+"/profile", h.authed(h.handleUpdateProfile))
	}

	mux.HandleFunc("GET /api/transactions", h.authed(h.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", h.authed(h.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/stats", h.authed(h.handleStats))
	mux.HandleFunc("POST /api/transactions/export", h.authed(h.handleExport))
	mux.HandleFunc("GET /api/transactions/{id}", h.authed(h.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", h.authed(h.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", h.authed(h.handleDeleteTransaction))

	mux.HandleFunc("GET /api/admin/users", h.authed(h.requireRole(h.handleListUsers, models.RoleAdmin)))

	mux.HandleFunc("/", h.handleNotFound)
}

// userHandlerFunc is a handler that runs after authentication.
type userHandlerFunc func(w http.ResponseWriter, r *http.Request, user *models.User)

// authed resolves the bearer token into a user before calling next.
func (h *Handler) authed(next userHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.gateway.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			h.writeError(w, r, err, "Authentication failed", "An error occurred during authentication")
			return
		}
		next(w, r, user)
	}
}

func (h *Handler) requireRole(next userHandlerFunc, roles ...models.Role) userHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		if err := h.gateway.Authorize(user, roles...); err != nil {
			h.logger.Warn("Access denied", "user_id", user.ID, "role", user.Role, "path", r.URL.Path)
			h.writeError(w, r, err, "Forbidden", "Insufficient permissions")
			return
		}
		next(w, r, user)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"message":   "Financial Dashboard API is running",
		"timestamp": h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		Error:   "Route not found",
		Message: fmt.Sprintf("The route %s does not exist", r.URL.Path),
	})
}

type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Details []models.FieldError `json:"details,omitempty"`
}

// writeError converts err into a JSON error response. Errors that are not
// *apperr.Error become 500s tagged with fallbackTag and fallbackMessage.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallbackTag, fallbackMessage string) {
	appErr := apperr.From(err, fallbackTag, fallbackMessage)
	status := appErr.Code.HTTPStatus()

	body := errorBody{
		Error:   appErr.Tag,
		Message: appErr.Message,
		Details: appErr.Fields,
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		if h.showErrors && appErr.Err != nil {
			body.Message = appErr.Err.Error()
		}
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched so that missing fields are reported by the service.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return apperr.Validation("Request body must be valid JSON", nil)
}

var errBodyTooLarge = errors.New("request body too large")

// readBody decodes the body and writes the error response on failure.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeJSON(w, r, dst)
	if err == nil {
		return true
	}
	if errors.Is(err, errBodyTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
			Error:   "Payload too large",
			Message: fmt.Sprintf("Request body must not exceed %d bytes", MaxBodyBytes),
		})
		return false
	}
	h.writeError(w, r, err, "Invalid request", "Request body could not be read")
	return false
}
