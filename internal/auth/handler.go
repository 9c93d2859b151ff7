package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/knitec/iq-platform/internal/identity"
	"github.com/knitec/iq-platform/pkg/logging"
)

// Handler exposes login, logout, and whoami endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
	secure  bool
}

// NewHandler creates a new auth handler. secure marks session cookies
// Secure, which production deployments behind TLS should set.
func NewHandler(service *Service, logger *logging.Logger, secure bool) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		secure:  secure,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Login handles POST /auth/login requests
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	token, user, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.Warn("login rejected", "username", req.Username)
			http.Error(w, "invalid username or password", http.StatusUnauthorized)
			return
		}
		h.logger.Error("login failed", "username", req.Username, "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.service.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.service.Expiry().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("login accepted", "username", user.Username)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		Token:    token,
		Username: user.Username,
		Name:     user.Name,
	})
}

// Logout handles POST /auth/logout requests by expiring the session cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.service.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "signed out"})
}

// Me handles GET /auth/me requests
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"username": user.Username,
		"name":     user.Name,
	})
}
