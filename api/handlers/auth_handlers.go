package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"incidentdesk/config"
	"incidentdesk/core/auth"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

type AuthHandler struct {
	cfg            *config.AppConfig
	users          store.UsersStore
	sessionManager *auth.SessionManager
	logger         *utils.Logger
}

func NewAuthHandler(cfg *config.AppConfig, users store.UsersStore, sm *auth.SessionManager, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users, sessionManager: sm, logger: logger}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"omitempty,email"`
}

var signupValidate = validator.New(validator.WithRequiredStructEnabled())

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// Signup registers a self-service account. The role is always "user";
// privileged roles are assigned out of band.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var cred signupRequest
	if err := readJSON(r, &cred); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cred.Username = strings.ToLower(strings.TrimSpace(cred.Username))
	cred.Email = strings.ToLower(strings.TrimSpace(cred.Email))
	if err := signupValidate.Struct(cred); err != nil {
		errorJSON(w, http.StatusBadRequest, "username of at least 3 characters, a password of at least 8 characters and a valid email are required")
		return
	}
	existing, err := h.users.FindByUsername(r.Context(), cred.Username)
	if err != nil {
		h.logger.Errorf("signup lookup %s: %v", cred.Username, err)
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing != nil {
		errorJSON(w, http.StatusConflict, "username already taken")
		return
	}
	if cred.Email != "" {
		byEmail, err := h.users.FindByEmail(r.Context(), cred.Email)
		if err != nil {
			h.logger.Errorf("signup email lookup: %v", err)
			errorJSON(w, http.StatusInternalServerError, "server error")
			return
		}
		if byEmail != nil {
			errorJSON(w, http.StatusBadRequest, "email already registered")
			return
		}
	}
	hash, err := auth.HashPassword(cred.Password)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	user := &store.User{
		Username:     cred.Username,
		PasswordHash: hash,
		Email:        strings.ToLower(strings.TrimSpace(cred.Email)),
		Role:         store.RoleUser,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		h.logger.Errorf("signup create %s: %v", cred.Username, err)
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	h.startSession(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var cred credentials
	if err := readJSON(r, &cred); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cred.Username = strings.ToLower(strings.TrimSpace(cred.Username))
	user, err := h.users.FindByUsername(r.Context(), cred.Username)
	if err != nil {
		h.logger.Errorf("login lookup %s: %v", cred.Username, err)
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil {
		errorJSON(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, cred.Password); err != nil {
		h.logger.Printf("failed login for %s", cred.Username)
		errorJSON(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	h.startSession(w, r, user, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *store.User, status int) {
	sess, err := h.sessionManager.Create(r.Context(), user)
	if err != nil {
		h.logger.Errorf("create session for %s: %v", user.Username, err)
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || h.cfg.TLSEnabled,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	writeJSON(w, status, toUserResponse(user))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessionManager.Delete(r.Context(), cookie.Value); err != nil {
			h.logger.Errorf("delete session: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		errorJSON(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	user, err := h.users.Get(r.Context(), sess.UserID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil {
		errorJSON(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
