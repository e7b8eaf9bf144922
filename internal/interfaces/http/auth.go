package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"grana/internal/domain/category"
	"grana/internal/domain/user"
	"grana/internal/shared/auth"
)

type AuthHandler struct {
	userRepo   user.Repository
	categories *category.Service
	jwt        *auth.JWT
}

func NewAuthHandler(userRepo user.Repository, categories *category.Service, jwt *auth.JWT) *AuthHandler {
	return &AuthHandler{
		userRepo:   userRepo,
		categories: categories,
		jwt:        jwt,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// HandleRegister creates a new user and seeds the default category set.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		http.Error(w, "Email, password, and name are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password during registration")
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	userModel, err := h.userRepo.Create(ctx, user.CreateParams{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		http.Error(w, "User with this email already exists", http.StatusConflict)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	// New accounts start with the stock Brazilian category set so the
	// first statement import already categorizes.
	if _, err := h.categories.SeedDefaults(ctx, userModel.ID); err != nil {
		log.Error().Err(err).Int64("user_id", userModel.ID).Msg("failed to seed default categories")
	}

	token, err := h.jwt.Generate(userModel.ID, userModel.Email)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userModel.ID).Msg("failed to generate token for new user")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	setAuthCookie(w, r, token)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{
		Token: token,
		User:  userModel,
	})
}

// HandleLogin authenticates a user with email and password.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	userModel, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := auth.VerifyPassword(userModel.PasswordHash, req.Password); err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.jwt.Generate(userModel.ID, userModel.Email)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	setAuthCookie(w, r, token)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Token: token,
		User:  userModel,
	})
}

// HandleLogout clears the auth cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

// setAuthCookie sets the JWT as an HttpOnly cookie.
func setAuthCookie(w http.ResponseWriter, r *http.Request, token string) {
	// Only set Secure flag when actually using HTTPS
	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours (matches JWT expiration)
	})
}
