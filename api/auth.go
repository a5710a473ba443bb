package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/garnizeh/marketplace/internal/marketplace"
	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	accounts      repository.AccountRepo
	svc           *marketplace.Service
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ar repository.AccountRepo, svc *marketplace.Service, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{accounts: ar, svc: svc, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	UserType    string `json:"user_type,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile,omitempty"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}
	switch req.UserType {
	case "":
		req.UserType = models.UserTypeCustomer
	case models.UserTypeCustomer, models.UserTypeProvider:
	default:
		http.Error(w, "Invalid user_type", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	account := models.Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		UserType:     req.UserType,
		PasswordHash: string(hash),
	}
	if err := h.accounts.CreateAccount(ctx, &account); err != nil {
		writeDomainError(w, err)
		return
	}

	// Signup opens a session, so the profile is provisioned right away; a
	// racing first signin from another tab converges on the same record.
	profile, err := h.svc.EnsureProfile(ctx, marketplace.Identity{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		UserType:    account.UserType,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tokenStr, err := h.issueToken(account.ID, account.Email)
	if err != nil {
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, Profile: profile}, http.StatusCreated)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	account, err := h.accounts.GetAccountByEmail(ctx, req.Email)
	if err != nil || account == nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}

	// Session start: every signin runs the provisioner so the identity is
	// guaranteed a profile before any job/bid operation.
	profile, err := h.svc.EnsureProfile(ctx, marketplace.Identity{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		UserType:    account.UserType,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tokenStr, err := h.issueToken(account.ID, account.Email)
	if err != nil {
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, Profile: profile}, http.StatusOK)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// For stateless JWT, signout is client-side (just delete token)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"message":"signed out"}`)
}

// Profile returns the caller's provisioned profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	account, err := h.accounts.GetAccountByID(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if account == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	profile, err := h.svc.EnsureProfile(ctx, marketplace.Identity{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		UserType:    account.UserType,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, profile, http.StatusOK)
}

// UpdateProfile edits the caller's display data.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var patch models.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, profile, http.StatusOK)
}

func (h *AuthHandler) issueToken(id, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   id,
		"email": email,
		"exp":   time.Now().Add(h.tokenDuration).Unix(),
	})

	return token.SignedString([]byte(h.jwtSecret))
}
