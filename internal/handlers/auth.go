package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/xelth-com/cotaqc/internal/middleware"
	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/services/qc"
	"github.com/xelth-com/cotaqc/internal/utils"
)

// LoginRequest represents a manager login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PINLoginRequest is the operator's four-digit PIN.
type PINLoginRequest struct {
	PIN string `json:"pin"`
}

// RefreshRequest carries the refresh token of the current session.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type sessionResponse struct {
	Session *utils.TokenPair `json:"session"`
	User    sessionUser      `json:"user"`
}

var errBadCredentials = errors.New("credenciais_invalidas")

// signIn checks email and password and issues a session.
func (r *Router) signIn(req *http.Request, email, password string) (*models.UserAuth, *utils.TokenPair, error) {
	// 1. Find User
	user, err := r.accounts.FindAccountByEmail(req.Context(), email)
	if err != nil {
		if !errors.Is(err, qc.ErrNotFound) {
			log.Printf("❌ Account lookup failed: %v", err)
		}
		return nil, nil, errBadCredentials
	}

	// 2. Check Password
	if !user.IsActive || !utils.CheckPasswordHash(password, user.Password) {
		return nil, nil, errBadCredentials
	}

	// 3. Update Last Login
	if err := r.accounts.TouchLogin(req.Context(), user.ID, time.Now().UTC()); err != nil {
		log.Printf("⚠️ Failed to record login for %s: %v", user.Email, err)
	}

	// 4. Generate Tokens
	pair, err := utils.GenerateTokens(user, r.cfg)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// login handles manager email/password login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := decodeJSON(req, &loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}
	email := utils.ManagerEmail(loginReq.Email, r.cfg.Auth.ManagerDomain)
	if email == "" || loginReq.Password == "" {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}

	user, pair, err := r.signIn(req, email, loginReq.Password)
	if err != nil {
		r.respondSignInError(w, err)
		return
	}
	role := utils.DeriveRole(user.Email, user.Role, r.cfg.Auth.OperatorDomain)
	log.Printf("🔑 %s signed in as %s", user.Email, role)
	respondJSON(w, http.StatusOK, sessionResponse{
		Session: pair,
		User:    sessionUser{ID: user.ID, Email: user.Email, Role: role},
	})
}

// opLogin exchanges an operator PIN for a session. Browsers call it
// cross-origin from the tablet app, so it answers its own preflight.
func (r *Router) opLogin(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch req.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	var body PINLoginRequest
	if err := decodeJSON(req, &body); err != nil || !utils.ValidPIN(body.PIN) {
		respondError(w, http.StatusBadRequest, "pin_invalido")
		return
	}

	email := utils.OperatorEmail(body.PIN, r.cfg.Auth.OperatorDomain)
	user, pair, err := r.signIn(req, email, r.cfg.Auth.OperatorPassword)
	if err != nil {
		r.respondSignInError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		Session: pair,
		User:    sessionUser{ID: user.ID, Email: user.Email},
	})
}

func (r *Router) respondSignInError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadCredentials) {
		respondError(w, http.StatusUnauthorized, errBadCredentials.Error())
		return
	}
	log.Printf("❌ Failed to generate tokens: %v", err)
	respondError(w, http.StatusInternalServerError, "falha_ao_gerar_sessao")
}

// refresh exchanges a refresh token for a new session.
func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	var body RefreshRequest
	if err := decodeJSON(req, &body); err != nil || strings.TrimSpace(body.RefreshToken) == "" {
		respondError(w, http.StatusBadRequest, "requisicao_invalida")
		return
	}
	id, err := utils.ParseRefreshToken(body.RefreshToken, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "token_invalido")
		return
	}
	user, err := r.accounts.FindAccountByID(req.Context(), id)
	if err != nil || !user.IsActive {
		respondError(w, http.StatusUnauthorized, "token_invalido")
		return
	}
	pair, err := utils.GenerateTokens(user, r.cfg)
	if err != nil {
		r.respondSignInError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		Session: pair,
		User: sessionUser{
			ID:    user.ID,
			Email: user.Email,
			Role:  utils.DeriveRole(user.Email, user.Role, r.cfg.Auth.OperatorDomain),
		},
	})
}

// logout handles user logout
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	// Tokens are stateless; clients drop them
	respondJSON(w, http.StatusOK, map[string]string{"message": "sessao_encerrada"})
}

// me returns the identity behind the access token.
func (r *Router) me(w http.ResponseWriter, req *http.Request) {
	ident, ok := middleware.IdentityFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "nao_autenticado")
		return
	}
	user, err := r.accounts.FindAccountByID(req.Context(), ident.ID)
	if err != nil || !user.IsActive {
		respondError(w, http.StatusUnauthorized, "nao_autenticado")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  ident.Role,
	})
}
