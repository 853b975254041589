// Package session tracks the signed-in identity of a client (CLI or kiosk)
// talking to the cotaqc API.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
)

// State is where the tracker is in resolving the current identity.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	default:
		return "uninitialized"
	}
}

var (
	ErrUnauthorized = errors.New("credenciais_invalidas")
	ErrInvalidPIN   = errors.New("pin_invalido")
	ErrNoSession    = errors.New("sem_sessao")
)

// Tokens is the session issued by the API.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Identity is who the tokens belong to.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Backend talks to the session issuer.
type Backend interface {
	SignInOperator(ctx context.Context, pin string) (*Tokens, error)
	SignInManager(ctx context.Context, login, password string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	Me(ctx context.Context, accessToken string) (*Identity, error)
}

// TokenStore persists tokens between runs.
type TokenStore interface {
	Load() (*Tokens, error)
	Save(t *Tokens) error
	Clear() error
}

// Tracker holds the current session. It starts uninitialized, moves to
// resolving while Init runs and ends resolved, with or without an identity.
type Tracker struct {
	backend Backend
	store   TokenStore

	mu        sync.RWMutex
	state     State
	tokens    *Tokens
	identity  *Identity
	listeners []func(State, *Identity)
}

func NewTracker(backend Backend, store TokenStore) *Tracker {
	return &Tracker{backend: backend, store: store}
}

// Subscribe registers fn to be called after every transition.
func (t *Tracker) Subscribe(fn func(State, *Identity)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Identity returns the resolved identity, or nil when signed out.
func (t *Tracker) Identity() *Identity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.identity == nil {
		return nil
	}
	id := *t.identity
	return &id
}

// AccessToken returns the current bearer token.
func (t *Tracker) AccessToken() (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.tokens == nil || t.tokens.AccessToken == "" {
		return "", ErrNoSession
	}
	return t.tokens.AccessToken, nil
}

func (t *Tracker) set(state State, tokens *Tokens, ident *Identity) {
	t.mu.Lock()
	t.state = state
	t.tokens = tokens
	t.identity = ident
	listeners := append([]func(State, *Identity){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(state, ident)
	}
}

// Init loads persisted tokens and resolves who they belong to. An expired
// access token is refreshed once; if that fails the stored session is cleared.
func (t *Tracker) Init(ctx context.Context) error {
	t.set(StateResolving, nil, nil)

	tokens, err := t.store.Load()
	if err != nil || tokens == nil || tokens.AccessToken == "" {
		t.set(StateResolved, nil, nil)
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}

	ident, err := t.backend.Me(ctx, tokens.AccessToken)
	if errors.Is(err, ErrUnauthorized) && tokens.RefreshToken != "" {
		var fresh *Tokens
		if fresh, err = t.backend.Refresh(ctx, tokens.RefreshToken); err == nil {
			tokens = fresh
			if err = t.store.Save(tokens); err != nil {
				log.Printf("⚠️ Failed to persist refreshed session: %v", err)
			}
			ident, err = t.backend.Me(ctx, tokens.AccessToken)
		}
	}
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			if clrErr := t.store.Clear(); clrErr != nil {
				log.Printf("⚠️ Failed to clear revoked session: %v", clrErr)
			}
			t.set(StateResolved, nil, nil)
			return nil
		}
		t.set(StateResolved, nil, nil)
		return err
	}

	t.set(StateResolved, tokens, ident)
	return nil
}

func (t *Tracker) adopt(ctx context.Context, tokens *Tokens) (*Identity, error) {
	ident, err := t.backend.Me(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	if err := t.store.Save(tokens); err != nil {
		return nil, err
	}
	t.set(StateResolved, tokens, ident)
	return ident, nil
}

// SignInOperator exchanges a PIN for a session.
func (t *Tracker) SignInOperator(ctx context.Context, pin string) (*Identity, error) {
	tokens, err := t.backend.SignInOperator(ctx, pin)
	if err != nil {
		return nil, err
	}
	return t.adopt(ctx, tokens)
}

// SignInManager signs in with email (or bare login) and password.
func (t *Tracker) SignInManager(ctx context.Context, login, password string) (*Identity, error) {
	tokens, err := t.backend.SignInManager(ctx, login, password)
	if err != nil {
		return nil, err
	}
	return t.adopt(ctx, tokens)
}

// Refreshed records tokens renewed outside the tracker.
func (t *Tracker) Refreshed(tokens *Tokens) error {
	t.mu.RLock()
	ident := t.identity
	t.mu.RUnlock()
	if err := t.store.Save(tokens); err != nil {
		return err
	}
	t.set(StateResolved, tokens, ident)
	return nil
}

// SignOut drops the session locally; tokens are stateless on the server.
func (t *Tracker) SignOut() error {
	err := t.store.Clear()
	t.set(StateResolved, nil, nil)
	return err
}
