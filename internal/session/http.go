package session

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPBackend is the Backend of a running cotaqc API.
type HTTPBackend struct {
	BaseURL string
	http    *resty.Client
}

func NewHTTPBackend(baseURL string) *HTTPBackend {
	baseURL = strings.TrimRight(baseURL, "/")
	c := resty.New().SetTimeout(30 * time.Second).SetBaseURL(baseURL)
	return &HTTPBackend{BaseURL: baseURL, http: c}
}

// APIError is a non-2xx answer with the server's error code.
type APIError struct {
	Status int    `json:"-"`
	Code   string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Code)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Code == ErrInvalidPIN.Error():
		return ErrInvalidPIN
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

func (b *HTTPBackend) request(ctx context.Context, token string, apiErr *APIError) *resty.Request {
	r := b.http.R().SetContext(ctx).SetError(apiErr)
	if token != "" {
		r.SetAuthToken(token)
	}
	return r
}

func checkResponse(resp *resty.Response, apiErr *APIError) error {
	if resp.IsSuccess() {
		return nil
	}
	apiErr.Status = resp.StatusCode()
	return apiErr
}

// Do sends a JSON request and decodes a JSON answer into out, if non-nil.
func (b *HTTPBackend) Do(ctx context.Context, token, method, path string, body, out interface{}) error {
	apiErr := &APIError{}
	r := b.request(ctx, token, apiErr).ForceContentType("application/json")
	if body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		r.SetResult(out)
	}
	resp, err := r.Execute(method, path)
	if err != nil {
		return err
	}
	return checkResponse(resp, apiErr)
}

// Download fetches a file endpoint into w and returns the server's file name.
func (b *HTTPBackend) Download(ctx context.Context, token, path string, w io.Writer) (string, error) {
	apiErr := &APIError{}
	resp, err := b.request(ctx, token, apiErr).Get(path)
	if err != nil {
		return "", err
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return "", err
	}
	if _, err := w.Write(resp.Body()); err != nil {
		return "", err
	}
	return fileName(resp.Header().Get("Content-Disposition")), nil
}

type signInResponse struct {
	Session *Tokens `json:"session"`
}

func (b *HTTPBackend) signIn(ctx context.Context, path string, body interface{}) (*Tokens, error) {
	var out signInResponse
	if err := b.Do(ctx, "", http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if out.Session == nil || out.Session.AccessToken == "" {
		return nil, fmt.Errorf("resposta sem sessão")
	}
	return out.Session, nil
}

func (b *HTTPBackend) SignInOperator(ctx context.Context, pin string) (*Tokens, error) {
	return b.signIn(ctx, "/api/op-login", map[string]string{"pin": pin})
}

func (b *HTTPBackend) SignInManager(ctx context.Context, login, password string) (*Tokens, error) {
	return b.signIn(ctx, "/auth/login", map[string]string{"email": login, "password": password})
}

func (b *HTTPBackend) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	return b.signIn(ctx, "/auth/refresh", map[string]string{"refresh_token": refreshToken})
}

func (b *HTTPBackend) Me(ctx context.Context, accessToken string) (*Identity, error) {
	var ident Identity
	if err := b.Do(ctx, accessToken, http.MethodGet, "/auth/me", nil, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

func fileName(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
