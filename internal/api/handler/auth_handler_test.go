package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/core/ports"
)

func TestAuthHandler_SignUp_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		signUpFn: func(ctx context.Context, email, password, name string) (*domain.Identity, error) {
			if email != "ada@example.com" || password != "secret1" || name != "Ada" {
				t.Fatalf("unexpected args: %s %s %s", email, password, name)
			}
			return &domain.Identity{ID: "acc-1", Email: email, Metadata: map[string]string{"name": name}}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/auth/signup", `{"email":"ada@example.com","password":"secret1","name":"Ada"}`)

	if err := handler.SignUp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp identityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != "acc-1" || resp.Name != "Ada" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_SignUp_PassesAuthErrors(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		signUpFn: func(context.Context, string, string, string) (*domain.Identity, error) {
			return nil, domain.NewAuthError(domain.AuthWeakPassword, nil)
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(e, http.MethodPost, "/auth/signup", `{"email":"ada@example.com","password":"123"}`)

	err := handler.SignUp(c)
	if !domain.IsAuthCode(err, domain.AuthWeakPassword) {
		t.Fatalf("expected weak password error, got %v", err)
	}
}

func TestAuthHandler_SignUp_MissingFields(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubSessionService{})

	c, _ := newJSONContext(e, http.MethodPost, "/auth/signup", `{"email":""}`)

	err := handler.SignUp(c)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["email"]; !ok {
		t.Fatalf("expected email field error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["password"]; !ok {
		t.Fatalf("expected password field error, got %v", verr.Fields)
	}
}

func TestAuthHandler_SignIn_Success(t *testing.T) {
	e := newTestEcho()
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubSessionService{
		signInFn: func(ctx context.Context, email, password string) (*ports.SignInResult, error) {
			s := userSession()
			s.Profile.Role = domain.RoleAdmin
			return &ports.SignInResult{Token: "tok-1", ExpiresAt: expires, Session: s}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/auth/signin", `{"email":"ada@example.com","password":"secret1"}`)

	if err := handler.SignIn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "tok-1" || !resp.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected token payload: %+v", resp)
	}
	if resp.Session.Role != "admin" || resp.Session.Identity.Name != "Ada" {
		t.Fatalf("unexpected session payload: %+v", resp.Session)
	}
}

func TestAuthHandler_SignIn_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubSessionService{})

	c, _ := newJSONContext(e, http.MethodPost, "/auth/signin", `{not json`)

	err := handler.SignIn(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_SignOut_UsesBearerToken(t *testing.T) {
	e := newTestEcho()
	var got string
	stub := &stubSessionService{
		signOutFn: func(ctx context.Context, token string) error {
			got = token
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/auth/signout", "")
	authenticate(c, userSession(), "tok-1")

	if err := handler.SignOut(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || got != "tok-1" {
		t.Fatalf("expected 204 for tok-1, got %d for %q", rec.Code, got)
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		refreshFn: func(ctx context.Context, token string) (*ports.SignInResult, error) {
			if token != "tok-1" {
				t.Fatalf("unexpected token %q", token)
			}
			return &ports.SignInResult{Token: "tok-2", Session: userSession()}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/auth/refresh", "")
	authenticate(c, userSession(), "tok-1")

	if err := handler.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "tok-2" {
		t.Fatalf("expected reissued token, got %+v", resp)
	}
}

func TestAuthHandler_ConfirmEmail(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		confirmFn: func(ctx context.Context, token string) (*domain.Identity, error) {
			if token != "confirm-abc" {
				return nil, domain.NewAuthError(domain.AuthInvalidToken, nil)
			}
			return &domain.Identity{ID: "acc-1", Email: "ada@example.com"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/auth/confirm", `{"token":"confirm-abc"}`)

	if err := handler.ConfirmEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
