package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

func TestProfileHandler_Me(t *testing.T) {
	e := newTestEcho()
	handler := NewProfileHandler(&stubSessionService{})

	c, rec := newJSONContext(e, http.MethodGet, "/v1/me", "")
	authenticate(c, userSession(), "tok-1")

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.State != "authenticated" || resp.Profile == nil || resp.Profile.Name != "Ada" || resp.Role != "user" {
		t.Fatalf("unexpected session %+v", resp)
	}
}

func TestProfileHandler_MeWithoutSession(t *testing.T) {
	e := newTestEcho()
	handler := NewProfileHandler(&stubSessionService{})

	c, _ := newJSONContext(e, http.MethodGet, "/v1/me", "")

	if err := handler.Me(c); err == nil {
		t.Fatal("expected an error without a session")
	}
}

func TestProfileHandler_UpdateMe(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		renameFn: func(ctx context.Context, token, name string) (domain.Session, error) {
			if token != "tok-1" || name != "Ada Lovelace" {
				t.Fatalf("unexpected args %s %s", token, name)
			}
			s := userSession()
			s.Profile.Name = name
			return s, nil
		},
	}
	handler := NewProfileHandler(stub)

	c, rec := newJSONContext(e, http.MethodPatch, "/v1/me", `{"name":"Ada Lovelace","role":"admin"}`)
	authenticate(c, userSession(), "tok-1")

	if err := handler.UpdateMe(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Profile.Name != "Ada Lovelace" || resp.Profile.Role != "user" {
		t.Fatalf("unexpected profile %+v", resp.Profile)
	}
}
