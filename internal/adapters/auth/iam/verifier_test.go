package iam

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newIAM(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != verifyPath || r.Header.Get("X-Api-Key") != "k" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var req verifyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Token == "" || r.Header.Get("Authorization") != "Bearer "+req.Token {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestVerify_OK(t *testing.T) {
	c := newIAM(t, http.StatusOK, `{"user_id":"u-1","role":"CLINIC_ADMIN","clinic_id":"c-1"}`)

	claims, err := NewVerifier(c).Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "CLINIC_ADMIN" || claims.ClinicID != "c-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerify_Unauthorized(t *testing.T) {
	c := newIAM(t, http.StatusUnauthorized, `{"message":"expired"}`)

	_, err := NewVerifier(c).Verify(context.Background(), "tok")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerify_UpstreamAndMissingUser(t *testing.T) {
	c := newIAM(t, http.StatusBadGateway, ``)
	if _, err := NewVerifier(c).Verify(context.Background(), "tok"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	c = newIAM(t, http.StatusOK, `{"email":"a@b.c"}`)
	if _, err := NewVerifier(c).Verify(context.Background(), "tok"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream for missing user_id, got %v", err)
	}
}

func TestVerify_NotConfigured(t *testing.T) {
	c, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := NewVerifier(c).Verify(context.Background(), "tok"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
