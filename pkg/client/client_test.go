package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/phoenixcrm/leadview/pkg/model"
)

func TestFetchLeads_SendsBearerAndDecodes(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"1","first_name":"Ann","status":"qualified","value":500},{"id":"2","first_name":"Bob"}]`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "tok-123")
	leads, err := c.FetchLeads(context.Background())
	if err != nil {
		t.Fatalf("FetchLeads: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/api/leads/" {
		t.Errorf("path = %q", gotPath)
	}
	if len(leads) != 2 || leads[0].ID != "1" || leads[0].Value != 500 || leads[1].Stage() != "new" {
		t.Errorf("unexpected leads: %+v", leads)
	}
}

func TestRequestsCarryRequestID(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-ID"))
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := New(srv.URL, "t")
	for i := 0; i < 2; i++ {
		if _, err := c.FetchLeads(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if len(ids) != 2 || ids[0] == ids[1] {
		t.Fatalf("request ids = %v", ids)
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("X-Request-ID %q is not a UUID: %v", id, err)
		}
	}
}

func TestFetchLeads_EmptyAndNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `null`)
	}))
	defer srv.Close()

	leads, err := New(srv.URL, "t").FetchLeads(context.Background())
	if err != nil {
		t.Fatalf("FetchLeads: %v", err)
	}
	if leads == nil || len(leads) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", leads)
	}
}

func TestFetchLeads_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"db down"}`, KindStatus, "db down"},
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Invalid token"}`, KindUnauthorized, "401"},
		{"bad gateway no detail", http.StatusBadGateway, `<html>`, KindStatus, "502"},
		{"validation detail list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","email"],"msg":"field required"}]}`, KindStatus, "field required"},
		{"malformed payload", http.StatusOK, `[{"id":`, KindDecode, "malformed"},
		{"wrong shape", http.StatusOK, `{"id":"1"}`, KindDecode, "malformed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, "t").FetchLeads(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := GetKind(err); got != tt.kind {
				t.Errorf("kind = %v, want %v (err=%v)", got, tt.kind, err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.message)
			}
		})
	}
}

func TestFetchLeads_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, "t", WithTimeout(50*time.Millisecond))
	if c.Timeout() != 50*time.Millisecond {
		t.Fatalf("Timeout() = %v", c.Timeout())
	}
	_, err := c.FetchLeads(context.Background())
	if !IsKind(err, KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestFetchLeads_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "t").FetchLeads(context.Background())
	if !IsKind(err, KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Unwrap() == nil {
		t.Errorf("transport error should wrap the cause")
	}
}

func TestClient_NoBaseURL(t *testing.T) {
	_, err := New("  ", "t").FetchLeads(context.Background())
	if !IsKind(err, KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestUpdateLead(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"id":"abc","first_name":"Ann","notes":"call monday"}`)
	}))
	defer srv.Close()

	notes := "call monday"
	lead, err := New(srv.URL, "t").UpdateLead(context.Background(), "abc", model.LeadUpdate{Notes: &notes})
	if err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/leads/abc" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if len(gotBody) != 1 || gotBody["notes"] != "call monday" {
		t.Errorf("body = %v", gotBody)
	}
	if lead.Notes != "call monday" {
		t.Errorf("lead = %+v", lead)
	}
}

func TestUpdateLead_RejectsEmpty(t *testing.T) {
	c := New("http://example.invalid", "t")
	if _, err := c.UpdateLead(context.Background(), "abc", model.LeadUpdate{}); !IsKind(err, KindConfig) {
		t.Errorf("empty update: %v", err)
	}
	notes := "x"
	if _, err := c.UpdateLead(context.Background(), "", model.LeadUpdate{Notes: &notes}); !IsKind(err, KindConfig) {
		t.Errorf("empty id: %v", err)
	}
}

func TestGetLead_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Lead not found"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t").GetLead(context.Background(), "missing")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login should not send a bearer token")
		}
		var creds struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Authentication failed"}`)
			return
		}
		io.WriteString(w, `{"access_token":"jwt","token_type":"bearer","user":{"id":"u1","email":"a@b.c","full_name":"A B"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	resp, err := c.Login(context.Background(), " a@b.c ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken != "jwt" || resp.User.ID != "u1" {
		t.Errorf("resp = %+v", resp)
	}

	_, err = c.Login(context.Background(), "a@b.c", "wrong")
	if !IsKind(err, KindUnauthorized) || !strings.Contains(err.Error(), "Invalid credentials") {
		t.Errorf("bad password: %v", err)
	}

	if _, err := c.Login(context.Background(), "", "x"); !IsKind(err, KindConfig) {
		t.Errorf("missing email: %v", err)
	}
}

func TestWithToken(t *testing.T) {
	base := New("http://x", "")
	authed := base.WithToken("tok")
	if base.token != "" || authed.token != "tok" {
		t.Errorf("WithToken should not mutate the original")
	}
	if authed.BaseURL() != "http://x" {
		t.Errorf("BaseURL = %q", authed.BaseURL())
	}
}
