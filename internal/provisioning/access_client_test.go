package provisioning

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAccessClientValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/access/u1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"valid":true}`))
	}))
	defer srv.Close()

	client := NewAccessClient(srv.URL, time.Second)
	valid, err := client.HasValidAccess(context.Background(), "u1")
	if err != nil {
		t.Fatalf("HasValidAccess: %v", err)
	}
	if !valid {
		t.Error("expected valid access")
	}
}

func TestAccessClientNotFoundMeansNoAccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewAccessClient(srv.URL, time.Second)
	valid, err := client.HasValidAccess(context.Background(), "u1")
	if err != nil {
		t.Fatalf("404 is not an error: %v", err)
	}
	if valid {
		t.Error("404 means no access")
	}
}

func TestAccessClientServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewAccessClient(srv.URL, time.Second)
	if _, err := client.HasValidAccess(context.Background(), "u1"); err == nil {
		t.Error("expected error for 500")
	}
}

func TestAccessClientEscapesUserID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"valid":false}`))
	}))
	defer srv.Close()

	client := NewAccessClient(srv.URL, time.Second)
	if _, err := client.HasValidAccess(context.Background(), "auth0|u/1"); err != nil {
		t.Fatalf("HasValidAccess: %v", err)
	}
	if gotPath != "/v1/access/auth0%7Cu%2F1" {
		t.Errorf("user id must be path-escaped, got %s", gotPath)
	}
}
