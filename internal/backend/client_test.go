package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestClient_ListSheltersUnpaginated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/baraks/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer svc-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		w.Write([]byte(`{"success":true,"data":[
			{"id":1,"nama_barak":"Barak A","kapasitas":"200","latitude":"-7.62","longitude":110.45,"kecamatan":"Cangkringan"},
			{"id":2,"nama_barak":"Barak B","kapasitas":150,"latitude":null,"longitude":"110.4"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", "svc-token", 5*time.Second)
	shelters, err := c.ListShelters(context.Background())
	if err != nil {
		t.Fatalf("ListShelters failed: %v", err)
	}
	if len(shelters) != 2 {
		t.Fatalf("expected 2 shelters, got %d", len(shelters))
	}
	if shelters[0].Longitude != "110.45" || shelters[1].Capacity != "150" {
		t.Errorf("expected numbers decoded as strings, got %+v", shelters)
	}
	if _, ok := shelters[1].Location(); ok {
		t.Error("expected shelter with null latitude to be invalid-located")
	}
}

func TestClient_ListSheltersFallsBackToPages(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/baraks/all":
			w.WriteHeader(http.StatusNotFound)
		case "/baraks":
			page := r.URL.Query().Get("page")
			pages = append(pages, page)
			if r.URL.Query().Get("sort_by") != "id" || r.URL.Query().Get("order") != "desc" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			switch page {
			case "1":
				w.Write([]byte(`{"data":[{"id":3,"nama_barak":"C"},{"id":2,"nama_barak":"B"}],"last_page":2}`))
			default:
				w.Write([]byte(`{"data":[{"id":1,"nama_barak":"A"}],"last_page":2}`))
			}
		}
	}))
	defer srv.Close()

	shelters, err := NewClient(srv.URL, "", time.Second).ListShelters(context.Background())
	if err != nil {
		t.Fatalf("ListShelters failed: %v", err)
	}
	if len(shelters) != 3 {
		t.Errorf("expected 3 shelters across pages, got %d", len(shelters))
	}
	if len(pages) != 2 {
		t.Errorf("expected 2 page requests, got %v", pages)
	}
}

func TestClient_ListSheltersError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "", time.Second).ListShelters(context.Background()); err == nil {
		t.Error("expected error when both listings fail")
	}
}

func TestClient_GetShelter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/baraks/5" {
			w.Write([]byte(`{"success":true,"data":{"id":5,"nama_barak":"Barak Lima","tipe_bangunan":"Kantor Pemerintahan"}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	s, err := c.GetShelter(context.Background(), 5)
	if err != nil || s == nil || s.Name != "Barak Lima" {
		t.Fatalf("unexpected result %+v, err %v", s, err)
	}

	s, err = c.GetShelter(context.Background(), 6)
	if err != nil || s != nil {
		t.Errorf("expected nil for missing shelter, got %+v, err %v", s, err)
	}
}

func TestClient_Me(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"user":{"id":9,"name":"Petugas BPBD","email":"bpbd@example.org"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	u, err := c.Me(context.Background(), "good")
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if u.ID != 9 || u.Name != "Petugas BPBD" {
		t.Errorf("unexpected user %+v", u)
	}

	if _, err := c.Me(context.Background(), "bad"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"expired", signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}), true},
		{"valid", signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}), false},
		{"no exp", signed(t, jwt.RegisteredClaims{Subject: "9"}), false},
		{"opaque", "12|Fq8Hk2opaqueSanctumToken", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenExpired(tt.token, now); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
