package connecta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/entity"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", "secret", 5*time.Second, 0, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_CreateOrUpdate(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/external-gigs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	gig := entity.Gig{ExternalID: "101", Source: "myjobmag", Title: "Backend Developer", JobType: entity.JobTypeFullTime, Skills: []string{}}
	if !c.CreateOrUpdate(context.Background(), gig) {
		t.Fatal("CreateOrUpdate returned false")
	}
	if got["external_id"] != "101" || got["job_type"] != "full-time" {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestClient_CreateOrUpdateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
	}{
		{"refused", http.StatusOK, map[string]any{"success": false, "message": "duplicate"}},
		{"server error", http.StatusInternalServerError, map[string]any{"success": false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			if c.CreateOrUpdate(context.Background(), entity.Gig{Source: "x"}) {
				t.Error("CreateOrUpdate returned true")
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/api", "k", time.Second, 0, zap.NewNop())
	if c.CreateOrUpdate(context.Background(), entity.Gig{}) {
		t.Error("CreateOrUpdate succeeded against a closed port")
	}
	if gigs := c.ListBySource(context.Background(), "jobberman"); gigs == nil || len(gigs) != 0 {
		t.Errorf("ListBySource = %v, want empty slice", gigs)
	}
}

func TestClient_Delete(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"deleted", http.StatusOK, true},
		{"already gone", http.StatusNotFound, true},
		{"server error", http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete || r.URL.Path != "/api/external-gigs/jobberman/abc-1" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				writeJSON(w, tt.status, map[string]any{"success": tt.status == http.StatusOK})
			})
			if got := c.Delete(context.Background(), "jobberman", "abc-1"); got != tt.want {
				t.Errorf("Delete = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_ListBySource(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("source") != "weworkremotely" || r.URL.Query().Get("limit") != "10000" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"_id": "a1", "externalId": "go-engineer", "source": "weworkremotely", "title": "Go Engineer", "lastScrapedAt": "2026-06-01T09:00:00.000Z"},
			},
		})
	})
	gigs := c.ListBySource(context.Background(), "weworkremotely")
	if len(gigs) != 1 {
		t.Fatalf("got %d gigs", len(gigs))
	}
	g := gigs[0]
	if g.ExternalID != "go-engineer" || g.LastScrapedAt == nil || g.LastScrapedAt.Day() != 1 {
		t.Errorf("unexpected gig: %+v", g)
	}
}

func TestClient_ListAll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "10000" || r.URL.Query().Has("source") {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": nil})
	})
	gigs, err := c.ListAll(context.Background(), 10000)
	if err != nil || len(gigs) != 0 {
		t.Errorf("ListAll = %v, %v", gigs, err)
	}

	failing := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "maintenance"})
	})
	if _, err := failing.ListAll(context.Background(), 10); err == nil {
		t.Error("expected error on unsuccessful envelope")
	}
}

func TestClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, 1, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	c.CreateOrUpdate(ctx, entity.Gig{})
	if c.CreateOrUpdate(ctx, entity.Gig{}) {
		t.Error("second call within the same second should wait past the deadline")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("backend saw %d calls, want 1", n)
	}
}
