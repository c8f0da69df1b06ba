package routing_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/scribe/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router *routing.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ── HTTP verbs ────────────────────────────────────────────────────────────────

func TestRouter_Get(t *testing.T) {
	r := routing.New(nil)
	r.Get("/hello", okHandler)

	rr := do(t, r, http.MethodGet, "/hello")
	if rr.Code != http.StatusOK {
		t.Errorf("GET /hello: got %d want 200", rr.Code)
	}
}

func TestRouter_Head(t *testing.T) {
	r := routing.New(nil)
	r.Head("/hello", okHandler)

	rr := do(t, r, http.MethodHead, "/hello")
	if rr.Code != http.StatusOK {
		t.Errorf("HEAD /hello: got %d want 200", rr.Code)
	}
}

func TestRouter_WrongMethod(t *testing.T) {
	r := routing.New(nil)
	r.Get("/hello", okHandler)

	rr := do(t, r, http.MethodPost, "/hello")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /hello: got %d want 405", rr.Code)
	}
}

// ── Groups & Prefixes ─────────────────────────────────────────────────────────

func TestRouter_Prefix(t *testing.T) {
	r := routing.New(nil)
	r.Prefix("/scopes", func(r *routing.Router) {
		r.Get("/global", okHandler)
	})

	if rr := do(t, r, http.MethodGet, "/scopes/global"); rr.Code != http.StatusOK {
		t.Errorf("GET /scopes/global: got %d want 200", rr.Code)
	}
	if rr := do(t, r, http.MethodGet, "/global"); rr.Code != http.StatusNotFound {
		t.Errorf("GET /global: got %d want 404", rr.Code)
	}
}

func TestRouter_GroupMiddleware(t *testing.T) {
	r := routing.New(nil)
	r.Group(func(g *routing.Router) {
		g.Middleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("X-Group", "yes")
				next.ServeHTTP(w, req)
			})
		})
		g.Get("/inside", okHandler)
	})
	r.Get("/outside", okHandler)

	if got := do(t, r, http.MethodGet, "/inside").Header().Get("X-Group"); got != "yes" {
		t.Errorf("inside group header: got %q want yes", got)
	}
	if got := do(t, r, http.MethodGet, "/outside").Header().Get("X-Group"); got != "" {
		t.Errorf("outside group header: got %q want empty", got)
	}
}

func TestRouter_NotFound(t *testing.T) {
	r := routing.New(nil)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	if rr := do(t, r, http.MethodGet, "/missing"); rr.Code != http.StatusTeapot {
		t.Errorf("GET /missing: got %d want 418", rr.Code)
	}
}

// ── Params ────────────────────────────────────────────────────────────────────

func TestRouter_Param(t *testing.T) {
	r := routing.New(nil)
	var got string
	r.Get("/sessions/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = routing.Param(req, "id")
		w.WriteHeader(http.StatusOK)
	})

	do(t, r, http.MethodGet, "/sessions/level-1")
	if got != "level-1" {
		t.Errorf("Param(id): got %q want level-1", got)
	}
}

// ── Middleware ────────────────────────────────────────────────────────────────

func TestRouter_RecoversPanics(t *testing.T) {
	r := routing.New(nil)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	if rr := do(t, r, http.MethodGet, "/boom"); rr.Code != http.StatusInternalServerError {
		t.Errorf("GET /boom: got %d want 500", rr.Code)
	}
}

func TestRouter_LogsRequests(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := routing.New(zap.New(core))
	r.Get("/hello", okHandler)

	do(t, r, http.MethodGet, "/hello")

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("request log entries: got %d want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/hello" {
		t.Errorf("path field: got %v want /hello", fields["path"])
	}
	if fields["status"] != int64(200) {
		t.Errorf("status field: got %v want 200", fields["status"])
	}
}

func TestRouter_Handler(t *testing.T) {
	r := routing.New(nil)
	r.Get("/hello", okHandler)

	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/hello", nil))
	if rr.Body.String() != "ok" {
		t.Errorf("body: got %q want ok", rr.Body.String())
	}
}
