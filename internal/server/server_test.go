package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/roster/internal/models"
	"github.com/desertthunder/roster/internal/roster"
	"github.com/desertthunder/roster/internal/shared"
	tu "github.com/desertthunder/roster/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"
)

var (
	backend  = models.Track{ID: "t1", Name: "Backend"}
	frontend = models.Track{ID: "t2", Name: "Frontend"}
)

func setupServer(t *testing.T, store *tu.MemoryStore) *Server {
	t.Helper()
	logger := shared.NewLogger(io.Discard)
	reg := prometheus.NewRegistry()
	router := roster.NewRouter(roster.RouterOpts{
		Store:    store,
		PageSize: 10,
		Logger:   logger,
		Metrics:  roster.NewMetrics(reg),
	})
	return New(Opts{Addr: "127.0.0.1:0", Router: router, Gatherer: reg, Logger: logger})
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeStudents(t *testing.T, rec *httptest.ResponseRecorder) StudentsResponse {
	t.Helper()
	var body StudentsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestStudentsEndpoint(t *testing.T) {
	store := tu.NewMemoryStore([]models.Track{backend, frontend}, tu.Students(12, backend))
	srv := setupServer(t, store)

	t.Run("FirstPage", func(t *testing.T) {
		rec := get(t, srv, "/students")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}

		body := decodeStudents(t, rec)
		if body.Mode != "default" || body.Page != 1 || body.PageSize != 10 {
			t.Errorf("unexpected envelope %+v", body)
		}
		if !body.HasNext || body.HasPrev {
			t.Errorf("HasNext=%v HasPrev=%v", body.HasNext, body.HasPrev)
		}
		if len(body.Students) != 10 || body.Students[0].Rank != 1 {
			t.Errorf("unexpected students %+v", body.Students)
		}
	})

	t.Run("SecondPage", func(t *testing.T) {
		body := decodeStudents(t, get(t, srv, "/students?page=2"))
		if len(body.Students) != 2 || body.Students[0].Rank != 11 || body.Students[1].Rank != 12 {
			t.Errorf("unexpected second page %+v", body.Students)
		}
		if body.HasNext || !body.HasPrev {
			t.Errorf("HasNext=%v HasPrev=%v", body.HasNext, body.HasPrev)
		}
	})

	t.Run("PhoneSearch", func(t *testing.T) {
		body := decodeStudents(t, get(t, srv, "/students?q=5550001"))
		if body.Mode != "search_by_phone" {
			t.Errorf("mode = %s", body.Mode)
		}
		if op, arg := store.LastCall(); op != "SearchByPhone" || arg != "5550001" {
			t.Errorf("called %s(%q)", op, arg)
		}
	})

	t.Run("TrackFilter", func(t *testing.T) {
		body := decodeStudents(t, get(t, srv, "/students?track=t1"))
		if body.Mode != "filter_by_track" || len(body.Students) != 10 {
			t.Errorf("unexpected body %+v", body)
		}
		if got := body.Students[0].Tracks; len(got) != 1 || got[0] != backend {
			t.Errorf("expected normalized tracks, got %+v", got)
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		rec := get(t, srv, "/students?q=nobody")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"students":[]`) {
			t.Errorf("expected empty students array, got %s", rec.Body.String())
		}
	})

	t.Run("PhoneNotInJSON", func(t *testing.T) {
		if strings.Contains(get(t, srv, "/students").Body.String(), "phone") {
			t.Error("phone numbers must not be served")
		}
	})

	t.Run("BadRequests", func(t *testing.T) {
		for _, target := range []string{"/students?q=ann&track=t1", "/students?page=two"} {
			if rec := get(t, srv, target); rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", target, rec.Code)
			}
		}
	})

	t.Run("PageClamped", func(t *testing.T) {
		body := decodeStudents(t, get(t, srv, "/students?page=-4"))
		if body.Page != 1 {
			t.Errorf("page = %d, want 1", body.Page)
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/students", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestStoreUnavailable(t *testing.T) {
	store := tu.NewMemoryStore([]models.Track{backend}, tu.Students(3))
	store.Fail = true
	srv := setupServer(t, store)

	for _, target := range []string{"/students", "/tracks"} {
		rec := get(t, srv, target)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", target, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"store unavailable"}` {
			t.Errorf("%s: body = %s", target, got)
		}
	}
}

func TestTracksEndpoint(t *testing.T) {
	srv := setupServer(t, tu.NewMemoryStore([]models.Track{backend, frontend}, nil))

	rec := get(t, srv, "/tracks")
	var tracks []models.Track
	if err := json.Unmarshal(rec.Body.Bytes(), &tracks); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(tracks) != 2 || tracks[0] != backend {
		t.Errorf("unexpected tracks %+v", tracks)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupServer(t, tu.NewMemoryStore(nil, tu.Students(3)))
	get(t, srv, "/students")

	rec := get(t, srv, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `roster_fetches_total{mode="default",outcome="ok"} 1`) {
		t.Errorf("expected fetch counter in exposition, got:\n%s", body)
	}
}

func TestRecover(t *testing.T) {
	r := NewBasicRouter()
	r.Use(Recover(shared.NewLogger(io.Discard)))
	r.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewBasicRouter()
	r.Use(mark("first"), mark("second"))
	r.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("unexpected order %v", order)
	}
}

func TestServe(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := setupServer(t, tu.NewMemoryStore([]models.Track{backend}, nil))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln)
	}()

	transport := &http.Transport{DisableKeepAlives: true}
	client := &http.Client{Transport: transport}
	resp, err := client.Get("http://" + ln.Addr().String() + "/tracks")
	if err != nil {
		cancel()
		t.Fatalf("request failed: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	transport.CloseIdleConnections()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve() error = %v", err)
	}
}
