package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/chefconnect/pkg/auth"
	"github.com/diagnosis/chefconnect/pkg/logger"
)

// ---------- Mocks ----------

type mockStore struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{values: map[string]string{}}
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.values[key], nil
}

func (m *mockStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type mockCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *mockCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

// ---------- Helpers ----------

func withSubject(subject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithIdentity(r.Context(), &auth.Identity{Subject: subject})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func countingRouter(store IdempotencyStore, subject string, status int, calls *int) http.Handler {
	r := chi.NewRouter()
	r.Use(withSubject(subject))
	r.Use(Idempotency(store, time.Hour))
	r.Post("/bookings", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"success":true,"call":` + strconv.Itoa(*calls) + `}`))
	})
	return r
}

func post(h http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---------- Tests ----------

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	store := newMockStore()
	calls := 0
	h := countingRouter(store, "uid-1", http.StatusCreated, &calls)

	first := post(h, "key-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", first.Code)
	}

	second := post(h, "key-1")
	if second.Code != http.StatusOK {
		t.Fatalf("Expected 200 for replay, got %d", second.Code)
	}
	if second.Header().Get(ReplayedHeader) != "true" {
		t.Fatal("Expected replay header")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("Expected replayed body %q, got %q", first.Body.String(), second.Body.String())
	}
	if calls != 1 {
		t.Fatalf("Expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotency_ImplicitStatusIsCached(t *testing.T) {
	store := newMockStore()
	calls := 0
	r := chi.NewRouter()
	r.Use(Idempotency(store, time.Hour))
	r.Post("/bookings", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"success":true}`))
	})

	post(r, "key-1")
	post(r, "key-1")

	if calls != 1 {
		t.Fatalf("Expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotency_KeysAreScopedBySubject(t *testing.T) {
	store := newMockStore()
	calls := 0

	post(countingRouter(store, "uid-1", http.StatusCreated, &calls), "shared")
	rec := post(countingRouter(store, "uid-2", http.StatusCreated, &calls), "shared")

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected a fresh 201 for another subject, got %d", rec.Code)
	}
	if calls != 2 {
		t.Fatalf("Expected two handler runs, got %d", calls)
	}
}

func TestIdempotency_FailuresAreNotCached(t *testing.T) {
	store := newMockStore()
	calls := 0
	h := countingRouter(store, "uid-1", http.StatusBadRequest, &calls)

	post(h, "key-1")
	post(h, "key-1")

	if calls != 2 {
		t.Fatalf("Expected failed responses to be retried, got %d calls", calls)
	}
}

func TestIdempotency_WithoutKeyAndOnStoreError(t *testing.T) {
	store := newMockStore()
	calls := 0
	h := countingRouter(store, "uid-1", http.StatusCreated, &calls)

	post(h, "")
	post(h, "")
	if calls != 2 {
		t.Fatalf("Expected requests without a key to pass through, got %d calls", calls)
	}

	store.getErr = errors.New("redis down")
	post(h, "key-2")
	if calls != 3 {
		t.Fatalf("Expected store errors to fall through, got %d calls", calls)
	}
}

func TestRateLimiter(t *testing.T) {
	counter := &mockCounter{}
	rl := NewRateLimiter(counter, RateLimitConfig{Requests: 2, Window: time.Minute, Prefix: "otp"})

	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/verify-otp", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("203.0.113.7"); code != http.StatusNoContent {
			t.Fatalf("Request %d: expected 204, got %d", i, code)
		}
	}
	if code := send("203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", code)
	}
	if code := send("203.0.113.8"); code != http.StatusNoContent {
		t.Fatalf("Expected another client to pass, got %d", code)
	}

	counter.err = errors.New("redis down")
	if code := send("203.0.113.7"); code != http.StatusNoContent {
		t.Fatalf("Expected limiter to fail open, got %d", code)
	}
}

func TestRequestIDAndHealth(t *testing.T) {
	var seen any
	h := RequestID(Health(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(logger.RequestIDKey)
	})))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("X-Request-ID", "req-123")
	h.ServeHTTP(rec, req)

	if seen != "req-123" || rec.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("Expected request id to propagate, got %v", seen)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("Unexpected health response %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("Expected a generated request id")
	}
}
