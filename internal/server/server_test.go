package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"newsletter_dashboard/internal/backend"
	"newsletter_dashboard/internal/dashboard"
	"newsletter_dashboard/internal/loader"
	"newsletter_dashboard/internal/metrics"
	"newsletter_dashboard/internal/middleware"
	"newsletter_dashboard/internal/server"

	"github.com/stretchr/testify/require"
)

const newslettersJSON = `[
	{"id":"1","name":"Stratechery","author":"Ben Thompson","category":"Tech","paid":true,"cost":10,"engagement":0.3},
	{"id":"2","name":"Money Stuff","author":"Matt Levine","category":"Finance","paid":true,"cost":5,"engagement":0.6},
	{"id":"3","name":"TLDR","author":"Dan Ni","category":"Tech","paid":false,"cost":0,"engagement":0.9}
]`

const recommendationsJSON = `[
	{"id":"r1","name":"Lenny's Newsletter","author":"Lenny Rachitsky","category":"Product","description":"Product advice","price":15,"matchScore":0.92,"subscribers":600000,"url":"https://example.com/lenny"}
]`

type fakeBackend struct {
	mu              sync.Mutex
	failNewsletters bool
	failDeletes     bool
	deleted         []string
	recommendations string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/newsletters", func(w http.ResponseWriter, r *http.Request) {
		if f.failNewsletters {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(newslettersJSON))
	})
	mux.HandleFunc("GET /api/recommendations", func(w http.ResponseWriter, r *http.Request) {
		if f.recommendations != "" {
			w.Write([]byte(f.recommendations))
			return
		}
		w.Write([]byte(recommendationsJSON))
	})
	mux.HandleFunc("DELETE /api/newsletters/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failDeletes {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		f.deleted = append(f.deleted, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/newsletters", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = 4
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	})
	return mux
}

func setup(t *testing.T, f *fakeBackend, load bool) http.Handler {
	t.Helper()
	backendSrv := httptest.NewServer(f.handler())
	t.Cleanup(backendSrv.Close)

	m := metrics.New()
	session := loader.NewSession(backend.NewClient(backendSrv.URL, time.Second), m)
	if load {
		session.Load(context.Background())
	}
	return server.NewServer(session, m, middleware.NewRateLimiter(100, 100)).Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) dashboard.View {
	t.Helper()
	var v dashboard.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestGetDashboard(t *testing.T) {
	h := setup(t, &fakeBackend{}, true)

	t.Run("full view", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/dashboard", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		require.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

		v := decodeView(t, w)
		require.Equal(t, "ready", v.Status)
		require.False(t, v.Loading)
		require.Len(t, v.Newsletters, 3)
		require.InDelta(t, 15.0, v.Metrics.TotalSpend, 1e-9)
		require.Equal(t, 1, v.Metrics.LowEngagementPaid)
		require.Equal(t, 1, v.Metrics.HighEngagementFree)
		require.Len(t, v.Recommendations, 1)
		require.Equal(t, 92, v.Recommendations[0].MatchPercent)
	})

	t.Run("search narrows rows but not metrics", func(t *testing.T) {
		v := decodeView(t, do(t, h, http.MethodGet, "/api/dashboard?s=THOMPSON", ""))
		require.Len(t, v.Newsletters, 1)
		require.Equal(t, "Stratechery", v.Newsletters[0].Name)
		require.InDelta(t, 15.0, v.Metrics.TotalSpend, 1e-9)
	})
}

func TestGetDashboard_NotLoaded(t *testing.T) {
	h := setup(t, &fakeBackend{}, false)
	w := do(t, h, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "not_loaded", decodeView(t, w).Status)

	require.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestGetDashboard_FetchFailureIsVisible(t *testing.T) {
	h := setup(t, &fakeBackend{failNewsletters: true}, true)

	w := do(t, h, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	require.Equal(t, "errored", v.Status)
	require.False(t, v.Loading)
	require.Len(t, v.Errors, 1)
	require.Equal(t, loader.CollectionNewsletters, v.Errors[0].Collection)
	// recommendations loaded on their own
	require.Len(t, v.Recommendations, 1)

	page := do(t, h, http.MethodGet, "/", "")
	require.Contains(t, page.Body.String(), "Could not load newsletters")

	require.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestDeleteNewsletter(t *testing.T) {
	t.Run("confirmed delete removes the row", func(t *testing.T) {
		f := &fakeBackend{}
		h := setup(t, f, true)

		w := do(t, h, http.MethodDelete, "/api/newsletters/2", "")
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, []string{"2"}, f.deleted)

		v := decodeView(t, do(t, h, http.MethodGet, "/api/dashboard", ""))
		require.Len(t, v.Newsletters, 2)
		require.InDelta(t, 10.0, v.Metrics.TotalSpend, 1e-9)
	})

	t.Run("rejected delete keeps the row", func(t *testing.T) {
		h := setup(t, &fakeBackend{failDeletes: true}, true)

		w := do(t, h, http.MethodDelete, "/api/newsletters/2", "")
		require.Equal(t, http.StatusBadGateway, w.Code)

		v := decodeView(t, do(t, h, http.MethodGet, "/api/dashboard", ""))
		require.Len(t, v.Newsletters, 3)
	})
}

func TestAddNewsletter(t *testing.T) {
	h := setup(t, &fakeBackend{}, true)

	t.Run("valid form", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/api/newsletters",
			`{"name":"The Diff","author":"Byrne Hobart","category":"Finance","paid":true,"cost":20,"engagement":0.7}`)
		require.Equal(t, http.StatusCreated, w.Code)
		require.Contains(t, w.Body.String(), `"id":"4"`)

		v := decodeView(t, do(t, h, http.MethodGet, "/api/dashboard", ""))
		require.Len(t, v.Newsletters, 4)
		require.InDelta(t, 35.0, v.Metrics.TotalSpend, 1e-9)
	})

	t.Run("invalid form", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/api/newsletters", `{"name":"","author":"x"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/api/newsletters", `{`)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSetSearch(t *testing.T) {
	h := setup(t, &fakeBackend{}, true)

	w := do(t, h, http.MethodPut, "/api/search", `{"term":"levine"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeView(t, w).Newsletters, 1)

	v := decodeView(t, do(t, h, http.MethodGet, "/api/dashboard", ""))
	require.Equal(t, "levine", v.Search)
	require.Len(t, v.Newsletters, 1)
}

func TestGetPage(t *testing.T) {
	h := setup(t, &fakeBackend{}, true)

	w := do(t, h, http.MethodGet, "/?s=tldr", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "$15.00")
	require.Contains(t, body, "TLDR")
	require.NotContains(t, body, "Money Stuff")
	require.Contains(t, body, "92% match")
	require.Contains(t, body, "600,000 subscribers")
	require.Contains(t, body, "$15/mo")
	require.Contains(t, body, `action="/newsletters/3/delete"`)
	require.NotContains(t, body, `action="/newsletters/2/delete"`)
	require.Contains(t, body, `action="/newsletters"`)
	require.Contains(t, body, "Add Newsletter")
}

func TestGetPage_HidesZeroPriceAndSubscribers(t *testing.T) {
	h := setup(t, &fakeBackend{
		recommendations: `[{"id":"r2","name":"Free Pick","author":"Someone","category":"Tech","description":"","price":0,"matchScore":0.5,"subscribers":0}]`,
	}, true)

	body := do(t, h, http.MethodGet, "/", "").Body.String()
	require.Contains(t, body, "Free Pick")
	require.NotContains(t, body, "$0/mo")
	require.NotContains(t, body, "subscribers</div>")
}

func TestPageForms(t *testing.T) {
	t.Run("add redirects to the page", func(t *testing.T) {
		h := setup(t, &fakeBackend{}, true)

		w := postForm(t, h, "/newsletters", url.Values{
			"name": {"The Diff"}, "author": {"Byrne Hobart"}, "category": {"Finance"},
			"paid": {"true"}, "cost": {"20"}, "engagement": {"0.7"},
		})
		require.Equal(t, http.StatusSeeOther, w.Code)
		require.Equal(t, "/", w.Header().Get("Location"))

		v := decodeView(t, do(t, h, http.MethodGet, "/api/dashboard", ""))
		require.Len(t, v.Newsletters, 4)
		require.InDelta(t, 35.0, v.Metrics.TotalSpend, 1e-9)
	})

	t.Run("add rejects invalid input", func(t *testing.T) {
		h := setup(t, &fakeBackend{}, true)

		require.Equal(t, http.StatusBadRequest,
			postForm(t, h, "/newsletters", url.Values{"author": {"x"}}).Code)
		require.Equal(t, http.StatusBadRequest,
			postForm(t, h, "/newsletters", url.Values{"name": {"x"}, "author": {"y"}, "cost": {"lots"}}).Code)
		require.Len(t, decodeView(t, do(t, h, http.MethodGet, "/api/dashboard", "")).Newsletters, 3)
	})

	t.Run("delete redirects to the page", func(t *testing.T) {
		f := &fakeBackend{}
		h := setup(t, f, true)

		w := postForm(t, h, "/newsletters/2/delete", nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		require.Equal(t, []string{"2"}, f.deleted)
		require.NotContains(t, do(t, h, http.MethodGet, "/", "").Body.String(), "Money Stuff")
	})

	t.Run("rejected delete keeps the row", func(t *testing.T) {
		h := setup(t, &fakeBackend{failDeletes: true}, true)

		require.Equal(t, http.StatusBadGateway, postForm(t, h, "/newsletters/2/delete", nil).Code)
		require.Contains(t, do(t, h, http.MethodGet, "/", "").Body.String(), "Money Stuff")
	})
}

func TestHealthAndMetrics(t *testing.T) {
	h := setup(t, &fakeBackend{}, true)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "dashboard_load_duration_seconds")
}

func TestRoutesWithoutMetrics(t *testing.T) {
	backendSrv := httptest.NewServer((&fakeBackend{}).handler())
	t.Cleanup(backendSrv.Close)

	session := loader.NewSession(backend.NewClient(backendSrv.URL, time.Second), nil)
	require.NoError(t, session.Load(context.Background()))
	h := server.NewServer(session, nil, middleware.NewRateLimiter(100, 100)).Routes()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", "").Code)
}
