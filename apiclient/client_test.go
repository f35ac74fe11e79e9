package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/fnb-console/apiclient"
	"github.com/jrsteele09/fnb-console/oauthmodel"
	"github.com/jrsteele09/fnb-console/token/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	staleToken = "stale-token-0123456789"
	freshToken = "fresh-token-9876543210"
)

// testBackend accepts only freshToken and mints it on /api/refresh/.
type testBackend struct {
	*httptest.Server

	refreshCalls  atomic.Int32
	refreshStatus atomic.Int32
	refreshHold   atomic.Pointer[func()] // runs before the refresh answers
	headers       chan string

	// waveSize makes the first stale requests wait for each other so they fail together.
	waveSize int
	arrived  atomic.Int32
	wave     chan struct{}
	waveOnce sync.Once
}

func newTestBackend(t *testing.T, waveSize int) *testBackend {
	t.Helper()

	b := &testBackend{
		headers:       make(chan string, 100),
		waveSize:      waveSize,
		wave:          make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/refresh/", b.refresh)
	mux.HandleFunc("GET /api/always-expired/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, oauthmodel.ErrorResponse{Detail: oauthmodel.DetailTokenExpired})
	})
	mux.HandleFunc("GET /api/forbidden/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, oauthmodel.ErrorResponse{Detail: "You do not have permission to perform this action."})
	})
	mux.HandleFunc("GET /api/broken/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, oauthmodel.ErrorResponse{Message: "boom"})
	})
	mux.HandleFunc("/api/", b.resource)
	b.refreshStatus.Store(http.StatusOK)
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *testBackend) refresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)
	if hold := b.refreshHold.Load(); hold != nil {
		(*hold)()
	}
	if status := int(b.refreshStatus.Load()); status != http.StatusOK {
		writeJSON(w, status, oauthmodel.ErrorResponse{Detail: oauthmodel.DetailTokenExpired})
		return
	}
	writeJSON(w, http.StatusOK, oauthmodel.RefreshResponse{AccessToken: freshToken})
}

func (b *testBackend) resource(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	b.headers <- auth

	switch {
	case auth == "":
		writeJSON(w, http.StatusUnauthorized, oauthmodel.ErrorResponse{Detail: oauthmodel.DetailCredentialsMissing})
	case strings.HasSuffix(auth, " "+freshToken):
		writeJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path, "scheme": strings.Fields(auth)[0]})
	case r.Header.Get("X-Expired-Status") == "403":
		writeJSON(w, http.StatusForbidden, oauthmodel.ErrorResponse{Detail: oauthmodel.DetailInvalidOrExpired})
	default:
		if b.waveSize > 0 {
			if int(b.arrived.Add(1)) >= b.waveSize {
				b.waveOnce.Do(func() { close(b.wave) })
			}
			select {
			case <-b.wave:
			case <-time.After(time.Second):
			}
		}
		writeJSON(w, http.StatusUnauthorized, oauthmodel.ErrorResponse{Detail: oauthmodel.DetailTokenExpired})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// testSession keeps a token and refreshes it through the backend's refresh endpoint.
type testSession struct {
	lock        sync.Mutex
	token       string
	renewCalls  atomic.Int32
	coordinator *refresh.Coordinator
}

func newTestSession(backendURL, token string) *testSession {
	s := &testSession{token: token}
	bare := apiclient.New(backendURL)
	s.coordinator = refresh.NewCoordinator(func(ctx context.Context) (string, error) {
		resp, err := bare.Post(ctx, "/refresh/", struct{}{})
		if err != nil {
			return "", err
		}
		var body oauthmodel.RefreshResponse
		if err := resp.Decode(&body); err != nil {
			return "", err
		}
		s.setToken(body.AccessToken)
		return body.AccessToken, nil
	}, s.AccessToken)
	return s
}

func (s *testSession) AccessToken() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.token
}

func (s *testSession) setToken(token string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.token = token
}

func (s *testSession) Renew(ctx context.Context, rejected string) (string, error) {
	s.renewCalls.Add(1)
	return s.coordinator.Renew(ctx, rejected)
}

func getAll(t *testing.T, client *apiclient.Client, paths ...string) ([]*apiclient.Response, []error) {
	t.Helper()

	responses := make([]*apiclient.Response, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	wg.Add(len(paths))
	for i, p := range paths {
		go func(i int, p string) {
			defer wg.Done()
			responses[i], errs[i] = client.Get(context.Background(), p, nil)
		}(i, p)
	}
	wg.Wait()
	return responses, errs
}

func TestClient_ConcurrentExpiredRequestsRefreshOnce(t *testing.T) {
	backend := newTestBackend(t, 3)
	session := newTestSession(backend.URL, staleToken)
	client := apiclient.New(backend.URL, apiclient.WithSession(session))

	responses, errs := getAll(t, client, "/restaurants/", "/categories/", "/items/")

	for i, err := range errs {
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, responses[i].StatusCode)
	}
	require.Equal(t, int32(1), backend.refreshCalls.Load())
	require.Equal(t, freshToken, session.AccessToken())

	var body map[string]string
	require.NoError(t, responses[1].Decode(&body))
	require.Equal(t, "/api/categories/", body["path"])

	t.Run("later requests use the new token", func(t *testing.T) {
		_, err := client.Get(context.Background(), "/orders/", nil)
		require.NoError(t, err)
		require.Equal(t, int32(1), backend.refreshCalls.Load())
	})
}

func TestClient_RefreshFailureRejectsWholeWave(t *testing.T) {
	backend := newTestBackend(t, 3)
	backend.refreshStatus.Store(http.StatusBadRequest)
	session := newTestSession(backend.URL, staleToken)
	client := apiclient.New(backend.URL, apiclient.WithSession(session))
	hold := func() {
		deadline := time.Now().Add(time.Second)
		for session.coordinator.Pending() < 3 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}
	backend.refreshHold.Store(&hold)

	_, errs := getAll(t, client, "/restaurants/", "/categories/", "/items/")

	for _, err := range errs {
		var apiErr *apiclient.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.Equal(t, oauthmodel.DetailTokenExpired, apiErr.Detail)
		require.NotEqual(t, "/refresh/", apiErr.Path)
	}
	require.Equal(t, int32(1), backend.refreshCalls.Load())
	backend.refreshHold.Store(nil)

	t.Run("a later expiry refreshes again", func(t *testing.T) {
		backend.refreshStatus.Store(http.StatusOK)
		resp, err := client.Get(context.Background(), "/restaurants/", nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, int32(2), backend.refreshCalls.Load())
		require.Equal(t, freshToken, session.AccessToken())
	})
}

func TestClient_RetriedRequestIsNotRetriedAgain(t *testing.T) {
	backend := newTestBackend(t, 0)
	session := newTestSession(backend.URL, staleToken)
	client := apiclient.New(backend.URL, apiclient.WithSession(session))

	_, err := client.Get(context.Background(), "/always-expired/", nil)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, int32(1), backend.refreshCalls.Load())
	require.Equal(t, int32(1), session.renewCalls.Load())

	t.Run("a request marked retried is never recovered", func(t *testing.T) {
		session.setToken(staleToken)
		req := apiclient.NewRequest(http.MethodGet, "/restaurants/").MarkRetried()
		_, err := client.Do(context.Background(), req)
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, int32(1), session.renewCalls.Load())
	})
}

func TestClient_RefreshEndpointIsNeverRecovered(t *testing.T) {
	backend := newTestBackend(t, 0)
	backend.refreshStatus.Store(http.StatusUnauthorized)
	session := newTestSession(backend.URL, staleToken)
	client := apiclient.New(backend.URL, apiclient.WithSession(session))

	_, err := client.Post(context.Background(), "/refresh/", struct{}{})
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, int32(0), session.renewCalls.Load())
	require.Equal(t, int32(1), backend.refreshCalls.Load())
}

func TestClient_PassThroughFailures(t *testing.T) {
	backend := newTestBackend(t, 0)
	session := newTestSession(backend.URL, freshToken)
	client := apiclient.New(backend.URL, apiclient.WithSession(session))

	t.Run("403 without a token signal", func(t *testing.T) {
		_, err := client.Get(context.Background(), "/forbidden/", nil)
		var apiErr *apiclient.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		require.True(t, apiErr.IsAuthFailure())
		require.Equal(t, int32(0), session.renewCalls.Load())
	})

	t.Run("server error", func(t *testing.T) {
		_, err := client.Get(context.Background(), "/broken/", nil)
		var apiErr *apiclient.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "boom", apiErr.Reason())
		require.Contains(t, apiErr.Error(), "GET /broken/: 500 boom")
	})

	t.Run("transport error", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()
		_, err := apiclient.New(dead.URL, apiclient.WithSession(session)).Get(context.Background(), "/restaurants/", nil)
		var urlErr *url.Error
		require.ErrorAs(t, err, &urlErr)
		require.Equal(t, int32(0), session.renewCalls.Load())
	})
}

func TestClient_ForbiddenWithTokenSignalRecovers(t *testing.T) {
	backend := newTestBackend(t, 0)
	session := newTestSession(backend.URL, staleToken)
	client := apiclient.New(backend.URL, apiclient.WithSession(session))

	req := apiclient.NewRequest(http.MethodGet, "/restaurants/").WithHeader("X-Expired-Status", "403")
	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.False(t, req.Retried(), "the caller's request is not modified")
	require.Equal(t, int32(1), backend.refreshCalls.Load())
}

func TestClient_TokenInjection(t *testing.T) {
	backend := newTestBackend(t, 0)

	t.Run("default bearer scheme", func(t *testing.T) {
		client := apiclient.New(backend.URL, apiclient.WithSession(newTestSession(backend.URL, freshToken)))
		_, err := client.Get(context.Background(), "/restaurants/", nil)
		require.NoError(t, err)
		require.Equal(t, "Bearer "+freshToken, <-backend.headers)
	})

	t.Run("configured scheme", func(t *testing.T) {
		client := apiclient.New(backend.URL,
			apiclient.WithSession(newTestSession(backend.URL, freshToken)),
			apiclient.WithTokenPrefix("Token"))
		_, err := client.Get(context.Background(), "/restaurants/", nil)
		require.NoError(t, err)
		require.Equal(t, "Token "+freshToken, <-backend.headers)
	})

	t.Run("no session sends no header", func(t *testing.T) {
		client := apiclient.New(backend.URL)
		_, err := client.Get(context.Background(), "/restaurants/", nil)
		var apiErr *apiclient.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, oauthmodel.DetailCredentialsMissing, apiErr.Detail)
		require.Equal(t, "", <-backend.headers)
	})
}

func TestClient_Metrics(t *testing.T) {
	backend := newTestBackend(t, 0)
	registry := prometheus.NewRegistry()
	metrics := apiclient.NewMetrics(registry)
	client := apiclient.New(backend.URL,
		apiclient.WithSession(newTestSession(backend.URL, staleToken)),
		apiclient.WithMetrics(metrics),
		apiclient.WithDebug(true))

	_, err := client.Get(context.Background(), "/restaurants/", nil)
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET", "401")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RecoveriesTotal.WithLabelValues(apiclient.OutcomeRecovered)))
}

func TestClient_BaseURL(t *testing.T) {
	require.Equal(t, "http://127.0.0.1:8001/api", apiclient.New("http://127.0.0.1:8001").BaseURL())
	require.Equal(t, "http://127.0.0.1:8001/api", apiclient.New("http://127.0.0.1:8001/").BaseURL())
	require.Equal(t, "http://127.0.0.1:8001/api", apiclient.New("http://127.0.0.1:8001/api/").BaseURL())
}

func TestClient_RequestIDIsStableAcrossReplay(t *testing.T) {
	var ids []string
	var lock sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/refresh/" {
			writeJSON(w, http.StatusOK, oauthmodel.RefreshResponse{AccessToken: freshToken})
			return
		}
		lock.Lock()
		ids = append(ids, r.Header.Get(apiclient.HeaderRequestID))
		calls++
		first := calls == 1
		lock.Unlock()
		if first {
			writeJSON(w, http.StatusUnauthorized, oauthmodel.ErrorResponse{Detail: oauthmodel.DetailTokenExpired})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	client := apiclient.New(srv.URL, apiclient.WithSession(newTestSession(srv.URL, staleToken)))
	_, err := client.Get(context.Background(), "/items/", nil)
	require.NoError(t, err)

	lock.Lock()
	defer lock.Unlock()
	require.Len(t, ids, 2)
	require.NotEmpty(t, ids[0])
	require.Equal(t, ids[0], ids[1])
}

func TestAPIError_IsTokenExpired(t *testing.T) {
	err := &apiclient.APIError{StatusCode: http.StatusUnauthorized, Detail: oauthmodel.DetailInvalidOrExpired}
	require.True(t, err.IsTokenExpired(oauthmodel.ExpiredTokenSignals))
	require.False(t, err.IsTokenExpired([]string{"other"}))

	err.StatusCode = http.StatusBadRequest
	require.False(t, err.IsTokenExpired(oauthmodel.ExpiredTokenSignals))
}
