package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"csvpilot/internal/config"
	"csvpilot/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoCompleter stands in for the AI service
type echoCompleter struct {
	out string
}

func (e echoCompleter) Analyze(ctx context.Context, preview string, columns []string) (string, error) {
	return e.out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "8080",
			Environment: "test",
			BaseURL:     "http://localhost:8080",
		},
		Quota: config.QuotaConfig{
			FreeRunLimit:      1,
			FreeWindowSeconds: 3600,
			CreditsPerPack:    10,
			CreditsPackPrice:  9,
			OneTimePrice:      29,
		},
		Session: config.SessionConfig{
			Secret: "test-secret",
			TTL:    time.Hour,
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(testConfig(), session.NewMemoryStore(), echoCompleter{out: "# Analysis\n\nLooks clean."}, nil)
}

func csvUpload(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "data.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

// do runs a request, carrying the visitor cookie across calls
func do(srv *Server, req *http.Request, cookie *http.Cookie) (*httptest.ResponseRecorder, *http.Cookie) {
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	return rec, cookie
}

func TestUploadRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := csvUpload(t, "a,b,c\n1,2,3\n")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec, _ := do(srv, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Looks clean.")
	assert.Contains(t, rec.Body.String(), "data.csv")
}

func TestUploadDeniedOverQuota(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := csvUpload(t, "a,b,c\n1,2,3\n")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec, cookie := do(srv, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, cookie)

	// Same visitor, free run already spent
	body, contentType = csvUpload(t, "a,b,c\n4,5,6\n")
	req = httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec, _ = do(srv, req, cookie)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?limit=1", rec.Header().Get("Location"))
}

func TestUploadEmptyFile(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := csvUpload(t, "")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec, _ := do(srv, req, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty")
}

func TestUploadWithoutFile(t *testing.T) {
	srv := newTestServer(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec, _ := do(srv, req, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthSnapshot(t *testing.T) {
	srv := newTestServer(t)

	rec, cookie := do(srv, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, cookie)

	var snapshot struct {
		OK                bool `json:"ok"`
		Pro               bool `json:"pro"`
		Credits           int  `json:"credits"`
		RemainingFreeRuns int  `json:"remaining_free_runs"`
		FreeWindowSeconds int  `json:"free_window_seconds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))

	assert.True(t, snapshot.OK)
	assert.False(t, snapshot.Pro)
	assert.Equal(t, 0, snapshot.Credits)
	assert.Equal(t, 1, snapshot.RemainingFreeRuns)
	assert.Equal(t, 3600, snapshot.FreeWindowSeconds)
}

func TestGrantOnSuccessRedirect(t *testing.T) {
	srv := newTestServer(t)

	rec, cookie := do(srv, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, cookie = do(srv, httptest.NewRequest(http.MethodGet, "/?success=1&plan=credits10", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, cookie = do(srv, httptest.NewRequest(http.MethodGet, "/health", nil), cookie)
	var snapshot struct {
		Credits int `json:"credits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, 10, snapshot.Credits)

	// Replayed redirect grants the pack again
	rec, cookie = do(srv, httptest.NewRequest(http.MethodGet, "/?success=1&plan=credits10", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(srv, httptest.NewRequest(http.MethodGet, "/health", nil), cookie)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, 20, snapshot.Credits)
}

func TestGrantOneTimeSetsPro(t *testing.T) {
	srv := newTestServer(t)

	rec, cookie := do(srv, httptest.NewRequest(http.MethodGet, "/?success=1&plan=one_time", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(srv, httptest.NewRequest(http.MethodGet, "/health", nil), cookie)
	var snapshot struct {
		Pro bool `json:"pro"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.True(t, snapshot.Pro)
}

func TestGrantIgnoresUnknownPlan(t *testing.T) {
	srv := newTestServer(t)

	rec, cookie := do(srv, httptest.NewRequest(http.MethodGet, "/?success=1&plan=bogus", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(srv, httptest.NewRequest(http.MethodGet, "/health", nil), cookie)
	var snapshot struct {
		Pro     bool `json:"pro"`
		Credits int  `json:"credits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.False(t, snapshot.Pro)
	assert.Equal(t, 0, snapshot.Credits)
}

func TestProUploadsAreUnlimited(t *testing.T) {
	srv := newTestServer(t)

	rec, cookie := do(srv, httptest.NewRequest(http.MethodGet, "/?success=1&plan=one_time", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for i := 0; i < 5; i++ {
		body, contentType := csvUpload(t, "a,b,c\n1,2,3\n")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec, cookie = do(srv, req, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCheckoutUnknownPlan(t *testing.T) {
	srv := newTestServer(t)

	form := strings.NewReader("plan=bogus")
	req := httptest.NewRequest(http.MethodPost, "/create-checkout-session", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec, _ := do(srv, req, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown plan")
}

func TestCheckoutWithoutStripeConfigured(t *testing.T) {
	srv := newTestServer(t)

	form := strings.NewReader("plan=credits10")
	req := httptest.NewRequest(http.MethodPost, "/create-checkout-session", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec, _ := do(srv, req, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookWithoutSecret(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}"))
	rec, _ := do(srv, req, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
