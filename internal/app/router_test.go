package app

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

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/makolaconnect/makola"
	"github.com/makolaconnect/makola/internal/config"
	"github.com/makolaconnect/makola/middleware"
)

const testPassword = "correct-horse-battery"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	app     *App
	mr      *miniredis.Miniredis
	handler http.Handler
	cookie  *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)

	engineCfg := makola.DefaultConfig()
	engineCfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	engineCfg.Password.Memory = 8 * 1024
	engineCfg.Password.Time = 1
	engineCfg.Password.Parallelism = 1

	cfg := &config.Config{
		Config: engineCfg,
		Server: config.ServerConfig{Addr: ":0", ShutdownTimeout: time.Second},
		Redis:  config.RedisConfig{Addr: mr.Addr()},
		Accounts: []config.SeedAccount{
			{ID: "u-seller", UserType: "seller", Name: "Akosua", Email: "akosua@example.com", Phone: "0244000001", Password: testPassword},
			{ID: "u-buyer", UserType: "buyer", Name: "Yaw", Email: "yaw@example.com", Password: testPassword},
		},
	}

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.close)

	return &testServer{app: a, mr: mr, handler: a.server.Handler}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.ClientCookieName {
			s.cookie = c
		}
	}
	return rec
}

func (s *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	return s.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) login(t *testing.T, identifier, pass string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"identifier": identifier, "password": pass})
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func TestRouterAnonymousRedirects(t *testing.T) {
	s := newTestServer(t)

	rec := s.get(t, "/cart")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, rec.Body.String())
	require.NotNil(t, s.cookie)

	rec = s.get(t, "/sellers")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"view":"sellers"`)
}

func TestRouterSellerFlow(t *testing.T) {
	s := newTestServer(t)
	s.get(t, "/")

	rec := s.login(t, "AKOSUA@example.com", testPassword)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Authenticated bool `json:"authenticated"`
		User          struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	assert.Equal(t, "u-seller", resp.User.ID)
	assert.NotEmpty(t, resp.Token)

	rec = s.get(t, "/seller/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"view":"seller_dashboard"`)

	rec = s.get(t, "/cart")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/seller/dashboard", rec.Header().Get("Location"))

	rec = s.get(t, "/profile")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodPost, "/api/session/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.get(t, "/profile")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRouterLoginByPhone(t *testing.T) {
	s := newTestServer(t)
	rec := s.login(t, "0244000001", testPassword)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterLoginRejected(t *testing.T) {
	s := newTestServer(t)

	rec := s.login(t, "yaw@example.com", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.get(t, "/api/session")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
}

func TestRouterSessionSurvivesRestart(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.login(t, "yaw@example.com", testPassword).Code)
	cookie := s.cookie

	// A fresh process over the same redis restores the client's session.
	s.app.engine.Close()
	restarted := newTestServerOn(t, s.mr)
	restarted.cookie = cookie

	rec := restarted.get(t, "/orders")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u-buyer"`)
}

func newTestServerOn(t *testing.T, mr *miniredis.Miniredis) *testServer {
	t.Helper()
	engineCfg := makola.DefaultConfig()
	engineCfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	engineCfg.Password.Memory = 8 * 1024
	engineCfg.Password.Time = 1
	engineCfg.Password.Parallelism = 1

	a, err := New(context.Background(), &config.Config{
		Config: engineCfg,
		Server: config.ServerConfig{ShutdownTimeout: time.Second},
		Redis:  config.RedisConfig{Addr: mr.Addr()},
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.close)
	return &testServer{app: a, mr: mr, handler: a.server.Handler}
}

func TestRouterMediaUpload(t *testing.T) {
	s := newTestServer(t)

	upload := func() *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("group", "products"))
		fw, err := mw.CreateFormFile("images", "yam.png")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("\x89PNG fake"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/media", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return s.do(t, req)
	}

	rec := upload()
	assert.Equal(t, http.StatusFound, rec.Code)

	require.Equal(t, http.StatusOK, s.login(t, "akosua@example.com", testPassword).Code)
	rec = upload()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		URLs []string `json:"urls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.URLs, 1)
	assert.True(t, strings.HasPrefix(resp.URLs[0], "/media/products/"))

	rec = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/media?url="+resp.URLs[0], nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.get(t, "/cart")
	rec = s.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "makola_")

	s.mr.Close()
	rec = s.get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSeedDirectoryRejectsUnknownRole(t *testing.T) {
	cfg := makola.DefaultConfig().Password
	cfg.Memory = 8 * 1024
	cfg.Time = 1
	cfg.Parallelism = 1

	_, err := SeedDirectory(cfg, []config.SeedAccount{
		{ID: "u-1", UserType: "admin", Email: "a@example.com", Password: testPassword},
	})
	assert.Error(t, err)
}
