package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"digitbot/internal/models"
	auth "digitbot/internal/modules/auth/service"
	"digitbot/internal/modules/config"
	history "digitbot/internal/modules/history/service"
	strategy "digitbot/internal/modules/strategy/service"
	"digitbot/internal/runner"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopSink struct{}

func (nopSink) Publish(context.Context, string, models.Signal) error { return nil }

type testEnv struct {
	e       *echo.Echo
	reg     *auth.MemoryRegistry
	history *history.History
	manager *runner.Manager
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	reg := auth.NewMemoryRegistry()
	h := history.New(100, 5)
	f := strategy.NewFactory(cfg)
	m := runner.NewManager(reg, f, h, nopSink{}, zap.NewNop(), runner.Options{Cadence: time.Hour, MinHistory: 2})
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	e := NewEcho(NewHandler(cfg, reg, h, f, m, zap.NewNop()), zap.NewNop())
	return &testEnv{e: e, reg: reg, history: h, manager: m}
}

func (env *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAuthRedirect(t *testing.T) {
	env := newEnv(t)
	rec := env.do(http.MethodGet, "/auth", "")

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	u, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "oauth.deriv.com", u.Host)
	assert.Equal(t, "1089", u.Query().Get("app_id"))
	assert.Equal(t, "token", u.Query().Get("response_type"))
}

func TestAuthCallback(t *testing.T) {
	env := newEnv(t)

	rec := env.do(http.MethodGet, "/auth/callback", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/auth/callback?acct1=CR1&token1=a1-xyz", "")
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "http://localhost:3000/dashboard", rec.Header().Get(echo.HeaderLocation))

	ok, _ := env.reg.IsAuthorized(context.Background(), "a1-xyz")
	assert.True(t, ok)

	// тот же клиент с новым токеном — старый отзывается
	env.do(http.MethodGet, "/auth/callback?access_token=a1-new", "")
	ok, _ = env.reg.IsAuthorized(context.Background(), "a1-xyz")
	assert.False(t, ok)
}

func TestData(t *testing.T) {
	env := newEnv(t)

	out := decode(t, env.do(http.MethodGet, "/data", ""))
	assert.Nil(t, out["last_digit"])
	assert.Empty(t, out["digit_history"])
	assert.Len(t, out["bots"], 5)

	for _, d := range []models.Digit{1, 2, 3, 4, 5, 6, 7} {
		require.NoError(t, env.history.Append(d))
	}
	out = decode(t, env.do(http.MethodGet, "/data", ""))
	assert.EqualValues(t, 7, out["last_digit"])
	assert.Equal(t, []any{3.0, 4.0, 5.0, 6.0, 7.0}, out["digit_history"])
	assert.EqualValues(t, 0, out["balance"])
}

func TestStartStopBot(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.reg.Issue(context.Background(), "10.1.2.3", "tok-1234"))

	rec := env.do(http.MethodPost, "/start-bot", `{"token":"nope","bot_name":"Twin Digit"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/start-bot", `{"token":"tok-1234","bot_name":"Martingale"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/start-bot", `{"token":"tok-1234"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/start-bot", `{"token":"tok-1234","bot_name":"Twin Digit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bot Twin Digit started", decode(t, rec)["status"])
	assert.Equal(t, 1, env.manager.ActiveCount())

	bots := decode(t, env.do(http.MethodGet, "/bots", ""))["bots"].([]any)
	require.Len(t, bots, 1)
	assert.Equal(t, "****1234", bots[0].(map[string]any)["token"])

	rec = env.do(http.MethodPost, "/stop-bot", `{"token":"tok-1234"}`)
	assert.Equal(t, "Bot stopped", decode(t, rec)["status"])

	rec = env.do(http.MethodPost, "/stop-bot", `{"token":"tok-1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No active bot", decode(t, rec)["status"])
}
