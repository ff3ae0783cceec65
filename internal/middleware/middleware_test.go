package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/experiencias-arroyo/sierra-explora/internal/config"
	"github.com/experiencias-arroyo/sierra-explora/internal/logging"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
	"github.com/experiencias-arroyo/sierra-explora/internal/utils"
)

const secret = "test-secret"

func whoami(c echo.Context) error {
	id, _ := CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": CurrentRole(c), "name": CurrentName(c)})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))
	tok, err := utils.NewAccessToken(secret, 7, model.RoleUser, "Lucía", 5)
	require.NoError(t, err)

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
		rec := serve(e, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":7,"role":"USER","name":"Lucía"}`, rec.Body.String())
	})

	t.Run("query parameter", func(t *testing.T) {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/me?access_token="+tok.Token, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me?access_token="+tok.Token, nil)
		req.Header.Set(echo.HeaderAuthorization, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		other, err := utils.NewAccessToken("other", 7, model.RoleUser, "", 5)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+other.Token)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(secret), RequireRole(model.RoleAdmin))

	for role, want := range map[string]int{model.RoleAdmin: http.StatusOK, model.RoleUser: http.StatusForbidden} {
		tok, err := utils.NewAccessToken(secret, 1, role, "", 5)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
		assert.Equal(t, want, serve(e, req).Code, role)
	}
}

func TestRequestLoggerAssignsID(t *testing.T) {
	e := echo.New()
	var seen string
	e.Use(RequestLogger(logging.Discard()))
	e.GET("/ping", func(c echo.Context) error {
		seen, _ = logging.FromContext(c.Request().Context()).Data["request_id"].(string)
		return c.NoContent(http.StatusNoContent)
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := rec.Header().Get(echo.HeaderXRequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	given := uuid.NewString()
	req.Header.Set(echo.HeaderXRequestID, given)
	assert.Equal(t, given, serve(e, req).Header().Get(echo.HeaderXRequestID))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/reservations")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}
	assert.Equal(t, "rl:user:anon:route:POST /reservations", buildRateKey(cfg, c))

	c.Set(KeyUserID, uint64(9))
	assert.Equal(t, "rl:user:9:route:POST /reservations", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(cfg, c))
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	e := echo.New()
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil), rc.Middleware())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, rc.Purge(context.Background()))
}

func TestCacheKeyIncludesPathParams(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "catalog", KeyStrategy: "route_query"}
	key := func(id string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/bookables/"+id, nil), httptest.NewRecorder())
		c.SetPath("/bookables/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		return cacheKeyFrom(cfg, c)
	}
	assert.NotEqual(t, key("1"), key("2"))
	assert.Equal(t, key("1"), key("1"))
	assert.Regexp(t, `^catalog:[0-9a-f]{40}$`, key("1"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestCaptureWriterLimit(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.truncated())
	_, _ = cw.Write([]byte("de"))
	assert.True(t, cw.truncated())
	assert.Equal(t, "abc", cw.buf.String())
}
