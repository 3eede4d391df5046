package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rental-marketplace/internal/config"
)

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "test:cache",
		MaxBodyBytes: 1 << 20,
		MaxEntries:   10,
	}
}

// cachedServer counts how often the handler really runs.
func cachedServer(rc *ResponseCache, hits *int) *echo.Echo {
	e := echo.New()
	e.GET("/api/listings", func(c echo.Context) error {
		*hits++
		return c.JSON(http.StatusOK, []echo.Map{{"id": *hits}})
	}, rc.Middleware())
	e.GET("/api/listings/:id", func(c echo.Context) error {
		*hits++
		if c.Param("id") == "404" {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, rc.Middleware())
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func exerciseCache(t *testing.T, rc *ResponseCache) {
	hits := 0
	e := cachedServer(rc, &hits)

	first := get(e, "/api/listings")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get(e, "/api/listings")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, hits)

	// path parameters are part of the key
	assert.JSONEq(t, `{"id":"1"}`, get(e, "/api/listings/1").Body.String())
	assert.JSONEq(t, `{"id":"2"}`, get(e, "/api/listings/2").Body.String())

	// only 200s are stored
	get(e, "/api/listings/404")
	assert.Equal(t, "MISS", get(e, "/api/listings/404").Header().Get("X-Cache"))

	require.NoError(t, rc.Purge(context.Background()))
	before := hits
	third := get(e, "/api/listings")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, before+1, hits)
}

func TestResponseCache_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	exerciseCache(t, NewResponseCache(cacheConfig(), rdb))
}

func TestResponseCache_Redis_PurgeLeavesForeignKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, mr.Set("other:key", "v"))

	rc := NewResponseCache(cacheConfig(), rdb)
	hits := 0
	get(cachedServer(rc, &hits), "/api/listings")
	require.NoError(t, rc.Purge(context.Background()))

	assert.True(t, mr.Exists("other:key"))
	keys, err := rdb.Keys(context.Background(), "test:cache:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestResponseCache_HitCarriesOnlyItsOwnRequestID(t *testing.T) {
	rc := NewResponseCache(cacheConfig(), nil)
	hits := 0
	e := cachedServer(rc, &hits)
	e.Use(echoMw.RequestID())

	first := get(e, "/api/listings")
	second := get(e, "/api/listings")
	require.Equal(t, "HIT", second.Header().Get("X-Cache"))

	ids := second.Header().Values(echo.HeaderXRequestID)
	require.Len(t, ids, 1)
	assert.NotEqual(t, first.Header().Get(echo.HeaderXRequestID), ids[0])
}

func TestResponseCache_InProcess(t *testing.T) {
	exerciseCache(t, NewResponseCache(cacheConfig(), nil))
}

func TestResponseCache_Disabled(t *testing.T) {
	cfg := cacheConfig()
	cfg.Enabled = false
	rc := NewResponseCache(cfg, nil)
	hits := 0
	e := cachedServer(rc, &hits)

	get(e, "/api/listings")
	rec := get(e, "/api/listings")
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, hits)
	assert.NoError(t, rc.Purge(context.Background()))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[]`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `[]`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}
