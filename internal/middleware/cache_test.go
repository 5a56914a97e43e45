package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesalibre/mesalibre/internal/config"
)

func cacheTestServer(t *testing.T, rdb *redis.Client) (*echo.Echo, *atomic.Int32) {
	t.Helper()
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "cache",
	}
	var hits atomic.Int32
	e := echo.New()
	e.GET("/venues", func(c echo.Context) error {
		hits.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"n": hits.Load()})
	}, NewRedisCache(cfg, rdb))
	return e, &hits
}

func TestCacheHitServesStoredResponse(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e, hits := cacheTestServer(t, rdb)

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/venues", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/venues", nil))
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, hits.Load())
}

func TestCacheDistinguishesQueryStrings(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e, hits := cacheTestServer(t, rdb)

	for _, target := range []string{"/venues?q=bar", "/venues?q=cafe"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	}
	assert.EqualValues(t, 2, hits.Load())
}

func TestCacheInvalidatorPurgesRoute(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "cache",
	}
	var hits atomic.Int32
	e := echo.New()
	e.GET("/venues", func(c echo.Context) error {
		hits.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"n": hits.Load()})
	}, NewRedisCache(cfg, rdb))
	e.GET("/types", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}, NewRedisCache(cfg, rdb))

	// Warm both routes, query variants included.
	for _, target := range []string{"/venues", "/venues?q=bar", "/types"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	}
	assert.EqualValues(t, 2, hits.Load())

	inv := NewCacheInvalidator(cfg, rdb)
	require.NoError(t, inv.PurgeRoutes(context.Background(), "/venues"))

	// Every /venues variant is gone; /types survives.
	for _, target := range []string{"/venues", "/venues?q=bar"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), target)
	}
	assert.EqualValues(t, 4, hits.Load())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/types", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestCacheInvalidatorNoopWithoutRedis(t *testing.T) {
	var inv *CacheInvalidator
	assert.NoError(t, inv.PurgeRoutes(context.Background(), "/venues"))
	assert.NoError(t, NewCacheInvalidator(config.CacheConfig{}, nil).PurgeRoutes(context.Background(), "/venues"))
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	e, hits := cacheTestServer(t, nil)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/venues", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.EqualValues(t, 2, hits.Load())
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
	e := echo.New()
	e.GET("/limited", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NewTokenBucket(cfg, rdb))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limited", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
