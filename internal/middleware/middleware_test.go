package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newLimitedEngine(config RateLimiterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(NewRateLimiter(config).RateLimit())
	engine.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func doPing(engine *gin.Engine, actorID string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if actorID != "" {
		req.Header.Set(HeaderActorID, actorID)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitIsPerActor(t *testing.T) {
	engine := newLimitedEngine(RateLimiterConfig{Rate: rate.Limit(0.001), Burst: 1})

	first := uuid.New().String()
	second := uuid.New().String()

	assert.Equal(t, http.StatusOK, doPing(engine, first))
	assert.Equal(t, http.StatusTooManyRequests, doPing(engine, first))

	// a different caller has its own budget
	assert.Equal(t, http.StatusOK, doPing(engine, second))
}

func TestRateLimitKeysAnonymousTrafficByIP(t *testing.T) {
	engine := newLimitedEngine(RateLimiterConfig{Rate: rate.Limit(0.001), Burst: 1})

	assert.Equal(t, http.StatusOK, doPing(engine, ""))
	assert.Equal(t, http.StatusTooManyRequests, doPing(engine, ""))
}

func TestRequestIDReplacesMalformedInboundID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "not-a-uuid")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	echoed := rec.Header().Get(HeaderXRequestID)
	require.NotEmpty(t, echoed)
	assert.NotEqual(t, "not-a-uuid", echoed)
	_, err := uuid.Parse(echoed)
	assert.NoError(t, err)

	inbound := uuid.New().String()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, inbound)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, inbound, rec.Header().Get(HeaderXRequestID))
}
