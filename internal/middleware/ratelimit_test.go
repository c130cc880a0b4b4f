package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankas-app/tankas-api/internal/models"
)

func limitedRouter(client *redis.Client, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user := c.GetHeader("X-Test-User"); user != "" {
			c.Set(ContextUserKey, &models.JWTClaims{Username: user})
		}
		c.Next()
	})
	r.POST("/issues", RateLimit(client, RateLimitConfig{Limit: limit, Window: time.Hour, Prefix: "ratelimit:issues"}, nil), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func post(r *gin.Engine, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/issues", nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	router := limitedRouter(client, 2)

	assert.Equal(t, http.StatusCreated, post(router, "alice").Code)
	assert.Equal(t, http.StatusCreated, post(router, "alice").Code)

	rec := post(router, "alice")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)
	assert.EqualValues(t, 3600, body.Meta["retry_after"])

	assert.Equal(t, http.StatusCreated, post(router, "bob").Code)

	mr.FastForward(time.Hour + time.Second)
	assert.Equal(t, http.StatusCreated, post(router, "alice").Code)
}

func TestRateLimitRequiresUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	assert.Equal(t, http.StatusUnauthorized, post(limitedRouter(client, 1), "").Code)
}

func TestRateLimitPassThrough(t *testing.T) {
	router := limitedRouter(nil, 1)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusCreated, post(router, "alice").Code)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()
	assert.Equal(t, http.StatusCreated, post(limitedRouter(client, 1), "alice").Code)
}
