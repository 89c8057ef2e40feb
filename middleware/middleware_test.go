package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		expected   string
	}{
		{"valid bearer token", "Bearer test-token-123", "test-token-123"},
		{"missing bearer prefix", "test-token-123", ""},
		{"empty header", "", ""},
		{"bearer with empty token", "Bearer ", ""},
		{"wrong scheme", "Basic abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractToken(tt.authHeader))
		})
	}
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret")

	token, err := tokens.Issue(42, "ana")
	require.NoError(t, err)

	userID, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	_, err = NewTokens("other-secret").Validate(token)
	assert.Error(t, err)
}

func TestTokensExpire(t *testing.T) {
	tokens := NewTokens("secret")
	issuedAt := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issuedAt }

	token, err := tokens.Issue(7, "bo")
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(TokenTTL + time.Minute) }
	_, err = tokens.Validate(token)
	assert.Error(t, err)
}

func TestTokensRejectNoneAlgorithm(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens("secret").Validate(unsigned)
	assert.Error(t, err)
}

func newAuthRouter(tokens *Tokens, required bool) *gin.Engine {
	r := gin.New()
	r.POST("/things", AuthMiddleware(tokens, required), func(c *gin.Context) {
		id, _ := c.Get(ContextUserID)
		c.JSON(http.StatusOK, gin.H{"user": id})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokens("secret")
	valid, err := tokens.Issue(5, "cy")
	require.NoError(t, err)

	tests := []struct {
		name           string
		required       bool
		authHeader     string
		expectedStatus int
	}{
		{"auth disabled", false, "", http.StatusOK},
		{"missing authorization header", true, "", http.StatusUnauthorized},
		{"invalid authorization format", true, "Token " + valid, http.StatusUnauthorized},
		{"invalid token", true, "Bearer garbage", http.StatusUnauthorized},
		{"valid token", true, "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/things", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			newAuthRouter(tokens, tt.required).ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3)
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "keys are limited independently")

	now = now.Add(21 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "a token refills every 20s at 3/min")
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1)
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(idleLimiterTTL + time.Second)
	rl.Allow("b")
	assert.Len(t, rl.visitors, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimitMiddleware(1), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/reports", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/reports", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/reports/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/9", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
