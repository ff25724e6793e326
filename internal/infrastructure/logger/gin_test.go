package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, logs := observed()

	var handlerRequestID string
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(GinRequestIDKey, "req-42")
		c.Set(GinUserIDKey, "user-a")
		c.Next()
	})
	router.Use(GinMiddleware(l))
	router.GET("/api/v1/items/:id", func(c *gin.Context) {
		handlerRequestID = GetRequestID(c.Request.Context())
		GetGinLogger(c).Info("handler")
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items/abc?verbose=1", nil))

	assert.Equal(t, "req-42", handlerRequestID)
	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])

	entry := entries[1]
	assert.Equal(t, "HTTP request", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.Equal(t, "/api/v1/items/:id", fields["route"])
	assert.Equal(t, "user-a", fields["user_id"])
	assert.Equal(t, "verbose=1", fields["query"])
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		l, logs := observed()
		router := gin.New()
		router.Use(GinMiddleware(l))
		router.GET("/", func(c *gin.Context) { c.Status(tt.status) })

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, tt.level, logs.All()[0].Level, "status %d", tt.status)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, logs := observed()

	router := gin.New()
	router.Use(Recovery(l))
	router.GET("/panic", func(c *gin.Context) { panic("ledger exploded") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"UNKNOWN","message":"Internal server error"}}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
}

func TestGetGinLogger_NotSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
