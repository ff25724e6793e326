package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inventrack/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBodyLimitRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.Use(BodyLimit(limit))
	router.POST("/test", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, string(body))
	})
	return router
}

func TestBodyLimit_WithinLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("small body"))
	w := serve(newBodyLimitRouter(1024), req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "small body", w.Body.String())
}

func TestBodyLimit_DeclaredLengthTooLarge(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 200)))
	w := serve(newBodyLimitRouter(100), req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
}

func TestBodyLimit_StreamedBodyTooLarge(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 200)))
	req.ContentLength = -1
	w := serve(newBodyLimitRouter(100), req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "too large", w.Body.String())
}
