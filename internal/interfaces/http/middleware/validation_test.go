package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inventrack/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemPayload struct {
	Name     string `json:"name" binding:"required,notblank,max=10"`
	Quantity int    `json:"quantity" binding:"min=0"`
	Kind     string `json:"kind" binding:"omitempty,oneof=a b"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req itemPayload
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func postJSON(router http.Handler, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(router, req)
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	w, resp := postJSON(newValidationRouter(), `{"name":"   ","quantity":-1,"kind":"z"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	messages := map[string]string{}
	for _, d := range resp.Error.Details {
		messages[d.Field] = d.Message
	}
	assert.Equal(t, "Must not be blank", messages["name"])
	assert.Equal(t, "Must be at least 0", messages["quantity"])
	assert.Equal(t, "Must be one of: a b", messages["kind"])
}

func TestHandleValidationError_StringLength(t *testing.T) {
	_, resp := postJSON(newValidationRouter(), `{"name":"far too long a name"}`)

	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "Must be at most 10 characters", resp.Error.Details[0].Message)
}

func TestHandleValidationError_MalformedBody(t *testing.T) {
	w, resp := postJSON(newValidationRouter(), `{"name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
}

func TestHandleValidationError_ValidPayload(t *testing.T) {
	w, resp := postJSON(newValidationRouter(), `{"name":"Widget","quantity":3}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}
