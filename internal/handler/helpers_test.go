package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tankas-app/tankas-api/internal/middleware"
	"github.com/tankas-app/tankas-api/internal/models"
)

func newContext(method, target string, body io.Reader, username string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, body)
	c.Request = req
	if username != "" {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: username})
	}
	return c, w
}

func jsonContext(method, target, body, username string) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := newContext(method, target, bytes.NewBufferString(body), username)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func multipartContext(t *testing.T, target string, fields map[string]string, picture []byte, username string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if picture != nil {
		part, err := writer.CreateFormFile("picture", "photo.jpg")
		require.NoError(t, err)
		_, err = part.Write(picture)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	c, w := newContext(http.MethodPost, target, &buf, username)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeEnvelope(t, w)
	errBody, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	code, _ := errBody["code"].(string)
	return code
}
