package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(buf *bytes.Buffer) *gin.Engine {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(buf)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Logger(log))
	router.GET("/incidents/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestID_KeepsIncomingHeader(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/incidents/1", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "/incidents/:id", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/incidents/1", nil))

	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
