package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("panic becomes a structured 500 naming the entity", func(t *testing.T) {
		router := gin.New()
		router.Use(ErrorHandler())
		router.GET("/appointments/:id", func(c *gin.Context) {
			panic("boom")
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/appointments/appt-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Internal Server Error", resp.Message)
		assert.Equal(t, "appt-1", resp.EntityID)
	})

	t.Run("healthy requests pass through untouched", func(t *testing.T) {
		router := gin.New()
		router.Use(ErrorHandler())
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestJSONError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/withdraws/wd-9/resolve", nil)
	c.Params = gin.Params{{Key: "id", Value: "wd-9"}}

	JSONError(c, http.StatusConflict, "Already resolved", "withdraw was resolved earlier")

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Already resolved", resp.Message)
	assert.Equal(t, "wd-9", resp.EntityID)
}
