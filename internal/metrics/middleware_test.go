package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddlewareRecordsStatusAndRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware())
	router.GET("/pairs/:pair", func(c *gin.Context) {
		c.Status(201)
	})

	req := httptest.NewRequest("GET", "/pairs/BTC-USDT", nil)
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		router.ServeHTTP(rec, req)
	})
	assert.Equal(t, 201, rec.Code)
}

func TestGinMiddlewareFallsBackToActualPathWithoutRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware())

	req := httptest.NewRequest("GET", "/unregistered", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, 404, rec.Code)
}
