package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterMetrics()
	RegisterMetrics()

	router := gin.New()
	router.Use(Metrics())
	router.GET("/goals/:id", func(c *gin.Context) {
		c.Status(204)
	})

	before := testutil.ToFloat64(requestCount.WithLabelValues("204", "GET", "/goals/:id"))
	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/goals/"+id, nil))
	}
	after := testutil.ToFloat64(requestCount.WithLabelValues("204", "GET", "/goals/:id"))
	assert.Equal(t, float64(3), after-before)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(requestCount.WithLabelValues("404", "GET", "unmatched")))
}
