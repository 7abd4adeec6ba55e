package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"chatdesk-go/internal/metrics"

	"github.com/gin-gonic/gin"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRequestLogger_RecordsRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.DELETE("/documents/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	counter := metrics.HTTPRequests.WithLabelValues("/documents/:id", http.MethodDelete, "204")
	before := promtest.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
	assert.Equal(t, before+2, promtest.ToFloat64(counter))

	unmatched := metrics.HTTPRequests.WithLabelValues("unmatched", http.MethodGet, "404")
	before = promtest.ToFloat64(unmatched)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, before+1, promtest.ToFloat64(unmatched))
}
