package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTimeout_SetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(50 * time.Millisecond))

	var hasDeadline bool
	r.GET("/t", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))

	if !hasDeadline {
		t.Fatal("expected request context to carry a deadline")
	}
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestTimeout_ZeroIsPassthrough(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(0))

	var hasDeadline bool
	r.GET("/t", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/t", nil))

	if hasDeadline {
		t.Fatal("expected no deadline when timeout is zero")
	}
}

func TestTimeout_ExpiresDuringHandler(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))

	var ctxErr error
	r.GET("/t", func(c *gin.Context) {
		<-c.Request.Context().Done()
		ctxErr = c.Request.Context().Err()
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/t", nil))

	if ctxErr == nil {
		t.Fatal("expected context error after deadline")
	}
}
