package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// pingRegistrar registers a single GET route under a prefix
type pingRegistrar struct {
	prefix string
	body   string
}

func (p pingRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET(p.prefix+"/ping", func(c *gin.Context) {
		c.String(http.StatusOK, p.body)
	})
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Register(pingRegistrar{prefix: "/test", body: "pong"})
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v2/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(pingRegistrar{prefix: "/test", body: "pong"})
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterMultipleRegistrars(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Register(pingRegistrar{prefix: "/settlements", body: "settlements"}).
		Register(pingRegistrar{prefix: "/refunds", body: "refunds"})
	r.Setup()

	for _, tt := range []struct {
		path string
		body string
	}{
		{"/api/v1/settlements/ping", "settlements"},
		{"/api/v1/refunds/ping", "refunds"},
	} {
		req := httptest.NewRequest("GET", tt.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tt.body, w.Body.String())
	}
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()

	// A route outside the API group must not see the group middleware
	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-Api-Middleware", "applied")
		c.Next()
	})
	r.Register(pingRegistrar{prefix: "/test", body: "pong"})
	r.Setup()

	apiReq := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
	apiW := httptest.NewRecorder()
	engine.ServeHTTP(apiW, apiReq)
	assert.Equal(t, "applied", apiW.Header().Get("X-Api-Middleware"))

	healthReq := httptest.NewRequest("GET", "/health", nil)
	healthW := httptest.NewRecorder()
	engine.ServeHTTP(healthW, healthReq)
	assert.Equal(t, http.StatusOK, healthW.Code)
	assert.Empty(t, healthW.Header().Get("X-Api-Middleware"))
}
