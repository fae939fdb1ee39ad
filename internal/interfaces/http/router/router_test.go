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

func text(body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, body)
	}
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	assert.Equal(t, "/api/v2", NewRouter(gin.New(), WithAPIVersion("v2")).BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	a := NewDomainGroup("a", "/a").GET("/ping", text("pong"))
	b := NewDomainGroup("b", "/b").POST("/items", text("created"))
	r.Register(a, b).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/a/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = serve(engine, http.MethodPost, "/api/v1/b/items")
	assert.Equal(t, "created", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/a/ping").Code)
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("test", "/test").
		GET("/items", text("get")).
		POST("/items", text("post")).
		DELETE("/items/:id", text("delete")).
		Handle(http.MethodPut, "/items/:id", text("put"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/test/items", "get"},
		{http.MethodPost, "/api/v1/test/items", "post"},
		{http.MethodDelete, "/api/v1/test/items/1", "delete"},
		{http.MethodPut, "/api/v1/test/items/1", "put"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainGroup_MiddlewareAndSubgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("admin", "/admin").Use(func(c *gin.Context) {
		c.Header("X-Group", "admin")
		c.Next()
	})
	g.Group("cache", "/cache").GET("/status", text("ok"))
	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/admin/cache/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Header().Get("X-Group"))

	assert.Equal(t, "admin", g.Name())
	assert.Equal(t, "/admin", g.Prefix())
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("admin", "/admin").GET("/scheduler", text(""))
	g.Group("cache", "/cache").DELETE("/:key", text(""))
	root := NewDomainGroup("stats", "").GET("/resolve", text(""))

	assert.Equal(t, []RouteInfo{
		{Group: "admin", Method: http.MethodGet, Path: "/api/v1/admin/scheduler"},
		{Group: "cache", Method: http.MethodDelete, Path: "/api/v1/admin/cache/:key"},
	}, g.Routes("/api/v1"))
	assert.Equal(t, []RouteInfo{
		{Group: "stats", Method: http.MethodGet, Path: "/api/v1/resolve"},
	}, root.Routes("/api/v1"))
}
