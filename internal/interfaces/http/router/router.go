package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// mountPoint groups registrars under a shared path prefix
type mountPoint struct {
	prefix     string
	registrars []RouteRegistrar
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	mounts     []mountPoint
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		mounts:     make([]mountPoint, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds registrars mounted at the versioned API root
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	return r.Mount("", registrars...)
}

// Mount adds registrars under a path prefix below the versioned API root,
// e.g. Mount("/finance", h) places h's routes under /api/v1/finance.
func (r *Router) Mount(prefix string, registrars ...RouteRegistrar) *Router {
	r.mounts = append(r.mounts, mountPoint{prefix: prefix, registrars: registrars})
	return r
}

// Setup registers the health endpoint and all mounted routes
func (r *Router) Setup() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/" + r.apiVersion)
	for _, mount := range r.mounts {
		group := api
		if mount.prefix != "" {
			group = api.Group(mount.prefix)
		}
		for _, registrar := range mount.registrars {
			registrar.RegisterRoutes(group)
		}
	}
}

// Engine returns the underlying gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
