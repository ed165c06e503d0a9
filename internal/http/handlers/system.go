package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	intconfig "frontend/internal/config"
	"frontend/internal/forms"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "courier web is running"})
}

// Ready checks the draft backends that are connected. Nothing connected
// (memory drafts) is ready.
func Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ok := true
	if intconfig.DB != nil {
		if err := intconfig.DB.PingContext(ctx); err != nil {
			checks["mysql"] = err.Error()
			ok = false
		} else {
			checks["mysql"] = "ok"
		}
	}
	if intconfig.Redis != nil {
		if err := intconfig.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			ok = false
		} else {
			checks["redis"] = "ok"
		}
	}
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// Flows lists the multi-stage forms that can be started.
func Flows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"flows": forms.Names()})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router is not ready"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
