// Package api exposes the resolution pipelines and report parsing over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailsignal/dmarclens/internal/cache"
	"github.com/mailsignal/dmarclens/internal/config"
	"github.com/mailsignal/dmarclens/internal/dmarc"
	"github.com/mailsignal/dmarclens/internal/logger"
	"github.com/mailsignal/dmarclens/internal/resolver"
	"github.com/mailsignal/dmarclens/internal/services"
)

// HostnameService is the hostname resolution pipeline consumed by handlers.
type HostnameService interface {
	Resolve(ctx context.Context, ips []string) map[string]*string
}

// GeoService is the geolocation pipeline consumed by handlers.
type GeoService interface {
	Resolve(ctx context.Context, ips []string) map[string]*resolver.Geo
}

// Handler wires the HTTP surface to the resolution pipelines and the parser.
type Handler struct {
	log       *logger.Logger
	store     cache.Store
	hostnames HostnameService
	geo       GeoService
}

func NewHandler(log *logger.Logger, store cache.Store, hostnames HostnameService, geo GeoService) *Handler {
	return &Handler{
		log:       log.WithComponent("api"),
		store:     store,
		hostnames: hostnames,
		geo:       geo,
	}
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *Handler, log *logger.Logger, cfg config.ServerConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(log))
	if cfg.EnableCORS {
		router.Use(CORSMiddleware())
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit))
	}

	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/resolve-hostnames", h.ResolveHostnames)
		v1.POST("/resolve-geo", h.ResolveGeo)
		v1.POST("/reports", h.ParseReport)
	}

	return router
}

type resolveRequest struct {
	IPs []string `json:"ips" binding:"required"`
}

// ResolveHostnames handles POST /api/v1/resolve-hostnames. Alongside the
// ip→hostname mapping it returns the identified sending service for each
// resolved hostname, since the identifier consumes this pipeline's output.
func (h *Handler) ResolveHostnames(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	results := h.hostnames.Resolve(c.Request.Context(), req.IPs)

	serviceNames := make(map[string]string, len(results))
	for ip, hostname := range results {
		if hostname != nil {
			serviceNames[ip] = services.Identify(*hostname)
		} else {
			serviceNames[ip] = services.Identify("")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"results":  results,
		"services": serviceNames,
	})
}

// ResolveGeo handles POST /api/v1/resolve-geo.
func (h *Handler) ResolveGeo(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	results := h.geo.Resolve(c.Request.Context(), req.IPs)

	c.JSON(http.StatusOK, gin.H{"results": results})
}

type parseReportRequest struct {
	FileName string `json:"fileName"`
	XML      string `json:"xml" binding:"required"`
}

// ParseReport handles POST /api/v1/reports: parse one aggregate report and
// return the model with derived statistics and per-record verdicts. Nothing
// is persisted; statistics are recomputed per call.
func (h *Handler) ParseReport(c *gin.Context) {
	var req parseReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	report, err := dmarc.Parse([]byte(req.XML), req.FileName)
	if err != nil {
		var parseErr *dmarc.ParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    parseErr.Reason,
				"fileName": parseErr.FileName,
			})
			return
		}
		h.log.Errorw("unexpected parse failure", "file", req.FileName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":     report,
		"statistics": dmarc.Calculate(report),
		"verdicts":   dmarc.ClassifyAll(report),
	})
}

// Health handles GET /health, checking cache reachability.
func (h *Handler) Health(c *gin.Context) {
	checks := make(map[string]interface{})
	healthy := true

	if err := h.store.Ping(c.Request.Context()); err != nil {
		healthy = false
		checks["cache"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	} else {
		checks["cache"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}
