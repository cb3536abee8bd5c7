package app

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"

	"meeting-attendance/internal/config"
	"meeting-attendance/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func securityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Referrer-Policy", "no-referrer")

	// Disable caching
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}

// Middleware to check if the IP is allowed.
func IPAccessControl(allowedCIDRs []string) gin.HandlerFunc {
	var parsedCIDRs []*net.IPNet

	// Allow local networks in debug mode
	if os.Getenv("GIN_MODE") != "release" {
		allowedCIDRs = append(allowedCIDRs, "127.0.0.1/8", "::1/128")
	}

	for _, cidr := range allowedCIDRs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("Invalid CIDR", "cidr", cidr)
			continue
		}
		slog.Debug("Allowed CIDR", "cidr", cidr)
		parsedCIDRs = append(parsedCIDRs, ipNet)
	}

	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		if clientIP == nil {
			slog.Warn("Invalid client IP", "ip", c.ClientIP())
			routes.AbortWithError(c, routes.ErrForbidden)
			return
		}

		for _, cidr := range parsedCIDRs {
			if cidr.Contains(clientIP) {
				c.Next()
				return
			}
		}
		slog.Warn("IP not allowed", "ip", clientIP)
		routes.AbortWithError(c, routes.ErrForbidden)
	}
}

// ParseNetworks splits a comma separated CIDR list, dropping empty entries.
func ParseNetworks(networks string) []string {
	var cidrs []string
	for cidr := range strings.SplitSeq(networks, ",") {
		if cidr := strings.TrimSpace(cidr); cidr != "" {
			cidrs = append(cidrs, cidr)
		}
	}
	return cidrs
}

// HTTPServer builds the router serving api.
func HTTPServer(cfg *config.Config, api *routes.API) (*gin.Engine, error) {
	r := gin.Default()

	renderer, err := routes.NewRenderer()
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer

	r.Use(routes.ErrorHandler())
	if cfg.AllowedNetworks != "" {
		slog.Debug("Enabling IP access control", "allowed_networks", cfg.AllowedNetworks)
		r.Use(IPAccessControl(ParseNetworks(cfg.AllowedNetworks)))
	}
	r.Use(securityHeaders)
	r.Use(routes.BaseURL(cfg.BaseURL))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) {
		routes.AbortWithHTTPError(c, http.StatusNotFound, nil, "Page not found", "NOT_FOUND")
	})

	api.Register(r)
	return r, nil
}
