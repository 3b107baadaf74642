package api

import (
	echo "github.com/labstack/echo/v5"
)

// securityHeaders sets standard response headers — a pure cross-cutting
// concern, no handler-specific semantics.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			return next(c)
		}
	}
}

const (
	ctxKeyTenantID = "tenant_id"
	ctxKeyUserID   = "user_id"
)

// tenantContext resolves the calling tenant and user from request headers
// and stashes them on the echo context for handlers to read. The
// identity/authorization layer itself is an external collaborator
// (SPEC_FULL.md §1) — this middleware only trusts headers a fronting proxy
// (e.g. oauth2-proxy) is assumed to have set and verified; it does not
// itself authenticate the caller.
func tenantContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			tenantID := c.Request().Header.Get("X-Tenant-ID")
			if tenantID == "" {
				tenantID = c.QueryParam("tenant")
			}
			if tenantID == "" {
				return echo.NewHTTPError(401, "missing tenant identity")
			}
			c.Set(ctxKeyTenantID, tenantID)
			c.Set(ctxKeyUserID, extractUserID(c))
			return next(c)
		}
	}
}

// extractUserID: X-Forwarded-User takes priority over X-Forwarded-Email,
// falling back to an empty string (a
// tenant-wide, userless request — valid for chat-ingress traffic that has
// no stable user identity).
func extractUserID(c *echo.Context) string {
	if user := c.Request().Header.Get("X-Forwarded-User"); user != "" {
		return user
	}
	if email := c.Request().Header.Get("X-Forwarded-Email"); email != "" {
		return email
	}
	return ""
}

func tenantFrom(c *echo.Context) string {
	v, _ := c.Get(ctxKeyTenantID).(string)
	return v
}

func userFrom(c *echo.Context) string {
	v, _ := c.Get(ctxKeyUserID).(string)
	return v
}
