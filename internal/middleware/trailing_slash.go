// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// StripTrailingSlash rewrites /api/workshops/ to /api/workshops before
// routing. The path is rewritten in place instead of redirected so POST and
// PATCH bodies survive.
func StripTrailingSlash() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if path != "/" && strings.HasSuffix(path, "/") {
				req.URL.Path = strings.TrimRight(path, "/")
				if req.URL.Path == "" {
					req.URL.Path = "/"
				}
				if req.URL.RawPath != "" {
					req.URL.RawPath = strings.TrimRight(req.URL.RawPath, "/")
				}
				req.RequestURI = req.URL.RequestURI()
			}
			return next(c)
		}
	}
}
