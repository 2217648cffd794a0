package webserver

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// The browser carries no credential of its own, so every form post has to prove it came
// from one of our pages
const (
	csrfCookieName = "_csrf"
	csrfFormField  = "_csrf"
	csrfContextKey = "csrf"
)

var errCrossSite = echo.NewHTTPError(http.StatusForbidden, "cross-site request refused")

func csrfMiddleware() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + csrfFormField,
		ContextKey:     csrfContextKey,
		CookieName:     csrfCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteStrictMode,
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden, "invalid csrf token")
		},
	})
}

// rejectCrossSite refuses state-changing requests that the browser says came from
// another site, before the token is even looked at
func rejectCrossSite(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		switch req.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return next(c)
		}

		if req.Header.Get("Sec-Fetch-Site") == "cross-site" {
			return errCrossSite
		}

		if origin := req.Header.Get(echo.HeaderOrigin); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || u.Host != req.Host {
				return errCrossSite
			}
		}

		return next(c)
	}
}

func csrfToken(c echo.Context) string {
	token, _ := c.Get(csrfContextKey).(string)
	return token
}
