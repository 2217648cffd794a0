// Package guard decides whether a screen may render for the current session.
//
// Decide is a pure function of the route and the session. Protect wraps it as echo
// middleware: when the decision is a redirect the wrapped handler never runs, so a
// protected screen can't reach the backend without a token.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lachlan2k/bookshelf/internal/metrics"
	"github.com/lachlan2k/bookshelf/internal/session"
)

type Access int

const (
	Public Access = iota
	Protected
)

type Route struct {
	Path   string
	Access Access
}

var (
	RegisterRoute = Route{Path: "/", Access: Public}
	LoginRoute    = Route{Path: "/login", Access: Public}
	BooksRoute    = Route{Path: "/books", Access: Protected}
	BookListRoute = Route{Path: "/book-list", Access: Protected}
	AllBooksRoute = Route{Path: "/all-books", Access: Public}
)

var Routes = []Route{RegisterRoute, LoginRoute, BooksRoute, BookListRoute, AllBooksRoute}

type Decision struct {
	Allow    bool
	Redirect string
}

func Decide(route Route, sess session.Session) Decision {
	if route.Access == Public || sess.Authenticated() {
		return Decision{Allow: true}
	}
	return Decision{Redirect: LoginURL(route.Path)}
}

// LoginURL is the login screen, remembering where to go back to afterwards
func LoginURL(redir string) string {
	if redir == "" || redir == LoginRoute.Path {
		return LoginRoute.Path
	}
	return LoginRoute.Path + "?redir=" + url.QueryEscape(redir)
}

type Guard struct {
	sessions *session.Store
	metrics  *metrics.Metrics
}

func New(sessions *session.Store, m *metrics.Metrics) *Guard {
	return &Guard{sessions: sessions, metrics: m}
}

func (g *Guard) Protect(route Route) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := Decide(route, g.sessions.Current())
			if route.Access == Protected {
				g.metrics.ObserveGuard(route.Path, decision.Allow)
			}
			if !decision.Allow {
				return c.Redirect(http.StatusFound, decision.Redirect)
			}
			return next(c)
		}
	}
}

// SafeRedirect returns redir if it is a path on this server, fallback otherwise.
// Anything with a scheme or host (including protocol-relative //host) is refused.
func SafeRedirect(redir, fallback string) string {
	if redir == "" || !strings.HasPrefix(redir, "/") || strings.HasPrefix(redir, "//") || strings.HasPrefix(redir, "/\\") {
		return fallback
	}

	u, err := url.Parse(redir)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}

	if u.Path == LoginRoute.Path {
		return fallback
	}

	return redir
}
