package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lachlan2k/bookshelf/internal/metrics"
	"github.com/lachlan2k/bookshelf/internal/session"
)

func TestDecide(t *testing.T) {
	anon := session.Session{}
	authed := session.Session{Token: "tok"}

	for _, route := range Routes {
		d := Decide(route, authed)
		assert.True(t, d.Allow, route.Path)

		d = Decide(route, anon)
		if route.Access == Protected {
			assert.False(t, d.Allow, route.Path)
			assert.Equal(t, "/login?redir=%2F"+route.Path[1:], d.Redirect)
		} else {
			assert.True(t, d.Allow, route.Path)
		}
	}
}

func TestProtectRedirectsWithoutCallingHandler(t *testing.T) {
	store := session.NewStore(session.NewMemoryStorage())
	g := New(store, metrics.New(prometheus.NewRegistry()))

	e := echo.New()
	called := 0
	e.GET("/books", func(c echo.Context) error {
		called++
		return c.String(http.StatusOK, "books")
	}, g.Protect(BooksRoute))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redir=%2Fbooks", rec.Header().Get("Location"))
	assert.Zero(t, called)

	require.NoError(t, store.Login(context.Background(), "tok"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, called)

	require.NoError(t, store.Logout(context.Background()))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, 1, called)
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                     "/books",
		"/book-list":           "/book-list",
		"/book-list?x=1":       "/book-list?x=1",
		"https://evil.example": "/books",
		"//evil.example/path":  "/books",
		"/\\evil.example":      "/books",
		"books":                "/books",
		"/login":               "/books",
		"javascript:alert(1)":  "/books",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeRedirect(in, "/books"), in)
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", LoginURL(""))
	assert.Equal(t, "/login", LoginURL("/login"))
	assert.Equal(t, "/login?redir=%2Fbook-list", LoginURL("/book-list"))
}
