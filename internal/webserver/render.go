package webserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lachlan2k/bookshelf/internal/catalog"
	"github.com/lachlan2k/bookshelf/internal/views"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	registerPage = "register.html"
	loginPage    = "login.html"
	booksPage    = "books.html"
	listPage     = "book-list.html"
)

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: map[string]*template.Template{}}
	for _, name := range []string{registerPage, loginPage, booksPage, listPage} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("no template named %s", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

type refresh struct {
	Seconds int
	URL     string
}

type page struct {
	Title   string
	Notice  views.Notice
	Refresh *refresh
	CSRF    string

	// The screen's own path, for forms posting back to it
	Path  string
	Redir string

	Form  views.FormState
	Books views.BookFormState
	Table views.TableState

	Genders []catalog.Gender
}

// respond follows an Outcome: an immediate navigation is a 303, a delayed one renders
// the screen with a refresh so the notice stays up until it fires
func respond(c echo.Context, out views.Outcome, name string, p page) error {
	p.CSRF = csrfToken(c)
	if out.Navigates() && out.Delay <= 0 {
		return c.Redirect(http.StatusSeeOther, out.Redirect)
	}
	if out.Navigates() {
		p.Refresh = &refresh{
			Seconds: int(math.Ceil(out.Delay.Seconds())),
			URL:     out.Redirect,
		}
	}
	return c.Render(http.StatusOK, name, p)
}
