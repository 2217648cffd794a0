package webserver

import (
	"github.com/labstack/echo/v4"

	"github.com/lachlan2k/bookshelf/internal/guard"
	"github.com/lachlan2k/bookshelf/internal/views"
)

func (w *Webserver) registerPage() page {
	state := w.register.State()
	return page{Title: "Register", Path: guard.RegisterRoute.Path, Form: state, Notice: state.Notice}
}

func (w *Webserver) registerPageHandler(c echo.Context) error {
	return respond(c, views.Outcome{}, registerPage, w.registerPage())
}

func (w *Webserver) registerSubmitHandler(c echo.Context) error {
	out := w.register.Submit(c.Request().Context(), c.FormValue("email"), c.FormValue("password"))
	return respond(c, out, registerPage, w.registerPage())
}

func (w *Webserver) loginPage(redir string) page {
	state := w.login.State()
	return page{Title: "Login", Path: guard.LoginRoute.Path, Redir: redir, Form: state, Notice: state.Notice}
}

func (w *Webserver) loginPageHandler(c echo.Context) error {
	if c.QueryParam("registered") == "1" {
		w.login.Registered()
	}
	return respond(c, views.Outcome{}, loginPage, w.loginPage(c.QueryParam("redir")))
}

func (w *Webserver) loginSubmitHandler(c echo.Context) error {
	redir := c.FormValue("redir")
	out := w.login.Submit(c.Request().Context(), c.FormValue("email"), c.FormValue("password"), redir)
	return respond(c, out, loginPage, w.loginPage(redir))
}

// logoutHandler logs out from whichever book screen the button was on, so a failure
// shows up on that screen
func (w *Webserver) logoutHandler(c echo.Context) error {
	ctx := c.Request().Context()

	switch c.FormValue("from") {
	case guard.BookListRoute.Path:
		return respond(c, w.bookList.Logout(ctx), listPage, w.listPage(w.bookList, guard.BookListRoute))
	case guard.AllBooksRoute.Path:
		return respond(c, w.allBooks.Logout(ctx), listPage, w.listPage(w.allBooks, guard.AllBooksRoute))
	default:
		return respond(c, w.bookForm.Logout(ctx), booksPage, w.bookFormPage())
	}
}
