package webserver

import (
	"github.com/labstack/echo/v4"

	"github.com/lachlan2k/bookshelf/internal/catalog"
	"github.com/lachlan2k/bookshelf/internal/guard"
	"github.com/lachlan2k/bookshelf/internal/views"
)

func (w *Webserver) bookFormPage() page {
	state := w.bookForm.State()
	return page{
		Title:   "Add a Book",
		Path:    guard.BooksRoute.Path,
		Notice:  state.Notice,
		Books:   state,
		Table:   state.TableState,
		Genders: catalog.Genders,
	}
}

// Every render of a book screen refetches the list, the same as mounting it
func (w *Webserver) bookFormPageHandler(c echo.Context) error {
	out := w.bookForm.Load(c.Request().Context())
	return respond(c, out, booksPage, w.bookFormPage())
}

func (w *Webserver) addBookHandler(c echo.Context) error {
	out := w.bookForm.Add(c.Request().Context(), c.FormValue("title"), c.FormValue("author"), c.FormValue("gender"))
	return respond(c, out, booksPage, w.bookFormPage())
}

func (w *Webserver) bookFormDeleteHandler(c echo.Context) error {
	out := w.bookForm.Delete(c.Request().Context(), c.Param("id"))
	return respond(c, out, booksPage, w.bookFormPage())
}

func (w *Webserver) listPage(list *views.BookList, route guard.Route) page {
	state := list.State()
	return page{
		Title:  "All Books",
		Path:   route.Path,
		Notice: state.Notice,
		Table:  state,
	}
}

func (w *Webserver) listPageHandler(list *views.BookList, route guard.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		out := list.Load(c.Request().Context())
		return respond(c, out, listPage, w.listPage(list, route))
	}
}

func (w *Webserver) listDeleteHandler(list *views.BookList, route guard.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		out := list.Delete(c.Request().Context(), c.Param("id"))
		return respond(c, out, listPage, w.listPage(list, route))
	}
}

func (w *Webserver) listBackHandler(list *views.BookList, route guard.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		out := list.Back(c.Request().Context())
		return respond(c, out, listPage, w.listPage(list, route))
	}
}
