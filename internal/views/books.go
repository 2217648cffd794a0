package views

import (
	"context"
	"strings"
	"sync"

	"github.com/lachlan2k/bookshelf/internal/catalog"
	"github.com/lachlan2k/bookshelf/internal/guard"
	"github.com/lachlan2k/bookshelf/internal/messages"
	"github.com/lachlan2k/bookshelf/internal/session"
)

type BookRow struct {
	catalog.Book
	Deleting bool
}

type TableState struct {
	Books      []BookRow
	Loading    bool
	LoggingOut bool
	Notice     Notice
}

// bookTable is the list, delete and logout behaviour both book screens share
type bookTable struct {
	deps  *Deps
	flash *Flash
	scope func(session.Session, []catalog.Book) []catalog.Book

	mu         sync.Mutex
	books      []catalog.Book
	loading    bool
	loggingOut bool
	deleting   map[string]bool
}

func newBookTable(deps *Deps, scope func(session.Session, []catalog.Book) []catalog.Book) *bookTable {
	t := &bookTable{
		deps:     deps,
		flash:    NewFlash(deps.MessageTimeout),
		scope:    scope,
		deleting: make(map[string]bool),
	}

	// Cached books belong to whoever was logged in, and a new login starts clean
	deps.Sessions.Subscribe(func(s session.State) {
		t.mu.Lock()
		t.books = nil
		t.mu.Unlock()
		if s == session.Authenticated {
			t.flash.Clear()
		}
	})

	return t
}

func (t *bookTable) tableState() TableState {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := make([]BookRow, len(t.books))
	for i, b := range t.books {
		rows[i] = BookRow{Book: b, Deleting: t.deleting[b.ID]}
	}

	return TableState{
		Books:      rows,
		Loading:    t.loading,
		LoggingOut: t.loggingOut,
		Notice:     t.flash.Current(),
	}
}

func (t *bookTable) forceLogout(ctx context.Context) Outcome {
	return t.deps.forceLogout(ctx, t.flash)
}

// Load fetches the list from the backend and replaces the cached copy
func (t *bookTable) Load(ctx context.Context) Outcome {
	sess := t.deps.Sessions.Current()
	if !sess.Authenticated() {
		return t.forceLogout(ctx)
	}

	t.mu.Lock()
	t.loading = true
	t.mu.Unlock()

	books, err := t.deps.Backend.ListBooks(ctx, sess.Token)

	t.mu.Lock()
	t.loading = false
	if err == nil {
		t.books = t.scope(sess, books)
	}
	t.mu.Unlock()

	switch {
	case err == nil:
		return stay
	case isUnauthorized(err):
		return t.forceLogout(ctx)
	default:
		t.deps.Logger.Warn("Failed to fetch books", "err", err)
		t.flash.Failure(t.deps.failureText(err, messages.FetchFailed))
		return stay
	}
}

// Delete removes one book. A second Delete for a row already in flight does nothing.
func (t *bookTable) Delete(ctx context.Context, id string) Outcome {
	t.mu.Lock()
	if t.deleting[id] {
		t.mu.Unlock()
		return stay
	}
	t.deleting[id] = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.deleting, id)
		t.mu.Unlock()
	}()

	token := t.deps.Sessions.Token()
	if token == "" {
		return t.forceLogout(ctx)
	}

	err := t.deps.Backend.DeleteBook(ctx, token, id)
	switch {
	case err == nil:
		t.mu.Lock()
		for i, b := range t.books {
			if b.ID == id {
				t.books = append(t.books[:i:i], t.books[i+1:]...)
				break
			}
		}
		t.mu.Unlock()
		t.flash.Success(t.deps.Messages.Get(messages.BookDeleted))
		return stay
	case isUnauthorized(err):
		return t.forceLogout(ctx)
	default:
		t.deps.Logger.Warn("Failed to delete book", "id", id, "err", err)
		t.flash.Failure(t.deps.failureText(err, messages.DeleteFailed))
		return stay
	}
}

// Logout tells the backend, then drops the session. A token the backend already
// rejects counts as logged out; any other failure keeps the session.
func (t *bookTable) Logout(ctx context.Context) Outcome {
	t.mu.Lock()
	if t.loggingOut {
		t.mu.Unlock()
		return stay
	}
	t.loggingOut = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.loggingOut = false
		t.mu.Unlock()
	}()

	token := t.deps.Sessions.Token()
	if token == "" {
		return redirectTo(guard.LoginRoute.Path)
	}

	if err := t.deps.Backend.Logout(ctx, token); err != nil && !isUnauthorized(err) {
		t.deps.Logger.Warn("Failed to log out", "err", err)
		t.flash.Failure(t.deps.Messages.Get(messages.LogoutFailed))
		return stay
	}

	if err := t.deps.Sessions.Logout(ctx); err != nil {
		t.deps.Logger.Error("Couldn't clear persisted session", "err", err)
	}
	t.flash.Clear()
	return redirectTo(guard.LoginRoute.Path)
}

func ownedBy(sess session.Session, books []catalog.Book) []catalog.Book {
	userID := sess.UserID()
	owned := make([]catalog.Book, 0, len(books))
	if userID == "" {
		return owned
	}
	for _, b := range books {
		if b.OwnerUserID == userID {
			owned = append(owned, b)
		}
	}
	return owned
}

func everyone(_ session.Session, books []catalog.Book) []catalog.Book {
	return append([]catalog.Book(nil), books...)
}

type BookFormState struct {
	TableState
	Title   string
	Author  string
	Gender  string
	Adding  bool
	Genders []catalog.Gender
}

// BookForm is the add-a-book screen with the current user's own books below it
type BookForm struct {
	*bookTable

	formMu sync.Mutex
	title  string
	author string
	gender string
	adding bool
}

func NewBookForm(deps Deps) *BookForm {
	deps.setDefaults()
	return &BookForm{bookTable: newBookTable(&deps, ownedBy)}
}

func (f *BookForm) State() BookFormState {
	f.formMu.Lock()
	defer f.formMu.Unlock()
	return BookFormState{
		TableState: f.tableState(),
		Title:      f.title,
		Author:     f.author,
		Gender:     f.gender,
		Adding:     f.adding,
		Genders:    catalog.Genders,
	}
}

// Add creates a book and appends it to the list. Inputs are kept on failure so the
// user can fix and resubmit.
func (f *BookForm) Add(ctx context.Context, title, author, gender string) Outcome {
	f.formMu.Lock()
	if f.adding {
		f.formMu.Unlock()
		return stay
	}
	f.title, f.author, f.gender = strings.TrimSpace(title), strings.TrimSpace(author), strings.TrimSpace(gender)
	book := catalog.NewBook{Title: f.title, Author: f.author}
	gender = f.gender
	f.formMu.Unlock()

	if book.Title == "" || book.Author == "" || gender == "" {
		f.flash.Failure(f.deps.Messages.Get(messages.FieldsRequired))
		return stay
	}
	g, ok := catalog.ParseGender(gender)
	if !ok {
		f.flash.Failure(f.deps.Messages.Get(messages.InvalidGender))
		return stay
	}
	book.Gender = g

	token := f.deps.Sessions.Token()
	if token == "" {
		return f.forceLogout(ctx)
	}

	f.formMu.Lock()
	f.adding = true
	f.formMu.Unlock()

	created, err := f.deps.Backend.AddBook(ctx, token, book)

	f.formMu.Lock()
	f.adding = false
	if err == nil {
		f.title, f.author, f.gender = "", "", ""
	}
	f.formMu.Unlock()

	switch {
	case err == nil:
		f.mu.Lock()
		f.books = append(f.books, created)
		f.mu.Unlock()
		f.flash.Success(f.deps.Messages.Get(messages.BookAdded))
		return stay
	case isUnauthorized(err):
		return f.forceLogout(ctx)
	default:
		f.deps.Logger.Warn("Failed to add book", "err", err)
		f.flash.Failure(f.deps.failureText(err, messages.AddFailed))
		return stay
	}
}

// BookList shows every book the backend returns
type BookList struct {
	*bookTable
}

func NewBookList(deps Deps) *BookList {
	deps.setDefaults()
	return &BookList{bookTable: newBookTable(&deps, everyone)}
}

func (l *BookList) State() TableState {
	return l.tableState()
}

// Back refreshes the list and returns to the book form
func (l *BookList) Back(ctx context.Context) Outcome {
	if out := l.Load(ctx); out.Navigates() {
		return out
	}
	return redirectTo(guard.BooksRoute.Path)
}
