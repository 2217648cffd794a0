// Package views holds one controller per screen. A controller owns the screen's
// transient state (inputs, in-flight flags, the current notice, the cached list),
// calls the backend, and tells the web layer where to go next through an Outcome.
//
// Controllers never hold their lock across a backend call, so a slow request only
// affects the flags of the screen that made it. Responses are applied in arrival order.
package views

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lachlan2k/bookshelf/internal/catalog"
	"github.com/lachlan2k/bookshelf/internal/guard"
	"github.com/lachlan2k/bookshelf/internal/messages"
	"github.com/lachlan2k/bookshelf/internal/session"
)

// Backend is the part of the catalog client the screens use
type Backend interface {
	Register(ctx context.Context, cred catalog.Credential) error
	Login(ctx context.Context, cred catalog.Credential) (string, error)
	Logout(ctx context.Context, token string) error
	ListBooks(ctx context.Context, token string) ([]catalog.Book, error)
	AddBook(ctx context.Context, token string, book catalog.NewBook) (catalog.Book, error)
	DeleteBook(ctx context.Context, token, id string) error
}

type Deps struct {
	Sessions *session.Store
	Backend  Backend
	Messages *messages.Catalog
	Logger   *slog.Logger

	// How long a success notice stays up
	MessageTimeout time.Duration
	// How long the "Unauthorized" notice shows before going to the login screen
	UnauthorizedDelay time.Duration
}

func (d *Deps) setDefaults() {
	if d.Messages == nil {
		d.Messages = messages.English()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MessageTimeout <= 0 {
		d.MessageTimeout = 2 * time.Second
	}
	if d.UnauthorizedDelay < 0 {
		d.UnauthorizedDelay = 0
	}
}

// Outcome tells the web layer whether to navigate after an action
type Outcome struct {
	Redirect string
	Delay    time.Duration
}

func (o Outcome) Navigates() bool {
	return o.Redirect != ""
}

var stay = Outcome{}

func redirectTo(path string) Outcome {
	return Outcome{Redirect: path}
}

// failureText picks the backend's own message when there is one, else the generic one
func (d *Deps) failureText(err error, generic messages.ID) string {
	if msg, ok := catalog.ServerMessage(err); ok {
		return msg
	}
	return d.Messages.Get(generic)
}

func isUnauthorized(err error) bool {
	return errors.Is(err, catalog.ErrUnauthorized)
}

// forceLogout drops the session after the backend (or the missing token) said we're
// not logged in, and sends the user to the login screen once they've seen why
func (d *Deps) forceLogout(ctx context.Context, notice *Flash) Outcome {
	if err := d.Sessions.Logout(ctx); err != nil {
		d.Logger.Error("Failed to clear session during forced logout", "err", err)
	}
	notice.Show(Notice{Text: d.Messages.Get(messages.Unauthorized)}, false)
	return Outcome{Redirect: guard.LoginRoute.Path, Delay: d.UnauthorizedDelay}
}
