package views

import (
	"context"
	"strings"
	"sync"

	"github.com/lachlan2k/bookshelf/internal/catalog"
	"github.com/lachlan2k/bookshelf/internal/guard"
	"github.com/lachlan2k/bookshelf/internal/messages"
)

// RegisteredQuery is appended to the login URL after a successful registration
const RegisteredQuery = "registered=1"

type FormState struct {
	Email   string
	Loading bool
	Notice  Notice
}

// credentialForm is the state shared by the register and login screens.
// The password is never kept.
type credentialForm struct {
	deps  *Deps
	flash *Flash

	mu      sync.Mutex
	email   string
	loading bool
}

func (f *credentialForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormState{Email: f.email, Loading: f.loading, Notice: f.flash.Current()}
}

// begin validates and marks the form in flight. ok is false when the submit should be
// dropped: a submit already running, or fields missing.
func (f *credentialForm) begin(email, password string) (cred catalog.Credential, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loading {
		return cred, false
	}

	f.email = strings.TrimSpace(email)
	if f.email == "" || password == "" {
		f.flash.Failure(f.deps.Messages.Get(messages.FieldsRequired))
		return cred, false
	}

	f.loading = true
	f.flash.Clear()
	return catalog.Credential{Email: f.email, Password: password}, true
}

func (f *credentialForm) finish() {
	f.mu.Lock()
	f.loading = false
	f.mu.Unlock()
}

type Register struct {
	credentialForm
}

func NewRegister(deps Deps) *Register {
	deps.setDefaults()
	return &Register{credentialForm{deps: &deps, flash: NewFlash(deps.MessageTimeout)}}
}

func (r *Register) Submit(ctx context.Context, email, password string) Outcome {
	cred, ok := r.begin(email, password)
	if !ok {
		return stay
	}
	defer r.finish()

	if err := r.deps.Backend.Register(ctx, cred); err != nil {
		r.deps.Logger.Info("Registration failed", "err", err)
		r.flash.Failure(r.deps.failureText(err, messages.RegisterFailed))
		return stay
	}

	r.mu.Lock()
	r.email = ""
	r.mu.Unlock()

	return redirectTo(guard.LoginRoute.Path + "?" + RegisteredQuery)
}

type Login struct {
	credentialForm
}

func NewLogin(deps Deps) *Login {
	deps.setDefaults()
	return &Login{credentialForm{deps: &deps, flash: NewFlash(deps.MessageTimeout)}}
}

// Registered shows the one-shot notice after arriving from the register screen
func (l *Login) Registered() {
	l.flash.Success(l.deps.Messages.Get(messages.RegisterSucceeded))
}

// Submit logs in and stores the token. On success the user goes to redir when it is a
// local path, else to the book form.
func (l *Login) Submit(ctx context.Context, email, password, redir string) Outcome {
	cred, ok := l.begin(email, password)
	if !ok {
		return stay
	}
	defer l.finish()

	token, err := l.deps.Backend.Login(ctx, cred)
	if err != nil {
		l.deps.Logger.Info("Login failed", "err", err)
		l.flash.Failure(l.deps.failureText(err, messages.LoginFailed))
		return stay
	}

	if err := l.deps.Sessions.Login(ctx, token); err != nil {
		l.deps.Logger.Error("Couldn't persist session", "err", err)
		l.flash.Failure(l.deps.Messages.Get(messages.LoginFailed))
		return stay
	}

	l.mu.Lock()
	l.email = ""
	l.mu.Unlock()

	return redirectTo(guard.SafeRedirect(redir, guard.BooksRoute.Path))
}
