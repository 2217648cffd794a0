package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lachlan2k/bookshelf/internal/catalog"
	"github.com/lachlan2k/bookshelf/internal/config"
	"github.com/lachlan2k/bookshelf/internal/guard"
	"github.com/lachlan2k/bookshelf/internal/messages"
	"github.com/lachlan2k/bookshelf/internal/metrics"
	"github.com/lachlan2k/bookshelf/internal/session"
	"github.com/lachlan2k/bookshelf/internal/views"
)

type Webserver struct {
	conf     *config.Config
	logger   *slog.Logger
	echo     *echo.Echo
	sessions *session.Store
	guard    *guard.Guard
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	backend  views.Backend

	register *views.Register
	login    *views.Login
	bookForm *views.BookForm
	bookList *views.BookList
	allBooks *views.BookList
}

type Option func(*Webserver)

// WithBackend replaces the HTTP catalog client built from the config
func WithBackend(backend views.Backend) Option {
	return func(w *Webserver) {
		w.backend = backend
	}
}

func New(conf *config.Config, sessions *session.Store, logger *slog.Logger, opts ...Option) (*Webserver, error) {
	w := &Webserver{
		conf:     conf,
		logger:   logger,
		sessions: sessions,
		registry: prometheus.NewRegistry(),
	}

	if conf.Metrics.Enabled {
		w.metrics = metrics.New(w.registry)
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.backend == nil {
		w.backend = catalog.NewClient(conf.Backend.URL,
			catalog.WithTimeout(conf.BackendTimeout()),
			catalog.WithMetrics(w.metrics),
			catalog.WithLogger(logger),
		)
	}

	msgs, err := messages.New(conf.Language)
	if err != nil {
		return nil, fmt.Errorf("couldn't load messages: %w", err)
	}

	deps := views.Deps{
		Sessions:          sessions,
		Backend:           w.backend,
		Messages:          msgs,
		Logger:            logger,
		MessageTimeout:    conf.MessageTimeout(),
		UnauthorizedDelay: conf.UnauthorizedRedirectDelay(),
	}
	w.register = views.NewRegister(deps)
	w.login = views.NewLogin(deps)
	w.bookForm = views.NewBookForm(deps)
	w.bookList = views.NewBookList(deps)
	w.allBooks = views.NewBookList(deps)

	w.guard = guard.New(sessions, w.metrics)

	sessions.Subscribe(func(s session.State) {
		w.metrics.SetAuthenticated(s == session.Authenticated)
	})

	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	w.echo = echo.New()
	w.echo.HideBanner = true
	w.echo.HidePort = true
	w.echo.Renderer = renderer

	w.echo.Use(middleware.Recover())
	w.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	w.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))
	w.echo.Use(rejectCrossSite)
	w.echo.Use(csrfMiddleware())

	w.registerRoutes()

	return w, nil
}

func (w *Webserver) registerRoutes() {
	e := w.echo

	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	if w.conf.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(w.registry, promhttp.HandlerOpts{})))
	}

	e.GET(guard.RegisterRoute.Path, w.registerPageHandler)
	e.POST(guard.RegisterRoute.Path, w.registerSubmitHandler)
	e.GET(guard.LoginRoute.Path, w.loginPageHandler)
	e.POST(guard.LoginRoute.Path, w.loginSubmitHandler)
	e.POST("/logout", w.logoutHandler)

	books := e.Group(guard.BooksRoute.Path, w.guard.Protect(guard.BooksRoute))
	books.GET("", w.bookFormPageHandler)
	books.POST("", w.addBookHandler)
	books.POST("/:id/delete", w.bookFormDeleteHandler)

	list := e.Group(guard.BookListRoute.Path, w.guard.Protect(guard.BookListRoute))
	list.GET("", w.listPageHandler(w.bookList, guard.BookListRoute))
	list.POST("/:id/delete", w.listDeleteHandler(w.bookList, guard.BookListRoute))
	list.POST("/back", w.listBackHandler(w.bookList, guard.BookListRoute))

	all := e.Group(guard.AllBooksRoute.Path, w.guard.Protect(guard.AllBooksRoute))
	all.GET("", w.listPageHandler(w.allBooks, guard.AllBooksRoute))
	all.POST("/:id/delete", w.listDeleteHandler(w.allBooks, guard.AllBooksRoute))
}

func (w *Webserver) Handler() http.Handler {
	return w.echo
}

// Run loads the persisted session and serves until ctx is cancelled
func (w *Webserver) Run(ctx context.Context) error {
	sess, err := w.sessions.Initialize(ctx)
	if err != nil {
		// The store is still usable, just logged out
		w.logger.Error("Couldn't load persisted session", "err", err)
	}
	w.metrics.SetAuthenticated(sess.Authenticated())

	addr := net.JoinHostPort(w.conf.ListenAddress, strconv.Itoa(w.conf.ListenPort))
	w.logger.Info("Starting web server", "addr", addr, "backend", w.conf.Backend.URL, "session_storage", w.conf.Session.Storage)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		w.logger.Info("Shutting down web server")
		return w.echo.Shutdown(shutdownCtx)
	}
}
