package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Store owns the process's Session and keeps it in step with Storage.
// After Login returns, or Logout returns nil, the in-memory token and the persisted copy
// agree. A Logout that returns an error has still cleared memory; see Logout.
type Store struct {
	storage Storage
	sealer  *JWTSealer
	logger  *slog.Logger

	mu    sync.RWMutex
	token string

	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

type Option func(*Store)

// WithSealer seals the persisted token in a signed JWT
func WithSealer(sealer *JWTSealer) Option {
	return func(s *Store) {
		s.sealer = sealer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		logger:  slog.Default(),
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted token, if any. The Store is usable with an empty
// Session even when an error is returned.
func (s *Store) Initialize(ctx context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""

	value, err := s.storage.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	token := value
	if s.sealer != nil {
		token, err = s.sealer.Open(value)
		if err != nil {
			s.logger.Warn("Persisted session failed verification, discarding it", "err", err)
			if err := s.storage.Clear(ctx); err != nil {
				return Session{}, fmt.Errorf("clear invalid session: %w", err)
			}
			return Session{}, nil
		}
	}

	s.token = token
	return Session{Token: token}, nil
}

// Login sets and persists the token. If persisting fails the previous token is kept.
func (s *Store) Login(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	value := token
	if s.sealer != nil {
		var err error
		value, err = s.sealer.Seal(token)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	if err := s.storage.Save(ctx, value); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist session: %w", err)
	}
	s.token = token
	s.mu.Unlock()

	s.notify(Authenticated)
	return nil
}

// Logout clears the token in memory and in storage. Memory is cleared even if storage
// fails: a token the backend rejected must not keep authorizing this process. The error
// is returned so the caller can report it, since the persisted copy then survives and the
// next Initialize would load it again.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	err := s.storage.Clear(ctx)
	s.mu.Unlock()

	s.notify(Anonymous)

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{Token: s.token}
}

func (s *Store) Token() string {
	return s.Current().Token
}

func (s *Store) State() State {
	if s.Current().Authenticated() {
		return Authenticated
	}
	return Anonymous
}

// Subscribe registers fn to be called after every Login and Logout
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify(state State) {
	s.subsMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
