package webserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lachlan2k/bookshelf/internal/config"
	"github.com/lachlan2k/bookshelf/internal/session"
)

// NewSessionStore opens the storage backend named in the config and wraps it in a Store.
// The returned close func releases the backend's connections, if it holds any.
func NewSessionStore(ctx context.Context, conf *config.Config, logger *slog.Logger) (*session.Store, func() error, error) {
	storage, closeFn, err := openStorage(ctx, conf)
	if err != nil {
		return nil, nil, err
	}

	opts := []session.Option{session.WithLogger(logger)}
	if conf.Session.Secret != "" {
		opts = append(opts, session.WithSealer(&session.JWTSealer{Secret: []byte(conf.Session.Secret)}))
	}

	return session.NewStore(storage, opts...), closeFn, nil
}

func openStorage(ctx context.Context, conf *config.Config) (session.Storage, func() error, error) {
	noop := func() error { return nil }

	switch conf.Session.Storage {
	case config.StorageFile:
		return session.NewFileStorage(conf.Session.File.Path), noop, nil

	case config.StorageRedis:
		r := conf.Session.Redis
		storage := session.NewRedisStorage(r.Addr, r.Password, r.DB, r.Key)
		if err := storage.Ping(ctx); err != nil {
			storage.Close()
			return nil, nil, fmt.Errorf("couldn't reach redis at %s: %w", r.Addr, err)
		}
		return storage, storage.Close, nil

	case config.StorageMemory:
		return session.NewMemoryStorage(), noop, nil
	}

	return nil, nil, fmt.Errorf("unknown session storage %q", conf.Session.Storage)
}
