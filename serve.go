package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lachlan2k/bookshelf/internal/config"
	"github.com/lachlan2k/bookshelf/internal/logging"
	"github.com/lachlan2k/bookshelf/internal/webserver"
)

func serveCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server (the default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			logger := logging.New(conf.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sessions, closeStorage, err := webserver.NewSessionStore(ctx, conf, logger)
			if err != nil {
				return err
			}
			defer closeStorage()

			server, err := webserver.New(conf, sessions, logger)
			if err != nil {
				return err
			}

			return server.Run(ctx)
		},
	}
}
