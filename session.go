package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lachlan2k/bookshelf/internal/config"
	"github.com/lachlan2k/bookshelf/internal/logging"
	"github.com/lachlan2k/bookshelf/internal/webserver"
)

func sessionCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the locally stored session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print whether a session is stored (never the token itself)",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			sessions, closeStorage, err := webserver.NewSessionStore(cmd.Context(), conf, logging.New(conf.LogLevel))
			if err != nil {
				return err
			}
			defer closeStorage()

			sess, err := sessions.Initialize(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !sess.Authenticated() {
				fmt.Fprintf(out, "No session stored (%s storage)\n", conf.Session.Storage)
				return nil
			}

			fmt.Fprintf(out, "Logged in (%s storage)\n", conf.Session.Storage)
			if id := sess.UserID(); id != "" {
				fmt.Fprintf(out, "User id: %s\n", id)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the stored session without contacting the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			sessions, closeStorage, err := webserver.NewSessionStore(cmd.Context(), conf, logging.New(conf.LogLevel))
			if err != nil {
				return err
			}
			defer closeStorage()

			if err := sessions.Logout(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared")
			return nil
		},
	})

	return cmd
}
