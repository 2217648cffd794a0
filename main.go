package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lachlan2k/bookshelf/internal/config"
)

func main() {
	var confPath string

	rootCmd := &cobra.Command{
		Use:   "bookshelf",
		Short: "A small web front end for a book catalog service",
		Long: `Bookshelf serves register, login and book screens for a book catalog
REST backend. It keeps the backend's session token locally so a restart
doesn't log you out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&confPath, "config", "c", "config.toml", "Path to config file")

	loadConfig := func() (*config.Config, error) {
		conf, err := config.LoadFromFileAndValidate(confPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return conf, nil
	}

	serve := serveCmd(loadConfig)
	rootCmd.RunE = serve.RunE
	rootCmd.AddCommand(serve, sessionCmd(loadConfig))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
