package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/norihq/nori/config"
	srv "github.com/norihq/nori/internal/server"
)

func main() {
	var root = &cobra.Command{Use: "nori"}

	var serveAddr string
	var configPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the news agent HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if serveAddr == "" {
				serveAddr = os.Getenv("NORI_HTTP_ADDR")
			}
			if serveAddr == "" {
				serveAddr = cfg.Server.Address
			}
			return srv.Run(serveAddr, cfg)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serve.Flags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(serve)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
