package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wisp-cms/wisp/internal/app/runtime"
	"github.com/wisp-cms/wisp/internal/config"
)

var (
	flagServeHost   string
	flagServePort   int
	flagServeNoSite bool
)

func init() {
	serveCmd.Flags().StringVar(&flagServeHost, "host", "", "bind address (overrides WISP_SERVER_HOST)")
	serveCmd.Flags().IntVar(&flagServePort, "port", 0, "listen port (overrides WISP_SERVER_PORT)")
	serveCmd.Flags().BoolVar(&flagServeNoSite, "no-site", false, "serve the API only, without the themed site")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wisp server",
	Long: `Run the wisp server until interrupted.

The server applies pending database migrations, loads the settings cache,
and serves the site and the admin API. SIGINT and SIGTERM trigger a
graceful shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if flagServeHost != "" {
			cfg.Server.Host = flagServeHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = flagServePort
		}

		app, err := runtime.New(runtime.Options{
			Config:      cfg,
			SiteEnabled: !flagServeNoSite,
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			cancel()
		}()

		runErr := app.Run(ctx)
		if err := app.Shutdown(context.Background()); err != nil && runErr == nil {
			runErr = err
		}
		return runErr
	},
}
