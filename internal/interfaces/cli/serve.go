package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	httpiface "github.com/clauselens/clauselens/internal/interfaces/http"
	"github.com/clauselens/clauselens/internal/interfaces/http/handlers"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer rt.Close()

			health := handlers.NewHealthHandler(Version, map[string]handlers.DependencyCheck{
				"postgres":   rt.postgres.HealthCheck,
				"redis":      rt.cache.Ping,
				"opensearch": rt.search.Ping,
			})
			router := httpiface.NewRouter(httpiface.RouterConfig{
				ServerConfig:    cfg.Server,
				AuthConfig:      cfg.Auth,
				DocumentHandler: handlers.NewDocumentHandler(rt.service),
				AnalyzeHandler:  handlers.NewAnalyzeHandler(rt.service),
				HealthHandler:   health,
				Metrics:         rt.metrics,
				Logger:          log,
			})
			server := httpiface.NewServer(cfg.Server, router, log)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			if err := server.Shutdown(context.Background()); err != nil {
				log.Error("shutdown failed", logging.Err(err))
				return err
			}
			log.Info("server stopped")
			return nil
		},
	}
}
