package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/clauselens/clauselens/internal/infrastructure/messaging/kafka"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
)

func newWorkerCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the analysis worker",
		Long:  "Consumes analysis requests from Kafka and processes them through the analysis pipeline.",
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

			concurrency := cfg.Worker.Concurrency
			if concurrency < 1 {
				concurrency = 1
			}

			// Each goroutine owns its own group reader; Kafka balances the
			// partitions across them.
			g, gctx := errgroup.WithContext(ctx)
			for i := 0; i < concurrency; i++ {
				consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.Worker, log)
				if err != nil {
					return err
				}
				g.Go(func() error {
					defer consumer.Close()
					return consumer.Run(gctx, rt.service.ProcessAnalysisRequest)
				})
			}

			log.Info("worker started", logging.Int("concurrency", concurrency))
			if err := g.Wait(); err != nil {
				return err
			}
			log.Info("worker stopped")
			return nil
		},
	}
}
