package main

import (
	"github.com/fyerfyer/finsight/pkg/taskqueue"
	"github.com/spf13/cobra"
)

func newWorkerCmd(root *rootOptions) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process queued analysis tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := root.cfg, root.logger
			if concurrency > 0 {
				cfg.Queue.Concurrency = concurrency
			}

			a, err := newApp(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			defer a.Close()

			worker := taskqueue.NewRedisWorker(a.queue, queueConfig(cfg))
			a.analysis.RegisterHandlers(worker)

			logger.WithField("concurrency", cfg.Queue.Concurrency).Info("Starting analysis worker")
			// 阻塞直到收到退出信号
			return worker.Run()
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent tasks, overrides config")
	return cmd
}
