package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fyerfyer/finsight/api"
	"github.com/fyerfyer/finsight/api/handler"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := root.cfg, root.logger
			if port > 0 {
				cfg.Server.Port = port
			}
			gin.SetMode(cfg.Server.Mode)

			a, err := newApp(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer a.Close()

			router := api.SetupRouter(api.Handlers{
				Files:    handler.NewFileHandler(a.files),
				Analysis: handler.NewAnalysisHandler(a.analysis, a.files),
				Tasks:    handler.NewTaskHandler(a.analysis),
			})
			router.MaxMultipartMemory = cfg.Upload.MaxSize

			srv := &http.Server{
				Addr:         cfg.Server.Addr(),
				Handler:      router,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Infof("Server is running on %s", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			// 等待终止信号
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}
			logger.Info("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}

			logger.Info("Server exited")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "server port, overrides config")
	return cmd
}
