package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/fyerfyer/finsight/api/middleware"
	"github.com/fyerfyer/finsight/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootOptions 所有子命令共享的参数
type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string

	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "finsight",
		Short:         "Financial statement analysis for prospectuses and annual reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "config.yaml", "path to config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "path to .env file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug/info/warn/error), overrides config")

	cmd.AddCommand(
		newServeCmd(opts),
		newWorkerCmd(opts),
		newAnalyzeCmd(opts),
		newSummarizeCmd(opts),
	)
	return cmd
}

// load 读取.env和配置文件并初始化日志
func (o *rootOptions) load() error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	logger, err := middleware.Configure(middleware.LogOptions{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logger
	return nil
}
