// Copyright 2024 Survey Insights Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main provides the survey insights service entrypoint.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/survey-insights/internal/config"
	"github.com/your-org/survey-insights/internal/health"
	"github.com/your-org/survey-insights/internal/openai"
	"github.com/your-org/survey-insights/internal/server"
)

const serviceVersion = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "insights",
		Short: "Survey insights service — LLM-backed survey analytics summaries",
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		configPath  string
		watchConfig bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, watchConfig)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (default: ./configs/config.yaml, ./config.yaml)")
	cmd.Flags().BoolVar(&watchConfig, "watch-config", false, "reload the log level when the config file changes")

	return cmd
}

func runServe(configPath string, watchConfig bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := zap.NewAtomicLevelAt(parseLogLevel(cfg.Logging.Level))
	logger, err := initializeLogger(cfg, level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	masked := cfg.MaskSensitiveValues()
	logger.Info("Configuration loaded",
		zap.String("service", "insights"),
		zap.Int("port", masked.Server.Port),
		zap.String("cors_origin", masked.Server.CORSOrigin),
		zap.String("model", masked.Insight.Model),
		zap.Int("max_tokens", masked.Insight.MaxTokens),
		zap.Float64("temperature", masked.Insight.Temperature),
		zap.String("openai_endpoint", masked.OpenAI.Endpoint),
		zap.String("openai_api_key", masked.OpenAI.APIKey),
	)

	// The service starts without a key so that ping and key-check stay
	// reachable; the insight endpoint reports the missing credential per
	// request.
	var client *openai.Client
	client, err = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Endpoint, logger)
	if err != nil {
		if !errors.Is(err, openai.ErrMissingAPIKey) {
			return fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		logger.Warn("OPENAI_API_KEY is not set; insight generation will fail until configured")
		client = nil
	}

	healthManager := health.NewManager("insights", serviceVersion, logger)
	healthManager.AddCheckerFunc("openai_credential", health.CredentialChecker("OPENAI_API_KEY", func() bool {
		return cfg.OpenAI.APIKey != ""
	}))

	if watchConfig {
		err := config.WatchConfig(configPath, func(updated *config.Config) {
			level.SetLevel(parseLogLevel(updated.Logging.Level))
			logger.Info("Configuration reloaded; log level applied, other changes take effect on restart",
				zap.String("log_level", updated.Logging.Level),
			)
		})
		if err != nil {
			logger.Warn("Config watching unavailable", zap.Error(err))
		}
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(cfg, logger, client, healthManager)
	router := srv.Router()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting survey insights service",
		zap.String("addr", addr),
		zap.String("model", cfg.Insight.Model),
	)

	if err := router.Run(addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// initializeLogger creates a logger based on configuration settings
func initializeLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.Level = level

	if cfg.Logging.Output == "file" {
		zapConfig.OutputPaths = []string{"insights.log"}
		zapConfig.ErrorOutputPaths = []string{"insights.log"}
	} else {
		zapConfig.OutputPaths = []string{"stdout"}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	}

	return zapConfig.Build()
}

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
