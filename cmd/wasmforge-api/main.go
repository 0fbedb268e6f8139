// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/pflag"

	coreconfig "github.com/openchoreo/wasmforge/internal/config"
	"github.com/openchoreo/wasmforge/internal/logging"
	"github.com/openchoreo/wasmforge/internal/server"
	"github.com/openchoreo/wasmforge/internal/wasmforge/compileservice"
	"github.com/openchoreo/wasmforge/internal/wasmforge/config"
	"github.com/openchoreo/wasmforge/internal/wasmforge/deploy"
	"github.com/openchoreo/wasmforge/internal/wasmforge/handlers"
	"github.com/openchoreo/wasmforge/internal/wasmforge/ingest"
	"github.com/openchoreo/wasmforge/internal/wasmforge/localbuild"
	"github.com/openchoreo/wasmforge/internal/wasmforge/objectstore"
	"github.com/openchoreo/wasmforge/internal/wasmforge/orchestrator"
	"github.com/openchoreo/wasmforge/internal/wasmforge/scaffold"
	"github.com/openchoreo/wasmforge/internal/wasmforge/services"
	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
	"github.com/openchoreo/wasmforge/internal/wasmforge/taskstore"
	"github.com/openchoreo/wasmforge/internal/wasmforge/typecheck"
)

const orchestratorPoolSize = 4

func main() {
	flags, cli := setupFlags()
	_ = flags.Parse(os.Args[1:]) // ExitOnError mode handles parse errors

	bootLogger := logging.New(logging.Config{Level: "info", Format: "text"})

	cfg, err := config.Load(cli.configPath)
	if err != nil {
		var validationErrs coreconfig.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, e := range validationErrs {
				bootLogger.Error("Invalid configuration", "field", e.Field, "message", e.Message)
			}
		} else {
			bootLogger.Error("Failed to load configuration", "error", err)
		}
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.ToLoggingConfig()).With("component", "wasmforge-api")
	logger.Info("Starting wasmforge-api")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := buildServices(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize services", slog.Any("error", err))
		os.Exit(1)
	}

	handler := handlers.New(svc, logger)
	srv := server.New(cfg.Server.ToServerConfig(), handler.Routes(), logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}

// buildServices constructs every domain component and bundles them into a
// services.Services, grounded on the teacher's main.go's sequential
// "initialize X, then Y" construction style.
func buildServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.Services, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, err
	}

	store := taskstore.NewDynamoDBStore(dynamodb.NewFromConfig(awsCfg), cfg.AWS.DynamoDBTable, logger)
	manager := task.NewManager(store, logger)

	objects := objectstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AWS.S3Bucket, "", "", logger)

	orch := orchestrator.New(orchestrator.Config{
		Tasks:    manager,
		Objects:  objects,
		Compile:  compileservice.NewFromEnv(cfg.AWS.S3Bucket),
		Builder:  localbuild.New(cfg.Build.VenvTemplatePath, logger),
		Ingestor: ingest.New(logger),
		TypeGate: typecheck.New(),
		PoolSize: orchestratorPoolSize,
		Logger:   logger,
	})

	return services.New(manager, objects, orch, scaffold.New(), deploy.New()), nil
}

// cliFlags holds direct command-line flags that control program behavior.
type cliFlags struct {
	configPath string
}

// setupFlags creates and configures the CLI flags for wasmforge-api.
func setupFlags() (*pflag.FlagSet, *cliFlags) {
	flags := pflag.NewFlagSet("wasmforge-api", pflag.ExitOnError)
	cli := &cliFlags{}

	flags.StringVar(&cli.configPath, "config", "", "Path to config file")

	return flags, cli
}
