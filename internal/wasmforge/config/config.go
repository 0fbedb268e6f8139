// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package config defines wasmforge-api's unified configuration, layered on
// internal/config's koanf-based Loader, grounded on the teacher's
// internal/openchoreo-api/config package. spec.md names a small, flat set
// of legacy environment variables (CORE_SERVICE_ENDPOINT,
// CORE_SERVICE_TIMEOUT, S3_BUCKET_NAME, DYNAMODB_TABLE_NAME, AWS_REGION,
// LOG_LEVEL) carried over unchanged from original_source's os.environ
// lookups. Load overlays AWS_REGION, S3_BUCKET_NAME, DYNAMODB_TABLE_NAME and
// LOG_LEVEL on top of the defaults, config file and double-underscore-nested
// WASMFORGE__ env layer, so both a config file and the original deployment's
// env vars keep working; CORE_SERVICE_ENDPOINT and CORE_SERVICE_TIMEOUT are
// read by compileservice.NewFromEnv, not by Load.
package config

import (
	"os"

	coreconfig "github.com/openchoreo/wasmforge/internal/config"
)

// Config is the top-level configuration structure for wasmforge-api.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	AWS     AWSConfig     `koanf:"aws"`
	Build   BuildConfig   `koanf:"build"`
}

// AWSConfig defines the object-store and task-store backing resources.
type AWSConfig struct {
	// Region is the AWS region for both S3 and DynamoDB clients.
	Region string `koanf:"region"`
	// S3Bucket is the bucket holding uploaded source trees and built artifacts.
	S3Bucket string `koanf:"s3_bucket"`
	// DynamoDBTable is the table holding build task records.
	DynamoDBTable string `koanf:"dynamodb_table"`
}

// BuildConfig defines the Local Build Executor's dependencies.
type BuildConfig struct {
	// VenvTemplatePath points at a pre-built virtual environment with
	// componentize-py and the Spin SDK already installed.
	VenvTemplatePath string `koanf:"venv_template_path"`
}

// Defaults returns the default configuration, mirroring the original
// service's class constants where spec.md doesn't otherwise name a value.
func Defaults() Config {
	return Config{
		Server:  ServerDefaults(),
		Logging: LoggingDefaults(),
		AWS: AWSConfig{
			Region:        "ap-northeast-2",
			S3Bucket:      "sfbank-blue-functions-code-bucket",
			DynamoDBTable: "sfbank-blue-FaaSData",
		},
		Build: BuildConfig{
			VenvTemplatePath: "/opt/wasmforge/venv-template",
		},
	}
}

// Validate validates the full configuration tree.
func (c *Config) Validate() error {
	path := coreconfig.NewPath("config")
	var errs coreconfig.ValidationErrors

	errs = append(errs, c.Server.Validate(path.Child("server"))...)
	errs = append(errs, c.Logging.Validate(path.Child("logging"))...)
	if c.AWS.S3Bucket == "" {
		errs = append(errs, coreconfig.Required(path.Child("aws").Child("s3_bucket")))
	}
	if c.AWS.DynamoDBTable == "" {
		errs = append(errs, coreconfig.Required(path.Child("aws").Child("dynamodb_table")))
	}

	return errs.OrNil()
}

// Load builds a Loader, applies defaults and the optional config file, then
// overlays spec.md's literal legacy environment variable names before
// unmarshaling and validating the result.
func Load(configPath string) (*Config, error) {
	loader := coreconfig.NewLoader("WASMFORGE")

	defaults := Defaults()
	if err := loader.LoadWithDefaults(defaults, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := loader.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	applyLegacyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyLegacyEnv overlays the literal environment variable names spec.md
// §6 names, taking priority over any config file or WASMFORGE__ env value,
// matching original_source's direct os.environ.get() reads.
func applyLegacyEnv(cfg *Config) {
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("S3_BUCKET_NAME"); v != "" {
		cfg.AWS.S3Bucket = v
	}
	if v := os.Getenv("DYNAMODB_TABLE_NAME"); v != "" {
		cfg.AWS.DynamoDBTable = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
