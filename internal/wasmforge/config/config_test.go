// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/openchoreo/wasmforge/internal/config"
)

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingRequiredAWSFields(t *testing.T) {
	cfg := Defaults()
	cfg.AWS.S3Bucket = ""
	cfg.AWS.DynamoDBTable = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3_bucket")
	assert.Contains(t, err.Error(), "dynamodb_table")
}

func TestServerConfig_Validate_RejectsOutOfRangePort(t *testing.T) {
	s := ServerDefaults()
	s.Port = 70000

	errs := s.Validate(coreconfig.NewPath("server"))
	require.NotEmpty(t, errs)
}

func TestLoggingConfig_Validate_RejectsUnknownLevel(t *testing.T) {
	l := LoggingDefaults()
	l.Level = "verbose"

	errs := l.Validate(coreconfig.NewPath("logging"))
	require.NotEmpty(t, errs)
}

func TestServerConfig_ToServerConfig(t *testing.T) {
	s := ServerDefaults()
	s.BindAddress = "127.0.0.1"
	s.Port = 9090

	sc := s.ToServerConfig()
	assert.Equal(t, "127.0.0.1:9090", sc.Addr)
	assert.Equal(t, s.Timeouts.Read, sc.ReadTimeout)
	assert.Equal(t, s.Timeouts.Shutdown, sc.ShutdownTimeout)
}
