// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"time"

	coreconfig "github.com/openchoreo/wasmforge/internal/config"
	"github.com/openchoreo/wasmforge/internal/server"
)

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	// BindAddress is the address to bind the HTTP server to.
	BindAddress string `koanf:"bind_address"`
	// Port is the HTTP server port.
	Port int `koanf:"port"`
	// Timeouts defines HTTP server timeout settings.
	Timeouts TimeoutsConfig `koanf:"timeouts"`
}

// TimeoutsConfig defines HTTP server timeout settings.
type TimeoutsConfig struct {
	Read     time.Duration `koanf:"read"`
	Write    time.Duration `koanf:"write"`
	Idle     time.Duration `koanf:"idle"`
	Shutdown time.Duration `koanf:"shutdown"`
}

// TimeoutsDefaults returns the default timeout configuration.
func TimeoutsDefaults() TimeoutsConfig {
	return TimeoutsConfig{
		Read:     15 * time.Second,
		Write:    15 * time.Second,
		Idle:     60 * time.Second,
		Shutdown: 30 * time.Second,
	}
}

// ServerDefaults returns the default server configuration.
func ServerDefaults() ServerConfig {
	return ServerConfig{
		BindAddress: "0.0.0.0",
		Port:        8000,
		Timeouts:    TimeoutsDefaults(),
	}
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate(path *coreconfig.Path) coreconfig.ValidationErrors {
	var errs coreconfig.ValidationErrors

	if err := coreconfig.MustBeInRange(path.Child("port"), c.Port, 1, 65535); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, c.Timeouts.Validate(path.Child("timeouts"))...)

	return errs
}

// Validate validates the timeout configuration.
func (c *TimeoutsConfig) Validate(path *coreconfig.Path) coreconfig.ValidationErrors {
	var errs coreconfig.ValidationErrors

	if err := coreconfig.MustBeNonNegative(path.Child("read"), c.Read); err != nil {
		errs = append(errs, err)
	}
	if err := coreconfig.MustBeNonNegative(path.Child("write"), c.Write); err != nil {
		errs = append(errs, err)
	}
	if err := coreconfig.MustBeNonNegative(path.Child("idle"), c.Idle); err != nil {
		errs = append(errs, err)
	}
	if err := coreconfig.MustBeNonNegative(path.Child("shutdown"), c.Shutdown); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// ToServerConfig converts to the server library config.
func (c *ServerConfig) ToServerConfig() server.Config {
	return server.Config{
		Addr:            fmt.Sprintf("%s:%d", c.BindAddress, c.Port),
		ReadTimeout:     c.Timeouts.Read,
		WriteTimeout:    c.Timeouts.Write,
		IdleTimeout:     c.Timeouts.Idle,
		ShutdownTimeout: c.Timeouts.Shutdown,
	}
}
