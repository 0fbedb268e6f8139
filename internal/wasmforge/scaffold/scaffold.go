// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package scaffold invokes "spin kube scaffold" to generate a SpinApp
// Kubernetes manifest from an already-pushed image reference, grounded on
// original_source/src/services/scaffold.py.
package scaffold

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
)

// Result is the outcome of a scaffold invocation.
type Result struct {
	Success     bool
	YAMLContent string
	FilePath    string
	Error       string
}

// Invoker runs "spin kube scaffold" as a subprocess.
type Invoker struct{}

// New constructs an Invoker.
func New() *Invoker { return &Invoker{} }

// BuildCommand assembles the spin kube scaffold argument list.
func BuildCommand(imageRef, component string, replicas int, outputPath string) []string {
	cmd := []string{"spin", "kube", "scaffold", "--from", imageRef}
	if component != "" {
		cmd = append(cmd, "--component", component)
	}
	cmd = append(cmd, "--replicas", strconv.Itoa(replicas))
	if outputPath != "" {
		cmd = append(cmd, "--out", outputPath)
	}
	return cmd
}

// Scaffold runs the scaffold command. replicas defaults to 1 when <= 0.
func (i *Invoker) Scaffold(ctx context.Context, imageRef, component string, replicas int, outputPath string) Result {
	if replicas <= 0 {
		replicas = 1
	}
	args := BuildCommand(imageRef, component, replicas, outputPath)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdout, err := cmd.Output()

	if errors.Is(err, exec.ErrNotFound) {
		return Result{Success: false, Error: "spin CLI not found. Please ensure spin is installed and in PATH"}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := string(exitErr.Stderr)
		if stderr == "" {
			stderr = string(stdout)
		}
		if stderr == "" {
			stderr = "Unknown error occurred"
		}
		return Result{Success: false, Error: stderr}
	}
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	res := Result{Success: true, FilePath: outputPath}
	if outputPath == "" {
		res.YAMLContent = string(stdout)
	}
	return res
}
