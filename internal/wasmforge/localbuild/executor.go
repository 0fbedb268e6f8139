// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package localbuild is the fallback build path used when no compile
// service is configured: it prepares a reusable tool environment, installs
// dependencies, invokes the compiler, and produces a WASM artifact.
// Grounded on original_source/src/services/build.py.
package localbuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/openchoreo/wasmforge/internal/wasmforge/errs"
)

const (
	installTimeout = 300 * time.Second
	buildTimeout   = 600 * time.Second
)

// Result is the outcome of a build attempt.
type Result struct {
	Success  bool
	WasmPath string
	Error    string
}

// Executor runs the venv-copy, pip-install, spin-build pipeline against a
// prepared application directory.
type Executor struct {
	VenvTemplatePath string
	logger           *slog.Logger
}

// New constructs an Executor. venvTemplatePath points at a pre-built venv
// with componentize-py and spin-sdk already installed.
func New(venvTemplatePath string, logger *slog.Logger) *Executor {
	return &Executor{VenvTemplatePath: venvTemplatePath, logger: logger.With("component", "localbuild")}
}

// PrepareEnvironment copies the venv template into appDir/.venv, preserving
// symlinks, removing any pre-existing .venv first.
func (e *Executor) PrepareEnvironment(appDir string) error {
	if _, err := os.Stat(e.VenvTemplatePath); err != nil {
		return fmt.Errorf("venv template not found at %s", e.VenvTemplatePath)
	}

	targetVenv := filepath.Join(appDir, ".venv")
	if _, err := os.Stat(targetVenv); err == nil {
		if err := os.RemoveAll(targetVenv); err != nil {
			return fmt.Errorf("failed to remove existing venv: %w", err)
		}
	}

	if err := copyTreePreservingSymlinks(e.VenvTemplatePath, targetVenv); err != nil {
		return fmt.Errorf("failed to copy venv template: %w", err)
	}

	if _, err := os.Stat(filepath.Join(targetVenv, "bin")); err != nil {
		return errors.New("invalid venv template: bin directory not found")
	}
	return nil
}

// InstallRequirements runs "pip install -r requirements.txt" inside the
// app's venv when a requirements.txt is present; a no-op otherwise.
func (e *Executor) InstallRequirements(ctx context.Context, appDir string) error {
	reqFile := filepath.Join(appDir, "requirements.txt")
	if _, err := os.Stat(reqFile); err != nil {
		return nil
	}

	venvPip := filepath.Join(appDir, ".venv", "bin", "pip")
	if _, err := os.Stat(venvPip); err != nil {
		return errors.New("pip not found in venv")
	}

	ctx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, venvPip, "install", "-r", reqFile)
	cmd.Dir = appDir
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return errors.New("pip install timed out after 5 minutes")
	}
	if err != nil {
		return fmt.Errorf("pip install failed: %s", string(out))
	}
	return nil
}

// Build executes "spin build" inside appDir with PATH/VIRTUAL_ENV pointed at
// the copied venv, then locates the produced WASM artifact: app.wasm first,
// falling back to any *.wasm file in appDir.
func (e *Executor) Build(ctx context.Context, appDir string) Result {
	venvPath := filepath.Join(appDir, ".venv")
	env := append(os.Environ(),
		"VIRTUAL_ENV="+venvPath,
		"PATH="+filepath.Join(venvPath, "bin")+string(os.PathListSeparator)+os.Getenv("PATH"),
	)

	ctx, cancel := context.WithTimeout(ctx, buildTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "spin", "build")
	cmd.Dir = appDir
	cmd.Env = env
	out, err := cmd.CombinedOutput()

	if ctx.Err() == context.DeadlineExceeded {
		return Result{Success: false, Error: "spin build timed out after 10 minutes"}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return Result{Success: false, Error: "spin CLI not found. Please ensure spin is installed and in PATH"}
	}
	var execErr *exec.ExitError
	if errors.As(err, &execErr) {
		return Result{Success: false, Error: string(out)}
	}
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("Build failed: %v", err)}
	}

	wasmPath := filepath.Join(appDir, "app.wasm")
	if _, statErr := os.Stat(wasmPath); statErr == nil {
		return Result{Success: true, WasmPath: wasmPath}
	}

	matches, _ := filepath.Glob(filepath.Join(appDir, "*.wasm"))
	if len(matches) > 0 {
		return Result{Success: true, WasmPath: matches[0]}
	}
	return Result{Success: false, Error: "Build succeeded but WASM artifact not found"}
}

// FullBuild runs the complete pipeline: prepare environment, install
// requirements, then build.
func (e *Executor) FullBuild(ctx context.Context, appDir string) Result {
	if err := e.PrepareEnvironment(appDir); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("Environment setup failed: %v", err)}
	}
	if err := e.InstallRequirements(ctx, appDir); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("Requirements installation failed: %v", err)}
	}
	return e.Build(ctx, appDir)
}

// AsPipelineError converts a failed Result into a typed tooling error for
// the orchestrator.
func (r Result) AsPipelineError() error {
	if r.Success {
		return nil
	}
	return errs.Tooling(nil, "%s", r.Error)
}

func copyTreePreservingSymlinks(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(linkTarget, target)
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}
