// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package ingest turns an uploaded zip archive or single Python file into a
// ready-to-build Spin application directory, grounded on
// original_source/src/services/file_handler.py.
package ingest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// spinTOMLTemplate mirrors SPIN_TOML_TEMPLATE: a minimal single-component
// HTTP-triggered Spin manifest wrapping a componentize-py build command.
const spinTOMLTemplate = `spin_manifest_version = 2

[application]
name = "%[1]s"
version = "0.1.0"
authors = ["Auto Generated"]
description = ""

[[trigger.http]]
route = "/..."
component = "%[2]s"

[component.%[2]s]
source = "app.wasm"
[component.%[2]s.build]
command = "componentize-py -w spin-http componentize %[3]s -o app.wasm"
`

const incomingHandlerShim = `

# Auto-generated shim to expose IncomingHandler for spin-python runtime
from spin_sdk.http import IncomingHandler as _BaseIncomingHandler

try:
    _factory = init_incoming_handler
except NameError:
    _factory = None

if _factory is not None:
    class IncomingHandler(_BaseIncomingHandler):
        def __init__(self):
            self._delegate = _factory()

        def handle_request(self, request):
            return self._delegate.handle_request(request)
`

// Result is the outcome of ingesting an upload.
type Result struct {
	Success bool
	AppDir  string
	Error   string
}

// Handler prepares a build-ready application directory from raw uploads.
type Handler struct {
	logger *slog.Logger
}

// New constructs a Handler.
func New(logger *slog.Logger) *Handler {
	return &Handler{logger: logger.With("component", "ingest")}
}

// HandleZip extracts zipData into workDir and verifies spin.toml exists at
// the archive root.
func (h *Handler) HandleZip(zipData []byte, workDir string) Result {
	reader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return Result{Success: false, Error: "Invalid zip file format"}
	}

	for _, f := range reader.File {
		target := filepath.Join(workDir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(workDir)+string(os.PathSeparator)) && target != filepath.Clean(workDir) {
			return Result{Success: false, Error: "Invalid or corrupted zip file"}
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return Result{Success: false, Error: fmt.Sprintf("Failed to extract zip file: %v", err)}
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return Result{Success: false, Error: fmt.Sprintf("Failed to extract zip file: %v", err)}
		}
		if err := extractZipEntry(f, target); err != nil {
			return Result{Success: false, Error: fmt.Sprintf("Failed to extract zip file: %v", err)}
		}
	}

	if _, err := os.Stat(filepath.Join(workDir, "spin.toml")); err != nil {
		return Result{Success: false, Error: "spin.toml not found in zip archive"}
	}

	return Result{Success: true, AppDir: workDir}
}

func extractZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// HandleSinglePy writes a single Python source file plus a generated
// spin.toml into workDir, injecting an IncomingHandler shim when the source
// defines init_incoming_handler but not the class spin-http expects.
func (h *Handler) HandleSinglePy(pyContent []byte, filename, workDir string) Result {
	filename = strings.TrimSpace(filename)
	decoded := string(pyContent)

	if !strings.Contains(decoded, "class IncomingHandler") && strings.Contains(decoded, "init_incoming_handler") {
		h.logger.Info("auto-injecting IncomingHandler shim", "filename", filename)
		decoded += incomingHandlerShim
		pyContent = []byte(decoded)
	}

	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	moduleName := strings.ReplaceAll(strings.TrimSpace(stem), " ", "_")
	appName := moduleName

	sanitizedFilename := moduleName + ".py"
	if err := os.WriteFile(filepath.Join(workDir, sanitizedFilename), pyContent, 0o644); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("Failed to handle Python file: %v", err)}
	}

	spinToml := fmt.Sprintf(spinTOMLTemplate, appName, appName, moduleName)
	if err := os.WriteFile(filepath.Join(workDir, "spin.toml"), []byte(spinToml), 0o644); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("Failed to handle Python file: %v", err)}
	}

	return Result{Success: true, AppDir: workDir}
}

// CreateTempWorkDir creates a fresh temporary working directory.
func (h *Handler) CreateTempWorkDir() (string, error) {
	return os.MkdirTemp("", "spin_build_")
}
