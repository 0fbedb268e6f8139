// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package deploy applies a SpinApp manifest to a Kubernetes cluster and
// queries the Service automatically created alongside it, grounded on
// original_source/src/services/deploy.py.
package deploy

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

const (
	namespaceCheckTimeout = 30 * time.Second
	applyTimeout          = 60 * time.Second
	serviceQueryTimeout   = 30 * time.Second
)

// ServiceStatus mirrors the three states a queried Service can be in.
type ServiceStatus string

const (
	ServiceFound    ServiceStatus = "found"
	ServicePending  ServiceStatus = "pending"
	ServiceNotFound ServiceStatus = "not_found"
)

// ServiceQueryResult is the outcome of querying a SpinApp's Service.
type ServiceQueryResult struct {
	Status   ServiceStatus
	Endpoint string
}

// Result is the outcome of deploying a SpinApp.
type Result struct {
	Success           bool
	AppName           string
	Namespace         string
	ServiceName       string
	ServiceStatus     ServiceStatus
	Endpoint          string
	EnableAutoscaling bool
	UseSpot           bool
	Error             string
}

// Deployer drives kubectl to apply manifests and query the resulting Service.
type Deployer struct {
	nameGen *NameGenerator
}

// New constructs a Deployer.
func New() *Deployer {
	return &Deployer{nameGen: NewNameGenerator()}
}

// CheckNamespace reports whether namespace exists in the cluster.
func (d *Deployer) CheckNamespace(ctx context.Context, namespace string) bool {
	ctx, cancel := context.WithTimeout(ctx, namespaceCheckTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "kubectl", "get", "namespace", namespace)
	return cmd.Run() == nil
}

// ApplyManifest applies manifestPath to the cluster.
func (d *Deployer) ApplyManifest(ctx context.Context, manifestPath string) error {
	ctx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "kubectl", "apply", "-f", manifestPath)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return errors.New("kubectl apply timed out")
	}
	if errors.Is(err, exec.ErrNotFound) {
		return errors.New("kubectl not found")
	}
	if err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = "Failed to apply manifest"
		}
		return errors.New(msg)
	}
	return nil
}

// GetService queries the Service automatically created for a SpinApp.
func (d *Deployer) GetService(ctx context.Context, appName, namespace string) ServiceQueryResult {
	ctx, cancel := context.WithTimeout(ctx, serviceQueryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "kubectl", "get", "service", appName,
		"-n", namespace, "-o", "jsonpath={.spec.clusterIP}")
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return ServiceQueryResult{Status: ServicePending}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return ServiceQueryResult{Status: ServiceNotFound}
	}

	clusterIP := strings.TrimSpace(stdout.String())

	if err == nil && clusterIP != "" {
		if clusterIP != "None" {
			return ServiceQueryResult{
				Status:   ServiceFound,
				Endpoint: appName + "." + namespace + ".svc.cluster.local",
			}
		}
		return ServiceQueryResult{Status: ServicePending}
	}

	if err != nil {
		if strings.Contains(stderr.String(), "NotFound") || strings.Contains(strings.ToLower(stderr.String()), "not found") {
			return ServiceQueryResult{Status: ServiceNotFound}
		}
		return ServiceQueryResult{Status: ServicePending}
	}

	return ServiceQueryResult{Status: ServicePending}
}

// Deploy checks the namespace, applies the manifest, and queries the
// resulting Service.
func (d *Deployer) Deploy(ctx context.Context, manifestPath, namespace, appName string, enableAutoscaling, useSpot bool) Result {
	if !d.CheckNamespace(ctx, namespace) {
		return Result{
			Success:           false,
			AppName:           appName,
			Namespace:         namespace,
			ServiceStatus:     ServiceNotFound,
			EnableAutoscaling: enableAutoscaling,
			UseSpot:           useSpot,
			Error:             "Namespace '" + namespace + "' not found",
		}
	}

	finalAppName := appName
	if finalAppName == "" {
		finalAppName = d.nameGen.Generate()
	}

	if err := d.ApplyManifest(ctx, manifestPath); err != nil {
		return Result{
			Success:           false,
			AppName:           finalAppName,
			Namespace:         namespace,
			ServiceStatus:     ServiceNotFound,
			EnableAutoscaling: enableAutoscaling,
			UseSpot:           useSpot,
			Error:             err.Error(),
		}
	}

	svc := d.GetService(ctx, finalAppName, namespace)

	return Result{
		Success:           true,
		AppName:           finalAppName,
		Namespace:         namespace,
		ServiceName:       finalAppName,
		ServiceStatus:     svc.Status,
		Endpoint:          svc.Endpoint,
		EnableAutoscaling: enableAutoscaling,
		UseSpot:           useSpot,
	}
}
