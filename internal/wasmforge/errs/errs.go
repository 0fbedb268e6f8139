// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package errs defines the closed set of error kinds the orchestrator
// recognises (spec.md 7): input rejected, external-store failure, tooling
// failure, remote-service failure, cluster failure, and an internal
// catch-all. Each stage returns a structured error of one of these kinds
// instead of letting an arbitrary error cross a pipeline boundary.
package errs

import "fmt"

// Kind is a closed enumeration of the error categories the orchestrator
// distinguishes when deciding how to report a pipeline failure.
type Kind string

const (
	KindInputRejected    Kind = "input_rejected"
	KindExternalStore    Kind = "external_store_failure"
	KindTooling          Kind = "tooling_failure"
	KindRemoteService    Kind = "remote_service_failure"
	KindCluster          Kind = "cluster_failure"
	KindInternal         Kind = "internal"
)

// Error wraps an underlying cause with a Kind so the orchestrator can map
// it onto a task's ErrorMessage and, at the HTTP boundary, onto the right
// status code.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// InputRejected builds an error for unsupported file extensions, invalid
// archives, missing project descriptors, or type-check failures.
func InputRejected(format string, args ...any) *Error {
	return New(KindInputRejected, fmt.Sprintf(format, args...))
}

// ExternalStore builds an error for object-store upload/download failures.
func ExternalStore(cause error, format string, args ...any) *Error {
	return Wrap(KindExternalStore, fmt.Sprintf(format, args...), cause)
}

// Tooling builds an error for subprocess failures (install, compile, push),
// tool-not-found, or timeout.
func Tooling(cause error, format string, args ...any) *Error {
	return Wrap(KindTooling, fmt.Sprintf(format, args...), cause)
}

// RemoteService builds an error for compile-service non-success responses,
// timeouts, or transport errors.
func RemoteService(cause error, format string, args ...any) *Error {
	return Wrap(KindRemoteService, fmt.Sprintf(format, args...), cause)
}

// Cluster builds an error for namespace-not-found, apply failures, or a
// missing kubectl binary.
func Cluster(cause error, format string, args ...any) *Error {
	return Wrap(KindCluster, fmt.Sprintf(format, args...), cause)
}

// Internal builds an error for an unexpected internal failure, such as
// failing to create a scratch work directory.
func Internal(cause error, format string, args ...any) *Error {
	return Wrap(KindInternal, fmt.Sprintf(format, args...), cause)
}
