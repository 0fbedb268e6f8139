// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import "errors"

// ErrNotFound is returned when a task cannot be located under either the
// canonical or the legacy key format.
var ErrNotFound = errors.New("taskstore: task not found")
