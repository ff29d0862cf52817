// go-svl
// Copyright (c) 2025 The go-svl Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-svl.
//
// go-svl is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-svl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-svl; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package retry provides the bounded-attempt helper shared by the upload
// orchestrator.
package retry

import (
	"context"
	"time"
)

// Operation is one attempt of a retryable operation.
// Returns: result, shouldRetry, error.
// shouldRetry is only consulted when err is non-nil: it marks the failure
// as one more attempt may fix (a missed reset window, say) rather than a
// permanent one.
type Operation[T any] func() (T, bool, error)

// Config configures retry behavior.
type Config struct {
	// OnRetry is called before each re-attempt with the attempt number
	// just failed and its error.
	OnRetry func(attempt int, err error)

	// MaxAttempts bounds total attempts. Values below 1 mean one attempt.
	MaxAttempts int

	// Delay is slept between attempts.
	Delay time.Duration
}

// WithRetry executes op up to cfg.MaxAttempts times, stopping early on
// success, on a non-retryable error, or on context cancellation. The error
// of the final attempt is returned, not a generic exhaustion error, so
// callers keep the distinguishable failure kind.
func WithRetry[T any](ctx context.Context, cfg Config, op Operation[T]) (T, error) {
	var zero T

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		result, shouldRetry, err := op()
		if err == nil {
			return result, nil
		}
		if !shouldRetry || attempt >= attempts {
			return zero, err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		if cfg.Delay > 0 {
			t := time.NewTimer(cfg.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return zero, ctx.Err()
			case <-t.C:
			}
		} else if err := ctx.Err(); err != nil {
			return zero, err
		}
	}
}
