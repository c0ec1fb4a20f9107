// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cluster implements a primary/worker process supervisor: N
// worker processes each run an independent acceptor+pipeline, bound to
// a shared listener via SO_REUSEPORT-style semantics, with
// rate-limited auto-restart, rolling restart, scaling, and
// signal-driven cluster-wide graceful shutdown (spec.md §4.12).
package cluster

import "context"

// WorkerID identifies a worker slot. Slot identity survives restarts:
// a respawned worker keeps its predecessor's id.
type WorkerID int

// Worker is the supervisor's view of one running worker process. The
// Spawner that creates a Worker owns translating this interface onto
// an actual OS process (see ExecSpawner) or, in tests, a fake.
type Worker interface {
	// ID returns the worker slot this process occupies.
	ID() WorkerID

	// Ready is closed once the worker signals it is accepting
	// connections.
	Ready() <-chan struct{}

	// Exited receives exactly once, when the process exits for any
	// reason (nil error on a clean, requested exit).
	Exited() <-chan error

	// Stop asks the worker to shut down gracefully and blocks until it
	// exits or ctx is done, whichever comes first.
	Stop(ctx context.Context) error

	// Kill forcibly terminates the worker.
	Kill() error
}

// Spawner starts a new worker process occupying slot id.
type Spawner func(id WorkerID) (Worker, error)
