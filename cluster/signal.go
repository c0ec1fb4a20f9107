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

package cluster

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Run starts the supervisor and blocks until SIGTERM or SIGINT is
// received, at which point it runs a cluster-wide graceful shutdown
// bounded by s.cfg.ShutdownTimeout and returns.
//
// Example:
//
//	sup := cluster.NewSupervisor(cluster.ExecSpawner(os.Args[0], []string{"-worker"}, os.Environ()),
//	    cluster.Config{Count: runtime.NumCPU()})
//	if err := cluster.Run(context.Background(), sup); err != nil {
//	    log.Fatal(err)
//	}
func Run(ctx context.Context, s *Supervisor) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
