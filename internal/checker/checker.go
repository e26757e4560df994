/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package checker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/NearNodeFlash/nnf-nvmeof/internal/checker/metrics"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/host"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/inventory"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/nvme"
	"github.com/NearNodeFlash/nnf-nvmeof/pkg/var_handler"
)

const defaultParallel = 4

// Checker runs discovery checks against the targets of an inventory
type Checker struct {
	Log       logr.Logger
	Host      host.Host
	Inventory *inventory.Inventory

	// Store receives sweep results when set
	Store *Store

	// DiscoverCommand template; empty selects the default
	DiscoverCommand string

	// Parallel bounds concurrent checks within a sweep
	Parallel int

	sweepCount int64

	mutex sync.Mutex
	last  *Summary
}

// Result of one discovery check
type Result struct {
	Target       string        `json:"target"`
	Address      string        `json:"address"`
	Port         string        `json:"port"`
	SubNQN       string        `json:"subnqn"`
	Discoverable bool          `json:"discoverable"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
	CheckedAt    time.Time     `json:"checkedAt"`
}

// Summary of one sweep over the inventory
type Summary struct {
	Sweep          int64         `json:"sweep"`
	Started        time.Time     `json:"started"`
	Duration       time.Duration `json:"duration"`
	Discoverable   int           `json:"discoverable"`
	Undiscoverable int           `json:"undiscoverable"`
	Errors         int           `json:"errors"`
	Results        []Result      `json:"results"`
}

// DiscoverTemplateFor applies a target's template variables to the
// discovery command template. $ADDR and $PORT are left for the check
// to fill.
func DiscoverTemplateFor(template string, target inventory.Target) string {
	if len(template) == 0 {
		template = nvme.DefaultDiscoverCommand
	}

	if len(target.Vars) == 0 {
		return template
	}

	return var_handler.NewVarHandler(target.Vars).ReplaceAll(template)
}

// CheckTarget runs a single discovery check. The discovery command is
// invoked once; a command failure lands in the Result rather than
// aborting the caller.
func (c *Checker) CheckTarget(target inventory.Target) Result {
	start := time.Now()

	template := DiscoverTemplateFor(c.DiscoverCommand, target)
	discoverable, err := nvme.SubsystemIsDiscoverableWith(c.Host, template, target.Address, target.Port, target.SubNQN)

	result := Result{
		Target:       target.Name,
		Address:      target.Address,
		Port:         target.Port,
		SubNQN:       target.SubNQN,
		Discoverable: discoverable,
		Duration:     time.Since(start),
		CheckedAt:    start,
	}

	switch {
	case err != nil:
		result.Error = err.Error()
		metrics.NvmeofChecksTotal.WithLabelValues("error").Inc()
		c.Log.Error(err, "Discovery check failed", "target", target.Name)
	case discoverable:
		metrics.NvmeofChecksTotal.WithLabelValues("discoverable").Inc()
		metrics.NvmeofTargetDiscoverable.WithLabelValues(target.Name).Set(1)
		c.Log.V(1).Info("Target discoverable", "target", target.Name, "subnqn", target.SubNQN)
	default:
		metrics.NvmeofChecksTotal.WithLabelValues("undiscoverable").Inc()
		metrics.NvmeofTargetDiscoverable.WithLabelValues(target.Name).Set(0)
		c.Log.Info("Target not discoverable", "target", target.Name, "subnqn", target.SubNQN)
	}

	metrics.NvmeofCheckDurationSeconds.Observe(result.Duration.Seconds())

	return result
}

// Sweep checks every inventory target once. A failing target is
// recorded in its Result and never aborts the sweep; only context
// cancellation stops a sweep early.
func (c *Checker) Sweep(ctx context.Context) (Summary, error) {
	sweep := atomic.AddInt64(&c.sweepCount, 1)
	metrics.NvmeofSweepsTotal.Inc()

	started := time.Now()
	c.Log.Info("Sweep started", "sweep", sweep, "targets", len(c.Inventory.Targets))

	results := make([]Result, len(c.Inventory.Targets))

	workers := c.Parallel
	if workers < 1 {
		workers = defaultParallel
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i := range c.Inventory.Targets {
		i := i
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			results[i] = c.CheckTarget(c.Inventory.Targets[i])
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Sweep:   sweep,
		Started: started,
		Results: results,
	}

	for _, result := range results {
		switch {
		case len(result.Error) != 0:
			summary.Errors++
		case result.Discoverable:
			summary.Discoverable++
		default:
			summary.Undiscoverable++
		}
	}

	summary.Duration = time.Since(started)

	if c.Store != nil {
		if err := c.Store.RecordSweep(sweep, results); err != nil {
			return summary, fmt.Errorf("could not record sweep %d: %w", sweep, err)
		}
	}

	c.mutex.Lock()
	c.last = &summary
	c.mutex.Unlock()

	c.Log.Info("Sweep finished", "sweep", sweep,
		"discoverable", summary.Discoverable,
		"undiscoverable", summary.Undiscoverable,
		"errors", summary.Errors,
		"duration", summary.Duration)

	return summary, nil
}

// LastSummary returns the most recent completed sweep, if any
func (c *Checker) LastSummary() (Summary, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.last == nil {
		return Summary{}, false
	}

	return *c.last, true
}
