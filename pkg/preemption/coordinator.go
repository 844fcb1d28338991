/*
Copyright 2019 Cloudera, Inc.  All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package preemption is the outward-facing Cycle Coordinator: it drives
// the Selection Engine, reconciles the outcome with the Relationship
// Store, advances the grace timer and exposes the ready-to-kill set.
// Every public method here is synchronous and takes the single
// process-wide readers-writer lock for its declared scope; there are no
// internal goroutines or suspension points.
package preemption

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/cloudera/yunikorn-preemption/pkg/common/configs"
	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
	"github.com/cloudera/yunikorn-preemption/pkg/log"
	"github.com/cloudera/yunikorn-preemption/pkg/metrics"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/coretypes"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/measures"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/relationship"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/selection"
)

const (
	stateMarked       = "marked"
	stateKillable     = "killable"
	eventGraceElapsed = "graceElapsed"
)

// Coordinator is the long-lived, independently constructible preemption
// engine. Tests build one with an injected clock; production wires a
// real clock.Clock.
type Coordinator struct {
	lock sync.RWMutex

	measures      *measures.Store
	relationships *relationship.Store
	engine        *selection.Engine
	clock         clock.Clock
	config        configs.PreemptionConfig

	queueUsage map[string]coretypes.ResourceUsage
	killSet    map[string]bool
	grace      map[string]*fsm.FSM

	cycle int64
}

// NewCoordinator builds a Coordinator. calc and clk both accept nil,
// falling back to componentwise dominance and the real wall clock.
func NewCoordinator(calc resources.ResourceCalculator, clk clock.Clock, conf configs.PreemptionConfig) *Coordinator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Coordinator{
		measures:      measures.NewStore(),
		relationships: relationship.NewStore(),
		engine:        selection.NewEngine(calc),
		clock:         clk,
		config:        conf,
		queueUsage:    make(map[string]coretypes.ResourceUsage),
		killSet:       make(map[string]bool),
		grace:         make(map[string]*fsm.FSM),
	}
}

// TryPreempt runs one preemption cycle: it filters candidates to
// different-queue relative to the demander, asks the Selection Engine
// for a dry-run admission set, and reconciles the result against the
// Relationship Store, advancing or starting each admitted container's
// grace timer. Returns false, mutating nothing, when the requirement
// could not be satisfied by the scan.
func (c *Coordinator) TryPreempt(requirement coretypes.ResourceRequirement, candidates []coretypes.RMContainer, partition string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	start := c.clock.Now()
	defer func() { metrics.ObserveCycleDuration(c.clock.Now().Sub(start)) }()

	c.cycle++

	demanderQueue := requirement.Application.Queue()
	demanderUser := requirement.Application.User()
	filtered := make([]coretypes.RMContainer, 0, len(candidates))
	for _, cand := range candidates {
		if Classify(demanderQueue, cand.Queue(), demanderUser, cand.User()) == coretypes.DifferentQueue {
			filtered = append(filtered, cand)
		}
	}

	// A candidate that already carries a mark is counted in its queue's
	// committed total; take it out of this cycle's dry-run snapshot so
	// presenting it again does not charge its allocation twice.
	discounted := make(map[string]bool)
	for _, cand := range filtered {
		mark, marked := c.relationships.Get(cand.ContainerID())
		if marked && !discounted[cand.ContainerID()] && mark.ContainerQueueMeasure.Partition == partition {
			discounted[cand.ContainerID()] = true
			mark.ContainerQueueMeasure.DryRunSnapshot(c.cycle).SubFrom(mark.Container.AllocatedResource())
		}
	}

	selected, ok := c.engine.Select(filtered, requirement.Required, c.measures, c.queueUsage, partition, c.cycle)
	if !ok {
		return false
	}

	now := c.clock.Now()
	for _, cand := range selected {
		c.reconcileMark(cand, requirement, partition, now)
	}
	return true
}

// reconcileMark implements step 4 of tryPreempt for one admitted
// candidate: insert a fresh mark, replace a mark made under a different
// requirement while inheriting its startTimestamp, or - for a mark made
// under an equal requirement - promote it once the grace period has
// elapsed.
func (c *Coordinator) reconcileMark(cand coretypes.RMContainer, requirement coretypes.ResourceRequirement, partition string, now time.Time) {
	containerQueueMeasure := c.measures.GetOrCreate(cand.Queue(), partition)
	demandingQueueMeasure := c.measures.GetOrCreate(requirement.Application.Queue(), partition)

	existing, ok := c.relationships.Get(cand.ContainerID())
	switch {
	case !ok:
		c.relationships.AddMark(cand, requirement, coretypes.DifferentQueue, containerQueueMeasure, demandingQueueMeasure, now, now)
		c.startGrace(cand.ContainerID())
		metrics.ObserveMark(cand.Queue(), partition, cand.AllocatedResource())

	case existing.Requirement.Equals(requirement):
		existing.LastListedTimestamp = now
		if now.Sub(existing.StartTimestamp) > c.config.WaitBeforeKill() {
			c.promote(cand.ContainerID())
		}

	default:
		startTimestamp := existing.StartTimestamp
		c.relationships.UnmarkContainer(cand.ContainerID())
		c.relationships.AddMark(cand, requirement, coretypes.DifferentQueue, containerQueueMeasure, demandingQueueMeasure, startTimestamp, now)
	}
}

// startGrace arms the grace-period state machine for a freshly marked
// container: marked -> killable once graceElapsed fires.
func (c *Coordinator) startGrace(containerID string) {
	c.grace[containerID] = fsm.NewFSM(
		stateMarked,
		fsm.Events{
			{Name: eventGraceElapsed, Src: []string{stateMarked}, Dst: stateKillable},
		},
		fsm.Callbacks{
			stateKillable: func(_ context.Context, _ *fsm.Event) {
				c.killSet[containerID] = true
				metrics.SetKillSetSize(len(c.killSet))
			},
		},
	)
}

// promote fires graceElapsed against containerID's grace machine,
// landing it in the kill set via the enter-killable callback. A
// container with no tracked machine (shouldn't happen given the
// add/unmark discipline) is added to the kill set directly, logged as
// an invariant violation.
func (c *Coordinator) promote(containerID string) {
	m, ok := c.grace[containerID]
	if !ok {
		log.Logger().Warn("BUG: promoting container with no grace-period machine",
			zap.String("containerId", containerID))
		c.killSet[containerID] = true
		metrics.SetKillSetSize(len(c.killSet))
		return
	}
	if err := m.Event(context.Background(), eventGraceElapsed); err != nil {
		log.Logger().Debug("grace-period transition rejected",
			zap.String("containerId", containerID), zap.Error(err))
	}
}

func (c *Coordinator) clearGrace(containerID string) {
	delete(c.grace, containerID)
}

// PullContainersToKill atomically swaps the kill set with an empty one
// and returns the previous contents; the caller owns the returned set
// and must not expect it to be retained.
func (c *Coordinator) PullContainersToKill() map[string]bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	out := c.killSet
	c.killSet = make(map[string]bool)
	for id := range out {
		delete(c.grace, id)
	}
	metrics.SetKillSetSize(0)
	return out
}

// CanQueuePreempt reports whether queue/partition may currently demand
// demand be reclaimed from other queues: it must be a known non-debtor
// and demand must fit within its remaining budget.
func (c *Coordinator) CanQueuePreempt(queue, partition string, demand *resources.Resource) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	m, ok := c.measures.Get(queue, partition)
	if !ok || m.Debtor {
		return false
	}
	headroom := resources.Sub(m.MaxPreemptable, m.TotalMarkedPreempted)
	return c.engine.Calculator.FitsIn(demand, headroom)
}

// ResourcesMarkedFor returns the demander's aggregate marked resource
// at (priority, resourceName), zero when any level is absent.
func (c *Coordinator) ResourcesMarkedFor(attemptID string, priority int32, resourceName string) *resources.Resource {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.relationships.ResourcesMarkedFor(attemptID, priority, resourceName)
}

// UpdatePartitions bulk-applies updatePartition for each entity, running
// whatever unmark cascade each update triggers against the Relationship
// Store under the same write lock.
func (c *Coordinator) UpdatePartitions(entities []coretypes.PreemptableQueuePartitionEntity) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, e := range entities {
		c.updatePartitionLocked(e)
	}
}

func (c *Coordinator) updatePartitionLocked(e coretypes.PreemptableQueuePartitionEntity) {
	action := c.measures.UpdatePartition(e.QueueName, e.PartitionName, e.Ideal, e.Preemptable)
	if action.UnmarkByDemanderQueue {
		for _, id := range c.relationships.UnmarkDemandersInQueue(e.QueueName) {
			c.clearGrace(id)
		}
	}
	if action.UnmarkByContainerQueue {
		for _, id := range c.relationships.UnmarkContainersByQueue(e.QueueName) {
			c.clearGrace(id)
		}
	}
}

// UnmarkContainer forwards to the Relationship Store under the write
// lock, also dropping any grace-period state tracked for containerID.
func (c *Coordinator) UnmarkContainer(containerID string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	mark, existed := c.relationships.Get(containerID)
	if !existed {
		return
	}
	if c.relationships.UnmarkContainer(containerID) {
		c.clearGrace(containerID)
		metrics.ObserveUnmark(mark.Container.Queue(), mark.ContainerQueueMeasure.Partition, mark.Container.AllocatedResource())
	}
}

// UnmarkDemandingApp forwards to the Relationship Store under the write
// lock, also dropping grace-period state for every container it owned.
func (c *Coordinator) UnmarkDemandingApp(attemptID string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, id := range c.relationships.UnmarkDemandingApp(attemptID) {
		c.clearGrace(id)
	}
}

// MeasuresSnapshot returns a read-only copy of every tracked measure,
// for the debug webservice.
func (c *Coordinator) MeasuresSnapshot() []measures.Snapshot {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.measures.Snapshot()
}

// KillSetSnapshot peeks at the current kill set without draining it,
// for the debug webservice. Unlike PullContainersToKill this does not
// mutate state.
func (c *Coordinator) KillSetSnapshot() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()

	ids := make([]string, 0, len(c.killSet))
	for id := range c.killSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
