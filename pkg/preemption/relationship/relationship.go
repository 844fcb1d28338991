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

// Package relationship links marked containers to the demanding
// application attempt that caused the mark, so an app-level or
// queue-level cancellation cascades correctly through both indices.
package relationship

import (
	"time"

	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/coretypes"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/measures"
)

// ToPreemptContainer is the mark record for one running container.
type ToPreemptContainer struct {
	Container   coretypes.RMContainer
	Requirement coretypes.ResourceRequirement
	Type        coretypes.PreemptionType

	StartTimestamp      time.Time
	LastListedTimestamp time.Time

	ContainerQueueMeasure *measures.EntityMeasure
	DemandingQueueMeasure *measures.EntityMeasure
}

// DemandingApp is one scheduler application attempt with at least one mark.
type DemandingApp struct {
	Attempt              coretypes.SchedulerApplicationAttempt
	ToPreemptContainers  map[string]bool
	ToPreemptResources   map[int32]map[string]*resources.Resource
	containerToResources map[string]*resources.Resource
}

func newDemandingApp(attempt coretypes.SchedulerApplicationAttempt) *DemandingApp {
	return &DemandingApp{
		Attempt:              attempt,
		ToPreemptContainers:  make(map[string]bool),
		ToPreemptResources:   make(map[int32]map[string]*resources.Resource),
		containerToResources: make(map[string]*resources.Resource),
	}
}

func (d *DemandingApp) bucket(priority int32, resourceName string) *resources.Resource {
	byName, ok := d.ToPreemptResources[priority]
	if !ok {
		byName = make(map[string]*resources.Resource)
		d.ToPreemptResources[priority] = byName
	}
	r, ok := byName[resourceName]
	if !ok {
		r = resources.NewResource()
		byName[resourceName] = r
	}
	return r
}

// Store holds the container-id -> mark and attempt-id -> DemandingApp
// indices. Every mutation is idempotent on an unknown key.
type Store struct {
	containers map[string]*ToPreemptContainer
	apps       map[string]*DemandingApp
}

// NewStore returns an empty relationship store.
func NewStore() *Store {
	return &Store{
		containers: make(map[string]*ToPreemptContainer),
		apps:       make(map[string]*DemandingApp),
	}
}

// Get returns the mark for containerID, if any.
func (s *Store) Get(containerID string) (*ToPreemptContainer, bool) {
	m, ok := s.containers[containerID]
	return m, ok
}

// App returns the DemandingApp for attemptID, if any.
func (s *Store) App(attemptID string) (*DemandingApp, bool) {
	a, ok := s.apps[attemptID]
	return a, ok
}

// AddMark records a fresh mark on container justified by requirement,
// wiring its two back-pointed measures and the demander's aggregate
// buckets per invariants I4-I8.
func (s *Store) AddMark(container coretypes.RMContainer, requirement coretypes.ResourceRequirement,
	preemptionType coretypes.PreemptionType, containerQueueMeasure, demandingQueueMeasure *measures.EntityMeasure,
	start, lastListed time.Time) *ToPreemptContainer {
	mark := &ToPreemptContainer{
		Container:             container,
		Requirement:           requirement,
		Type:                  preemptionType,
		StartTimestamp:        start,
		LastListedTimestamp:   lastListed,
		ContainerQueueMeasure: containerQueueMeasure,
		DemandingQueueMeasure: demandingQueueMeasure,
	}
	s.containers[container.ContainerID()] = mark

	attemptID := requirement.Application.ApplicationAttemptID()
	app, ok := s.apps[attemptID]
	if !ok {
		app = newDemandingApp(requirement.Application)
		s.apps[attemptID] = app
	}
	app.ToPreemptContainers[container.ContainerID()] = true

	allocated := container.AllocatedResource()
	app.bucket(requirement.Priority, coretypes.ANY).AddTo(allocated)
	if requirement.ResourceName != coretypes.ANY {
		named := app.bucket(requirement.Priority, requirement.ResourceName)
		named.AddTo(allocated)
		// explicit per spec 9: without this the symmetric-subtract
		// invariant on unmark cannot hold.
		app.containerToResources[container.ContainerID()] = named
	}

	containerQueueMeasure.AddMarked(allocated)
	demandingQueueMeasure.AddMarked(allocated)
	return mark
}

// UnmarkContainer removes the mark for containerID, if present, undoing
// every addition AddMark made for it. Returns false when the id was
// already absent (a no-op, per the idempotency contract).
func (s *Store) UnmarkContainer(containerID string) bool {
	mark, ok := s.containers[containerID]
	if !ok {
		return false
	}
	delete(s.containers, containerID)
	s.detachFromApp(containerID, mark)
	mark.ContainerQueueMeasure.SubMarked(mark.Container.AllocatedResource())
	mark.DemandingQueueMeasure.SubMarked(mark.Container.AllocatedResource())
	return true
}

func (s *Store) detachFromApp(containerID string, mark *ToPreemptContainer) {
	attemptID := mark.Requirement.Application.ApplicationAttemptID()
	app, ok := s.apps[attemptID]
	if !ok {
		return
	}
	delete(app.ToPreemptContainers, containerID)
	allocated := mark.Container.AllocatedResource()
	if named, ok := app.containerToResources[containerID]; ok {
		named.SubFrom(allocated)
		delete(app.containerToResources, containerID)
	}
	if byName, ok := app.ToPreemptResources[mark.Requirement.Priority]; ok {
		if anyBucket, ok := byName[coretypes.ANY]; ok {
			anyBucket.SubFrom(allocated)
		}
	}
}

// UnmarkDemandingApp removes the DemandingApp for attemptID along with
// every container it owned, returning the ids of containers that were
// unmarked as a result (so callers can also drop any per-container
// grace-period state they keep outside this store).
func (s *Store) UnmarkDemandingApp(attemptID string) []string {
	app, ok := s.apps[attemptID]
	if !ok {
		return nil
	}
	removed := make([]string, 0, len(app.ToPreemptContainers))
	for containerID := range app.ToPreemptContainers {
		if mark, ok := s.containers[containerID]; ok {
			delete(s.containers, containerID)
			mark.ContainerQueueMeasure.SubMarked(mark.Container.AllocatedResource())
			mark.DemandingQueueMeasure.SubMarked(mark.Container.AllocatedResource())
			removed = append(removed, containerID)
		}
	}
	delete(s.apps, attemptID)
	return removed
}

// UnmarkContainersByQueue unmarks every mark whose container resides in
// queue. Used by the measure store's non-debtor cascade.
func (s *Store) UnmarkContainersByQueue(queue string) []string {
	var victims []string
	for id, mark := range s.containers {
		if mark.Container.Queue() == queue {
			victims = append(victims, id)
		}
	}
	for _, id := range victims {
		s.UnmarkContainer(id)
	}
	return victims
}

// UnmarkDemandersInQueue unmarks every DemandingApp whose application
// sits in queue. Used by the measure store's debtor-transition cascade.
func (s *Store) UnmarkDemandersInQueue(queue string) []string {
	var attemptIDs []string
	for attemptID, app := range s.apps {
		if app.Attempt.Queue() == queue {
			attemptIDs = append(attemptIDs, attemptID)
		}
	}
	var removed []string
	for _, attemptID := range attemptIDs {
		removed = append(removed, s.UnmarkDemandingApp(attemptID)...)
	}
	return removed
}

// ResourcesMarkedFor looks up the demander's aggregate marked resource
// at (priority, resourceName), returning zero when any level is absent.
func (s *Store) ResourcesMarkedFor(attemptID string, priority int32, resourceName string) *resources.Resource {
	app, ok := s.apps[attemptID]
	if !ok {
		return resources.NewResource()
	}
	byName, ok := app.ToPreemptResources[priority]
	if !ok {
		return resources.NewResource()
	}
	r, ok := byName[resourceName]
	if !ok {
		return resources.NewResource()
	}
	return r.Clone()
}
