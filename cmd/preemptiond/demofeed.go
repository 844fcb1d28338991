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

package main

import (
	uuid "github.com/satori/go.uuid"

	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/coretypes"
)

const demoPartition = "default"

// demoContainer is the in-memory stand-in for an RM-reported allocated
// container: no RM integration is wired up, so tryPreempt is exercised
// against synthesized candidates instead.
type demoContainer struct {
	id        string
	queue     string
	user      string
	allocated *resources.Resource
	isAM      bool
}

func (c *demoContainer) ContainerID() string                    { return c.id }
func (c *demoContainer) Queue() string                          { return c.queue }
func (c *demoContainer) User() string                           { return c.user }
func (c *demoContainer) AllocatedResource() *resources.Resource { return c.allocated }
func (c *demoContainer) IsAMContainer() bool                    { return c.isAM }

// demoAttempt is the in-memory stand-in for a scheduler application
// attempt demanding resource.
type demoAttempt struct {
	id    string
	queue string
	user  string
}

func (a *demoAttempt) ApplicationAttemptID() string { return a.id }
func (a *demoAttempt) Queue() string                { return a.queue }
func (a *demoAttempt) User() string                 { return a.user }

// demoUsage is a fixed resource-usage reading for one leaf queue.
type demoUsage struct{ used *resources.Resource }

func (u demoUsage) Used(string) *resources.Resource { return u.used }

// demoQueue is a minimal coretypes.CSQueue implementation used to build
// the fake queue tree fed to Coordinator.QueueRefreshed.
type demoQueue struct {
	name     string
	children []coretypes.CSQueue
	usage    coretypes.ResourceUsage
}

func (q *demoQueue) QueueName() string                           { return q.name }
func (q *demoQueue) ChildQueues() []coretypes.CSQueue            { return q.children }
func (q *demoQueue) QueueResourceUsage() coretypes.ResourceUsage { return q.usage }

// demoFeed is a tiny two-queue cluster: "starved" is a non-debtor queue
// below its ideal share that keeps asking for resource, "donor" is a
// debtor queue above its ideal share that runs a rotating cast of
// containers large enough to be selected.
type demoFeed struct{}

func newDemoFeed() *demoFeed {
	return &demoFeed{}
}

// Tree returns the fake queue tree for this tick, reflecting the
// current simulated usage of the donor queue.
func (f *demoFeed) Tree() coretypes.CSQueue {
	return &demoQueue{
		name: "root",
		children: []coretypes.CSQueue{
			&demoQueue{name: "starved", usage: demoUsage{used: unitRes(2)}},
			&demoQueue{name: "donor", usage: demoUsage{used: unitRes(8)}},
		},
	}
}

// Partitions returns the preemptable-entity configuration this demo
// never changes: "donor" is a steady 2-unit debtor budget, "starved"
// never has resource reclaimed from it.
func (f *demoFeed) Partitions() []coretypes.PreemptableQueuePartitionEntity {
	return []coretypes.PreemptableQueuePartitionEntity{
		{QueueName: "starved", PartitionName: demoPartition, Ideal: unitRes(4), Preemptable: resources.NewResource()},
		{QueueName: "donor", PartitionName: demoPartition, Ideal: unitRes(4), Preemptable: unitRes(2)},
	}
}

// Requirement synthesizes the starved queue's outstanding ask for this
// tick, with a fresh application attempt id each call, mimicking a new
// app entering the queue on every cycle.
func (f *demoFeed) Requirement() coretypes.ResourceRequirement {
	appID := "app-" + uuid.NewV4().String()[:8]
	return coretypes.ResourceRequirement{
		Application:  &demoAttempt{id: appID, queue: "starved", user: "demo"},
		Priority:     0,
		ResourceName: coretypes.ANY,
		Required:     unitRes(2),
	}
}

// Candidates synthesizes two containers in the donor queue, each
// tagged with a fresh container id so repeated ticks don't collide
// with already-marked ids.
func (f *demoFeed) Candidates() []coretypes.RMContainer {
	return []coretypes.RMContainer{
		&demoContainer{id: "ctr-" + uuid.NewV4().String()[:8], queue: "donor", user: "batch", allocated: unitRes(1)},
		&demoContainer{id: "ctr-" + uuid.NewV4().String()[:8], queue: "donor", user: "batch", allocated: unitRes(1)},
	}
}

func unitRes(v int64) *resources.Resource {
	return resources.NewResourceFromMap(map[string]int64{resources.MEMORY: v, resources.VCORE: v})
}
