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

// Package coretypes holds the capability interfaces and boundary value
// types consumed from the outer scheduler: running containers, scheduler
// application attempts, queue trees and the per-cycle resource
// requirement. None of these are owned here; the outer scheduler
// implements them, the preemption core only reads through them.
package coretypes

import (
	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
)

// ANY is the wildcard resource name used for the aggregate bucket every
// mark contributes to regardless of the specific resource it was marked for.
const ANY = "*"

// RMContainer is the capability set the engine needs from a running
// container handed to it as a preemption candidate.
type RMContainer interface {
	ContainerID() string
	Queue() string
	User() string
	AllocatedResource() *resources.Resource
	IsAMContainer() bool
}

// SchedulerApplicationAttempt is the capability set the engine needs
// from the application attempt that issued a resource requirement.
type SchedulerApplicationAttempt interface {
	ApplicationAttemptID() string
	Queue() string
	User() string
}

// ResourceRequirement is the per-cycle demand fed in by the allocator:
// one application, at one priority, wanting one resource name.
type ResourceRequirement struct {
	Application  SchedulerApplicationAttempt
	Priority     int32
	ResourceName string
	Required     *resources.Resource
}

// Equals reports whether two requirements name the same application
// attempt, priority and resource name, and carry equal resource vectors.
func (r ResourceRequirement) Equals(o ResourceRequirement) bool {
	if r.Priority != o.Priority || r.ResourceName != o.ResourceName {
		return false
	}
	if (r.Application == nil) != (o.Application == nil) {
		return false
	}
	if r.Application != nil && r.Application.ApplicationAttemptID() != o.Application.ApplicationAttemptID() {
		return false
	}
	return resources.Equals(r.Required, o.Required)
}

// ResourceUsage exposes a leaf queue's current consumption per partition.
type ResourceUsage interface {
	Used(partition string) *resources.Resource
}

// CSQueue is the minimal queue-tree node the cluster snapshot walks by
// BFS when rebuilding leaf-queue usage on a queueRefreshed event.
type CSQueue interface {
	QueueName() string
	ChildQueues() []CSQueue
	QueueResourceUsage() ResourceUsage
}

// PreemptableQueuePartitionEntity is one periodic input to updatePartitions:
// the externally computed ideal share and preemption budget for a
// queue-partition. Sign convention: a strictly positive Preemptable marks
// the entity a debtor.
type PreemptableQueuePartitionEntity struct {
	QueueName     string
	PartitionName string
	Ideal         *resources.Resource
	Preemptable   *resources.Resource
}

// PreemptionType classifies the relationship between a preemption
// candidate's queue and the demanding application's queue.
type PreemptionType int

const (
	// DifferentQueue is the only type the engine currently acts on.
	DifferentQueue PreemptionType = iota
	// SameQueueDifferentUser is reserved for intra-queue preemption.
	SameQueueDifferentUser
	// SameQueueSameUser is reserved for intra-queue preemption.
	SameQueueSameUser
)

func (t PreemptionType) String() string {
	switch t {
	case DifferentQueue:
		return "DIFFERENT_QUEUE"
	case SameQueueDifferentUser:
		return "SAME_QUEUE_DIFFERENT_USER"
	case SameQueueSameUser:
		return "SAME_QUEUE_SAME_USER"
	default:
		return "UNKNOWN"
	}
}
