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

package preemption

import "github.com/cloudera/yunikorn-preemption/pkg/preemption/coretypes"

// activePreemptionTypes keeps SAME_QUEUE_* reserved in the dispatch
// table rather than collapsing the enum: they are classified but never
// acted on until intra-queue preemption is implemented.
var activePreemptionTypes = map[coretypes.PreemptionType]bool{
	coretypes.DifferentQueue:         true,
	coretypes.SameQueueDifferentUser: false,
	coretypes.SameQueueSameUser:      false,
}

// Classify returns DifferentQueue when the requester's queue differs
// from the candidate's, SameQueueDifferentUser when the queues match
// but the users differ, and SameQueueSameUser otherwise.
func Classify(requesterQueue, candidateQueue, requesterUser, candidateUser string) coretypes.PreemptionType {
	if requesterQueue != candidateQueue {
		return coretypes.DifferentQueue
	}
	if requesterUser != candidateUser {
		return coretypes.SameQueueDifferentUser
	}
	return coretypes.SameQueueSameUser
}

// IsActive reports whether t is currently consumed by the engine.
func IsActive(t coretypes.PreemptionType) bool {
	return activePreemptionTypes[t]
}
