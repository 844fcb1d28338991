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

// QueueRefreshed rebuilds the leaf-queue resource-usage snapshot by BFS
// over root, replacing the map wholesale. A nil root clears it.
func (c *Coordinator) QueueRefreshed(root coretypes.CSQueue) {
	c.lock.Lock()
	defer c.lock.Unlock()

	usage := make(map[string]coretypes.ResourceUsage)
	if root != nil {
		frontier := []coretypes.CSQueue{root}
		for len(frontier) > 0 {
			q := frontier[0]
			frontier = frontier[1:]

			children := q.ChildQueues()
			if len(children) == 0 {
				usage[q.QueueName()] = q.QueueResourceUsage()
				continue
			}
			frontier = append(frontier, children...)
		}
	}
	c.queueUsage = usage
}
