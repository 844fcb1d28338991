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

package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/coretypes"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/measures"
)

type fakeContainer struct {
	id        string
	queue     string
	allocated *resources.Resource
	isAM      bool
}

func (c *fakeContainer) ContainerID() string                    { return c.id }
func (c *fakeContainer) Queue() string                          { return c.queue }
func (c *fakeContainer) User() string                           { return "u" }
func (c *fakeContainer) AllocatedResource() *resources.Resource { return c.allocated }
func (c *fakeContainer) IsAMContainer() bool                    { return c.isAM }

type fakeUsage struct{ used *resources.Resource }

func (u fakeUsage) Used(string) *resources.Resource { return u.used }

func unit(v int64) *resources.Resource {
	return resources.NewResourceFromMap(map[string]int64{resources.MEMORY: v, resources.VCORE: v})
}

func TestSelectBasicReclaim(t *testing.T) {
	store := measures.NewStore()
	store.UpdatePartition("A", "P", unit(4), resources.NewResource())
	store.UpdatePartition("B", "P", unit(4), unit(2))

	candidates := []coretypes.RMContainer{
		&fakeContainer{id: "c1", queue: "B", allocated: unit(1)},
		&fakeContainer{id: "c2", queue: "B", allocated: unit(1)},
	}
	usage := map[string]coretypes.ResourceUsage{"B": fakeUsage{used: unit(6)}}

	engine := NewEngine(nil)
	selected, ok := engine.Select(candidates, unit(2), store, usage, "P", 1)
	assert.True(t, ok)
	assert.Len(t, selected, 2)
}

func TestSelectReturnsNilWhenRequirementUnsatisfied(t *testing.T) {
	store := measures.NewStore()
	store.UpdatePartition("B", "P", unit(4), unit(2))

	candidates := []coretypes.RMContainer{
		&fakeContainer{id: "c1", queue: "B", allocated: unit(1)},
	}
	usage := map[string]coretypes.ResourceUsage{"B": fakeUsage{used: unit(6)}}

	engine := NewEngine(nil)
	selected, ok := engine.Select(candidates, unit(10), store, usage, "P", 1)
	assert.False(t, ok)
	assert.Nil(t, selected)
}

func TestSelectSkipsAMContainerAndNonDebtorQueue(t *testing.T) {
	store := measures.NewStore()
	store.UpdatePartition("A", "P", unit(4), resources.NewResource())
	store.UpdatePartition("B", "P", unit(4), unit(2))

	candidates := []coretypes.RMContainer{
		&fakeContainer{id: "am", queue: "B", allocated: unit(1), isAM: true},
		&fakeContainer{id: "nonDebtor", queue: "A", allocated: unit(1)},
		&fakeContainer{id: "c1", queue: "B", allocated: unit(1)},
	}
	usage := map[string]coretypes.ResourceUsage{
		"A": fakeUsage{used: unit(2)},
		"B": fakeUsage{used: unit(6)},
	}

	engine := NewEngine(nil)
	selected, ok := engine.Select(candidates, unit(1), store, usage, "P", 1)
	assert.True(t, ok)
	assert.Len(t, selected, 1)
	assert.Equal(t, "c1", selected[0].ContainerID())
}

func TestSelectSingleContainerOvershootAdmittedViaZeroMarkedDisjunct(t *testing.T) {
	store := measures.NewStore()
	store.UpdatePartition("B", "P", unit(4), unit(1))

	candidates := []coretypes.RMContainer{
		&fakeContainer{id: "big", queue: "B", allocated: unit(4)},
	}
	usage := map[string]coretypes.ResourceUsage{"B": fakeUsage{used: unit(8)}}

	engine := NewEngine(nil)
	selected, ok := engine.Select(candidates, unit(1), store, usage, "P", 1)
	assert.True(t, ok)
	assert.Len(t, selected, 1)
}

func TestSelectRespectsHeadroomOverIdeal(t *testing.T) {
	store := measures.NewStore()
	// ideal == used: no excess to reclaim, even though the budget allows it
	store.UpdatePartition("B", "P", unit(6), unit(4))

	candidates := []coretypes.RMContainer{
		&fakeContainer{id: "c1", queue: "B", allocated: unit(1)},
	}
	usage := map[string]coretypes.ResourceUsage{"B": fakeUsage{used: unit(6)}}

	engine := NewEngine(nil)
	selected, ok := engine.Select(candidates, unit(1), store, usage, "P", 1)
	assert.True(t, ok)
	assert.Empty(t, selected)
}
