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

package measures

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
)

func TestGetOrCreateIsLazyAndStable(t *testing.T) {
	s := NewStore()
	_, ok := s.Get("A", "default")
	assert.False(t, ok)

	m1 := s.GetOrCreate("A", "default")
	m2 := s.GetOrCreate("A", "default")
	assert.Same(t, m1, m2)
}

func TestUpdatePartitionDebtorTransitionCascade(t *testing.T) {
	s := NewStore()
	budget := resources.NewResourceFromMap(map[string]int64{resources.MEMORY: 2, resources.VCORE: 2})
	ideal := resources.NewResourceFromMap(map[string]int64{resources.MEMORY: 4, resources.VCORE: 4})

	action := s.UpdatePartition("B", "default", ideal, budget)
	assert.True(t, action.UnmarkByDemanderQueue)
	assert.False(t, action.UnmarkByContainerQueue)

	m, ok := s.Get("B", "default")
	assert.True(t, ok)
	assert.True(t, m.Debtor)
	assert.True(t, resources.Equals(m.MaxPreemptable, budget))

	// staying a debtor on the next call is not a transition
	action = s.UpdatePartition("B", "default", ideal, budget)
	assert.False(t, action.UnmarkByDemanderQueue)
}

func TestUpdatePartitionNonDebtorAlwaysCascades(t *testing.T) {
	s := NewStore()
	zero := resources.NewResource()
	ideal := resources.NewResourceFromMap(map[string]int64{resources.MEMORY: 4})

	action := s.UpdatePartition("A", "default", ideal, zero)
	assert.True(t, action.UnmarkByContainerQueue)
	m, _ := s.Get("A", "default")
	assert.False(t, m.Debtor)
	assert.True(t, resources.IsZero(m.MaxPreemptable))

	// every call to the non-debtor branch cascades again, not just the transition
	action = s.UpdatePartition("A", "default", ideal, zero)
	assert.True(t, action.UnmarkByContainerQueue)
}

func TestDryRunSnapshotIsolatesHypotheticalWrites(t *testing.T) {
	m := newEntityMeasure("A", "default")
	m.TotalMarkedPreempted = resources.NewResourceFromMap(map[string]int64{resources.MEMORY: 1})

	snap := m.DryRunSnapshot(1)
	snap.AddTo(resources.NewResourceFromMap(map[string]int64{resources.MEMORY: 5}))
	assert.Equal(t, int64(1), m.TotalMarkedPreempted.Resources[resources.MEMORY])
	assert.Equal(t, int64(6), m.DryRunSnapshot(1).Resources[resources.MEMORY])

	// a new cycle re-clones from the committed total
	fresh := m.DryRunSnapshot(2)
	assert.Equal(t, int64(1), fresh.Resources[resources.MEMORY])
}

func TestAddSubMarkedRoundTrips(t *testing.T) {
	m := newEntityMeasure("A", "default")
	delta := resources.NewResourceFromMap(map[string]int64{resources.MEMORY: 3})
	m.AddMarked(delta)
	assert.Equal(t, int64(3), m.TotalMarkedPreempted.Resources[resources.MEMORY])
	m.SubMarked(delta)
	assert.True(t, resources.IsZero(m.TotalMarkedPreempted))
}
