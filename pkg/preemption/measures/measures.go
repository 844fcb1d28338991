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

// Package measures holds the authoritative per-queue-partition table of
// ideal share, preemption budget, marked total and debtor flag. It never
// holds a pointer to a mark; the relationship store holds the reverse
// pointers and calls back here only to mutate the aggregate counters.
package measures

import (
	"go.uber.org/zap"

	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/invariant"
)

// EntityMeasure is the bookkeeping record for one "<queue>_<partition>" key.
type EntityMeasure struct {
	Queue     string
	Partition string

	Ideal                *resources.Resource
	MaxPreemptable       *resources.Resource
	TotalMarkedPreempted *resources.Resource
	Debtor               bool

	// dry-run snapshot state, see DryRunSnapshot. Only ever touched under
	// the Cycle Coordinator's write lock, same as every other field here.
	snapshotCycle int64
	snapshot      *resources.Resource
}

func newEntityMeasure(queue, partition string) *EntityMeasure {
	return &EntityMeasure{
		Queue:                queue,
		Partition:            partition,
		Ideal:                resources.NewResource(),
		MaxPreemptable:       resources.NewResource(),
		TotalMarkedPreempted: resources.NewResource(),
	}
}

// DryRunSnapshot returns the measure's totalMarkedPreempted clone for the
// given dry-run cycle, lazily cloning it the first time this cycle number
// is observed. Successive admissions within the same cycle accumulate
// into the clone without disturbing the committed total.
func (m *EntityMeasure) DryRunSnapshot(cycle int64) *resources.Resource {
	if m.snapshot == nil || m.snapshotCycle != cycle {
		m.snapshotCycle = cycle
		m.snapshot = m.TotalMarkedPreempted.Clone()
	}
	return m.snapshot
}

// DryRunAdd records a hypothetical admission against the dry-run snapshot
// for cycle, without touching TotalMarkedPreempted.
func (m *EntityMeasure) DryRunAdd(cycle int64, delta *resources.Resource) {
	m.DryRunSnapshot(cycle).AddTo(delta)
}

// AddMarked commits delta into the measure's running marked total.
func (m *EntityMeasure) AddMarked(delta *resources.Resource) {
	m.TotalMarkedPreempted.AddTo(delta)
}

// SubMarked removes delta from the measure's running marked total. A
// negative result after subtraction is a programmer error: the
// add/subtract discipline is meant to be symmetric.
func (m *EntityMeasure) SubMarked(delta *resources.Resource) {
	m.TotalMarkedPreempted.SubFrom(delta)
	invariant.Check(resources.StrictlyGreaterThanOrEquals(m.TotalMarkedPreempted, resources.NewResource()),
		"totalMarkedPreempted went negative",
		zap.String("queue", m.Queue), zap.String("partition", m.Partition),
		zap.String("totalMarkedPreempted", m.TotalMarkedPreempted.String()))
}

// Key returns the "<queue>_<partition>" composite key used to index measures.
func Key(queue, partition string) string {
	return queue + "_" + partition
}

// CascadeAction reports which unmark cascades updatePartition requires of
// the caller. The measure store performs no cascade itself - it has no
// dependency on the relationship store - the Cycle Coordinator executes
// the indicated cascades against the relationship store under the same
// write lock that produced this action.
type CascadeAction struct {
	// UnmarkByContainerQueue is set whenever the entity becomes (or
	// remains) a non-debtor: every mark whose container resides in this
	// queue must be unmarked, on every call, not only on a transition.
	UnmarkByContainerQueue bool
	// UnmarkByDemanderQueue is set only on a non-debtor -> debtor
	// transition: every mark whose demanding application sits in this
	// queue must be unmarked.
	UnmarkByDemanderQueue bool
}

// Store is the authoritative table of EntityMeasures, keyed by Key.
type Store struct {
	byKey map[string]*EntityMeasure
}

// NewStore returns an empty measure store.
func NewStore() *Store {
	return &Store{byKey: make(map[string]*EntityMeasure)}
}

// GetOrCreate returns the measure for queue/partition, creating a fresh
// all-zero non-debtor measure if none exists yet.
func (s *Store) GetOrCreate(queue, partition string) *EntityMeasure {
	key := Key(queue, partition)
	m, ok := s.byKey[key]
	if !ok {
		m = newEntityMeasure(queue, partition)
		s.byKey[key] = m
	}
	return m
}

// Get returns the measure for queue/partition without creating it.
func (s *Store) Get(queue, partition string) (*EntityMeasure, bool) {
	m, ok := s.byKey[Key(queue, partition)]
	return m, ok
}

// hasPositiveComponent reports whether any dimension of r is strictly positive.
func hasPositiveComponent(r *resources.Resource) bool {
	if r == nil {
		return false
	}
	for _, v := range r.Resources {
		if v > 0 {
			return true
		}
	}
	return false
}

// UpdatePartition applies a periodic ideal/budget update for one
// queue-partition, per the semantics in the component design: a
// strictly positive maxPreempt makes (or keeps) the entity a debtor and
// stores the budget as given; a non-positive maxPreempt makes (or
// keeps) it a non-debtor (creditor) and stores the negated budget as
// the amount it may reclaim from others. The returned CascadeAction
// tells the caller which unmark cascades to run against the
// relationship store.
func (s *Store) UpdatePartition(queue, partition string, ideal, maxPreempt *resources.Resource) CascadeAction {
	m := s.GetOrCreate(queue, partition)
	m.Ideal = ideal.Clone()

	if hasPositiveComponent(maxPreempt) {
		wasDebtor := m.Debtor
		m.MaxPreemptable = maxPreempt.Clone()
		m.Debtor = true
		return CascadeAction{UnmarkByDemanderQueue: !wasDebtor}
	}

	m.MaxPreemptable = resources.Negate(maxPreempt)
	m.Debtor = false
	return CascadeAction{UnmarkByContainerQueue: true}
}

// Snapshot is a read-only, JSON-friendly view of one EntityMeasure for
// the debug webservice.
type Snapshot struct {
	Queue                string           `json:"queue"`
	Partition            string           `json:"partition"`
	Ideal                map[string]int64 `json:"ideal"`
	MaxPreemptable       map[string]int64 `json:"maxPreemptable"`
	TotalMarkedPreempted map[string]int64 `json:"totalMarkedPreempted"`
	Debtor               bool             `json:"debtor"`
}

// Snapshot returns a point-in-time, order-independent copy of every
// measure in the store, safe to serialize without racing mutation.
func (s *Store) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(s.byKey))
	for _, m := range s.byKey {
		out = append(out, Snapshot{
			Queue:                m.Queue,
			Partition:            m.Partition,
			Ideal:                m.Ideal.Clone().Resources,
			MaxPreemptable:       m.MaxPreemptable.Clone().Resources,
			TotalMarkedPreempted: m.TotalMarkedPreempted.Clone().Resources,
			Debtor:               m.Debtor,
		})
	}
	return out
}
