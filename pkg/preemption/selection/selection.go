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

// Package selection implements the dry-run victim selection algorithm:
// given an externally ordered candidate list and a resource requirement,
// pick the containers to mark without violating per-queue preemption
// budgets or reclaiming more than a queue's excess over its ideal share.
package selection

import (
	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/coretypes"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption/measures"
)

// Engine runs the dry-run selection procedure against a resource calculator.
type Engine struct {
	Calculator resources.ResourceCalculator
}

// NewEngine returns an Engine using calc, defaulting to componentwise
// dominance when calc is nil.
func NewEngine(calc resources.ResourceCalculator) *Engine {
	if calc == nil {
		calc = resources.DefaultResourceCalculator{}
	}
	return &Engine{Calculator: calc}
}

// Select runs one dry-run scan of candidates (already ordered by the
// caller's black-box preemption-order policy) against the measure store
// and leaf-queue usage snapshot, returning the containers to mark in
// order, or nil when required could not be satisfied by the scan.
//
// cycle is the monotonic dry-run identifier for this invocation: the
// measure store clones its committed totalMarkedPreempted under this
// number the first time it is seen, so repeated admissions within one
// Select call accumulate hypothetically without mutating committed state.
// Select's second return value reports whether the scan satisfied
// required at all: when false the caller must not mark anything this
// cycle. A true result with a short (even empty) selected slice is
// possible - the scan bound in step (f) counts every candidate
// considered, not only admitted ones - and is not itself a failure.
func (e *Engine) Select(candidates []coretypes.RMContainer, required *resources.Resource,
	store *measures.Store, usage map[string]coretypes.ResourceUsage, partition string, cycle int64) ([]coretypes.RMContainer, bool) {
	selecting := make(map[string]bool)
	var selected []coretypes.RMContainer
	totalSelected := resources.NewResource()

	for _, c := range candidates {
		if c.IsAMContainer() || selecting[c.ContainerID()] {
			continue
		}

		measure, ok := store.Get(c.Queue(), partition)
		if !ok || !measure.Debtor {
			continue
		}

		u, ok := usage[c.Queue()]
		if !ok {
			continue
		}

		if e.canPreempt(measure, u.Used(partition), c.AllocatedResource(), cycle) {
			measure.DryRunAdd(cycle, c.AllocatedResource())
			selecting[c.ContainerID()] = true
			selected = append(selected, c)
		}

		totalSelected.AddTo(c.AllocatedResource())
		if e.Calculator.FitsIn(required, totalSelected) {
			return selected, true
		}
	}
	return nil, false
}

// canPreempt evaluates the admission predicate from the component
// design: the candidate must fit both the queue's remaining preemption
// budget (or find the queue's dry-run marked total still zero, to avoid
// deadlock on an oversized sole candidate) and the queue's headroom
// over ideal.
func (e *Engine) canPreempt(measure *measures.EntityMeasure, used, allocated *resources.Resource, cycle int64) bool {
	markedDryRun := measure.DryRunSnapshot(cycle)
	trial := resources.Add(markedDryRun, allocated)

	budgetOK := e.Calculator.FitsIn(trial, measure.MaxPreemptable) || resources.IsZero(markedDryRun)
	headroom := resources.Sub(used, measure.Ideal)
	headroomOK := e.Calculator.FitsIn(trial, headroom)
	return budgetOK && headroomOK
}
