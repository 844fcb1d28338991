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

// Package resources implements the countable resource vector used
// throughout the preemption core: memory, vcores and any other
// cluster-defined resource name, plus the componentwise arithmetic
// and dominance predicate the selection engine relies on.
package resources

import (
	"fmt"
	"sort"
	"strings"
)

// well known resource names. Callers are free to use any other string
// as a resource name; these two are only special in that the cluster
// typically guarantees every queue/node carries them.
const (
	MEMORY = "memory"
	VCORE  = "vcore"
)

// Resource is a vector of countable resource quantities keyed by name.
// A nil *Resource and a Resource with an empty/nil map both mean "zero
// in every dimension" - callers must treat them interchangeably.
type Resource struct {
	Resources map[string]int64
}

// NewResource returns an empty (all zero) resource.
func NewResource() *Resource {
	return &Resource{Resources: make(map[string]int64)}
}

// NewResourceFromMap builds a Resource from a plain map, useful in tests.
func NewResourceFromMap(values map[string]int64) *Resource {
	r := NewResource()
	for k, v := range values {
		r.Resources[k] = v
	}
	return r
}

// Clone returns a deep copy. Safe to call on a nil receiver.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return NewResource()
	}
	out := NewResource()
	for k, v := range r.Resources {
		out.Resources[k] = v
	}
	return out
}

// IsEmpty returns true when the resource is nil or all components are zero.
func (r *Resource) IsEmpty() bool {
	if r == nil {
		return true
	}
	for _, v := range r.Resources {
		if v != 0 {
			return false
		}
	}
	return true
}

// String renders the resource deterministically (sorted keys), useful
// for log fields and test failure messages.
func (r *Resource) String() string {
	if r == nil {
		return "[]"
	}
	keys := make([]string, 0, len(r.Resources))
	for k := range r.Resources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, r.Resources[k]))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Add returns a new resource equal to a+b. Either argument may be nil.
func Add(a, b *Resource) *Resource {
	out := a.Clone()
	if b == nil {
		return out
	}
	for k, v := range b.Resources {
		out.Resources[k] += v
	}
	return out
}

// AddTo mutates r in place, adding delta. Safe no-op when delta is nil.
func (r *Resource) AddTo(delta *Resource) {
	if r == nil || delta == nil {
		return
	}
	for k, v := range delta.Resources {
		r.Resources[k] += v
	}
}

// Sub returns a new resource equal to a-b.
func Sub(a, b *Resource) *Resource {
	out := a.Clone()
	if b == nil {
		return out
	}
	for k, v := range b.Resources {
		out.Resources[k] -= v
	}
	return out
}

// SubFrom mutates r in place, subtracting delta.
func (r *Resource) SubFrom(delta *Resource) {
	if r == nil || delta == nil {
		return
	}
	for k, v := range delta.Resources {
		r.Resources[k] -= v
	}
}

// Negate returns a new resource with every component's sign flipped.
func Negate(a *Resource) *Resource {
	out := NewResource()
	if a == nil {
		return out
	}
	for k, v := range a.Resources {
		out.Resources[k] = -v
	}
	return out
}

// IsZero reports whether every component of r is exactly zero.
// Equivalent to r.IsEmpty but named to mirror the spec's "== 0" checks
// on EntityMeasure.totalMarkedPreempted.
func IsZero(r *Resource) bool {
	return r.IsEmpty()
}

// Equals reports whether a and b carry the same quantity in every
// dimension either defines (missing entries are treated as zero).
func Equals(a, b *Resource) bool {
	return dominates(a, b, true) && dominates(b, a, true)
}

// union returns the sorted set of resource names present in either vector.
func union(a, b *Resource) []string {
	seen := make(map[string]bool)
	if a != nil {
		for k := range a.Resources {
			seen[k] = true
		}
	}
	if b != nil {
		for k := range b.Resources {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func get(r *Resource, name string) int64 {
	if r == nil || r.Resources == nil {
		return 0
	}
	return r.Resources[name]
}

// dominates reports whether a[k] >= b[k] for every dimension; if
// orEqual is false the check is strict (a[k] > b[k]).
func dominates(a, b *Resource, orEqual bool) bool {
	for _, k := range union(a, b) {
		av, bv := get(a, k), get(b, k)
		if orEqual {
			if av < bv {
				return false
			}
		} else if av <= bv {
			return false
		}
	}
	return true
}

// StrictlyGreaterThanOrEquals reports whether a >= b componentwise.
func StrictlyGreaterThanOrEquals(a, b *Resource) bool {
	return dominates(a, b, true)
}

// StrictlyGreaterThan reports whether a > b in every dimension either
// defines, missing entries read as zero (strict, no dimension may tie
// or fall below).
func StrictlyGreaterThan(a, b *Resource) bool {
	return dominates(a, b, false)
}

// ComponentWiseMin returns, for every dimension appearing in either
// vector, the smaller of the two values.
func ComponentWiseMin(a, b *Resource) *Resource {
	out := NewResource()
	for _, k := range union(a, b) {
		av, bv := get(a, k), get(b, k)
		if av < bv {
			out.Resources[k] = av
		} else {
			out.Resources[k] = bv
		}
	}
	return out
}

// ComponentWiseMax returns, for every dimension appearing in either
// vector, the larger of the two values.
func ComponentWiseMax(a, b *Resource) *Resource {
	out := NewResource()
	for _, k := range union(a, b) {
		av, bv := get(a, k), get(b, k)
		if av > bv {
			out.Resources[k] = av
		} else {
			out.Resources[k] = bv
		}
	}
	return out
}
