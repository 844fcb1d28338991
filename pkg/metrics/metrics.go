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

// Package metrics instruments the preemption core with Prometheus
// collectors, registered against the default registry so promhttp.Handler
// picks them up without extra wiring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
)

var (
	markedContainersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preemption_marked_containers_total",
		Help: "Total number of containers marked for preemption, by queue and partition.",
	}, []string{"queue", "partition"})

	markedResource = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "preemption_marked_resource",
		Help: "Currently marked resource amount, by queue, partition and resource name.",
	}, []string{"queue", "partition", "resource"})

	killSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "preemption_kill_set_size",
		Help: "Number of container ids currently pending in the kill set.",
	})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "preemption_cycle_duration_seconds",
		Help:    "Wall-clock duration of a single tryPreempt cycle.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveMark records that a fresh mark landed on queue/partition,
// carrying delta as the container's allocated resource.
func ObserveMark(queue, partition string, delta *resources.Resource) {
	markedContainersTotal.WithLabelValues(queue, partition).Inc()
	for name, v := range delta.Resources {
		markedResource.WithLabelValues(queue, partition, name).Add(float64(v))
	}
}

// ObserveUnmark records that a mark on queue/partition was undone.
func ObserveUnmark(queue, partition string, delta *resources.Resource) {
	for name, v := range delta.Resources {
		markedResource.WithLabelValues(queue, partition, name).Sub(float64(v))
	}
}

// SetKillSetSize reports the current number of pending kill-set entries.
func SetKillSetSize(n int) {
	killSetSize.Set(float64(n))
}

// ObserveCycleDuration records the duration of one tryPreempt call.
func ObserveCycleDuration(d time.Duration) {
	cycleDuration.Observe(d.Seconds())
}
