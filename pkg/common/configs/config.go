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

// Package configs holds the YAML-driven configuration consumed by the
// preemption core. The queue-tree config itself (partitions, queues,
// placement rules, ACLs) is an external collaborator per the design
// scope and is not modelled here; only the knobs the Cycle Coordinator
// needs are.
package configs

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"
)

// PreemptionConfig carries the tunables of the Cycle Coordinator. The
// Enabled flag mirrors the teacher's PartitionConfig.Preemption.Enabled
// shape (pkg/common/configs/config_test.go TestPartitionPreemptionParameter)
// but lives on its own here since the queue-tree config is out of scope.
type PreemptionConfig struct {
	Enabled bool `yaml:"enabled"`

	// WaitBeforeKillSeconds is WAIT_BEFORE_KILL_SEC from the design:
	// the grace period, in whole seconds, between first marking a
	// container and promoting it to the kill set.
	WaitBeforeKillSeconds int `yaml:"waitBeforeKillSeconds"`
}

// DefaultWaitBeforeKillSeconds is the spec's documented default for
// WAIT_BEFORE_KILL_SEC.
const DefaultWaitBeforeKillSeconds = 30

// WaitBeforeKill returns the configured grace period as a time.Duration,
// substituting the documented default when unset or non-positive.
func (p PreemptionConfig) WaitBeforeKill() time.Duration {
	if p.WaitBeforeKillSeconds <= 0 {
		return DefaultWaitBeforeKillSeconds * time.Second
	}
	return time.Duration(p.WaitBeforeKillSeconds) * time.Second
}

// DefaultPreemptionConfig returns a PreemptionConfig with the engine
// enabled and the documented default grace period.
func DefaultPreemptionConfig() PreemptionConfig {
	return PreemptionConfig{
		Enabled:               true,
		WaitBeforeKillSeconds: DefaultWaitBeforeKillSeconds,
	}
}

// LoadPreemptionConfig reads and parses a PreemptionConfig from a YAML
// file, following the teacher's load-from-path style
// (pkg/common/configs/config_test.go CreateConfig/SchedulerConfigLoader).
func LoadPreemptionConfig(path string) (*PreemptionConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preemption config %s: %v", path, err)
	}
	conf := DefaultPreemptionConfig()
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("failed to parse preemption config %s: %v", path, err)
	}
	return &conf, nil
}
