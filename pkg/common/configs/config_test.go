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

package configs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPreemptionConfig(t *testing.T) {
	conf := DefaultPreemptionConfig()
	assert.True(t, conf.Enabled)
	assert.Equal(t, DefaultWaitBeforeKillSeconds*time.Second, conf.WaitBeforeKill())
}

func TestWaitBeforeKillFallsBackWhenUnset(t *testing.T) {
	conf := PreemptionConfig{Enabled: true}
	assert.Equal(t, DefaultWaitBeforeKillSeconds*time.Second, conf.WaitBeforeKill())

	conf.WaitBeforeKillSeconds = 45
	assert.Equal(t, 45*time.Second, conf.WaitBeforeKill())
}

func TestLoadPreemptionConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "preemption-config")
	assert.NoError(t, err)
	defer os.RemoveAll(dir)

	data := "enabled: true\nwaitBeforeKillSeconds: 60\n"
	p := filepath.Join(dir, "preemption.yaml")
	assert.NoError(t, ioutil.WriteFile(p, []byte(data), 0644))

	conf, err := LoadPreemptionConfig(p)
	assert.NoError(t, err)
	assert.True(t, conf.Enabled)
	assert.Equal(t, 60*time.Second, conf.WaitBeforeKill())
}

func TestLoadPreemptionConfigMissingFile(t *testing.T) {
	_, err := LoadPreemptionConfig(filepath.Join(os.TempDir(), "does-not-exist-preemption-config.yaml"))
	assert.Error(t, err)
}
