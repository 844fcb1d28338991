//go:build preemption_debug

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

package invariant

import "go.uber.org/zap"

// Check panics when cond is false. Active only under -tags preemption_debug.
func Check(cond bool, msg string, _ ...zap.Field) {
	if cond {
		return
	}
	panic("BUG: " + msg)
}
