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

package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// Logger returns the process wide structured logger. It is lazily
// initialised on first use so packages can log from init() without
// ordering concerns.
func Logger() *zap.Logger {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		l, err := cfg.Build()
		if err != nil {
			// fall back to a no-op logger rather than crash on logger setup
			l = zap.NewNop()
		}
		logger = l
	})
	return logger
}

// InitDevelopment switches the process wide logger to the human readable
// development encoder. Intended for use by cmd/preemptiond and tests.
func InitDevelopment() {
	l, err := zap.NewDevelopment()
	if err != nil {
		return
	}
	// consume the lazy initialisation so a later Logger() call keeps
	// this logger instead of building the production one over it
	once.Do(func() {})
	logger = l
}
