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

// Command preemptiond wires the preemption core to an in-memory demo RM
// feed and a read-only webservice, for exercising tryPreempt end to end
// without a real resource manager attached.
package main

import (
	"flag"
	"net/http"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/cloudera/yunikorn-preemption/pkg/common/configs"
	"github.com/cloudera/yunikorn-preemption/pkg/common/resources"
	"github.com/cloudera/yunikorn-preemption/pkg/log"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption"
	"github.com/cloudera/yunikorn-preemption/pkg/webservice"
)

const cycleInterval = 5 * time.Second

func main() {
	var (
		configPath       = flag.String("config", "", "path to a preemption config YAML file; defaults are used when empty")
		listenAddr       = flag.String("listen", ":9080", "address the debug webservice listens on")
		dev              = flag.Bool("dev", false, "use the human readable development logger instead of the production JSON encoder")
		dominantFairness = flag.Bool("dominant-resource-fairness", false, "bound admission by dominant share instead of plain componentwise dominance")
	)
	flag.Parse()

	if *dev {
		log.InitDevelopment()
	}
	logger := log.Logger()

	conf := configs.DefaultPreemptionConfig()
	if *configPath != "" {
		loaded, err := configs.LoadPreemptionConfig(*configPath)
		if err != nil {
			logger.Fatal("failed to load preemption config", zap.Error(err))
		}
		conf = *loaded
	}

	var calc resources.ResourceCalculator = resources.DefaultResourceCalculator{}
	if *dominantFairness {
		calc = resources.DominantResourceCalculator{}
	}
	coordinator := preemption.NewCoordinator(calc, clock.RealClock{}, conf)

	ws := webservice.New(coordinator)
	go func() {
		logger.Info("starting preemption debug webservice", zap.String("addr", *listenAddr))
		if err := http.ListenAndServe(*listenAddr, ws); err != nil {
			logger.Fatal("webservice stopped", zap.Error(err))
		}
	}()

	runDemoLoop(coordinator, logger)
}

// runDemoLoop mirrors the teacher's PartitionManager.Run background
// loop: sleep, do one unit of work, log what happened, forever.
func runDemoLoop(coordinator *preemption.Coordinator, logger *zap.Logger) {
	feed := newDemoFeed()
	coordinator.UpdatePartitions(feed.Partitions())

	logger.Info("starting demo RM feed", zap.String("interval", cycleInterval.String()))
	for {
		time.Sleep(cycleInterval)

		coordinator.QueueRefreshed(feed.Tree())
		requirement := feed.Requirement()
		candidates := feed.Candidates()

		admitted := coordinator.TryPreempt(requirement, candidates, demoPartition)
		logger.Info("ran preemption cycle",
			zap.String("application", requirement.Application.ApplicationAttemptID()),
			zap.Bool("admitted", admitted))

		toKill := coordinator.PullContainersToKill()
		if len(toKill) > 0 {
			ids := make([]string, 0, len(toKill))
			for id := range toKill {
				ids = append(ids, id)
			}
			logger.Info("containers promoted to kill set", zap.Strings("containers", ids))
		}
	}
}
