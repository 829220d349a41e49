// MIT License
//
// Copyright (c) 2025 nexus-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// nexus-prover is the proving daemon: it fetches tasks from the
// orchestrator, proves them with the local worker pool and exposes the
// boundary call surface over HTTP.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nexus-core/go/src/api"
	"github.com/nexus-core/go/src/config"
	"github.com/nexus-core/go/src/core/keys"
	"github.com/nexus-core/go/src/core/program"
	"github.com/nexus-core/go/src/core/prover"
	"github.com/nexus-core/go/src/core/types"
	"github.com/nexus-core/go/src/core/verifier"
	httpserver "github.com/nexus-core/go/src/http"
	logger "github.com/nexus-core/go/src/log"
	"github.com/nexus-core/go/src/worker"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the daemon configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	nodeSeed, err := cfg.NodeSeedBytes()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	masterSeed, err := cfg.MasterSeedBytes()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	registry := program.DefaultRegistry()

	var store *keys.Store
	if cfg.KeyStorePath != "" {
		store, err = keys.Open(cfg.KeyStorePath)
		if err != nil {
			logger.Fatalf("open key store: %v", err)
		}
	} else {
		store = keys.NewMemory()
	}
	defer store.Close()
	if err := store.Provision(masterSeed, registry.IDs()); err != nil {
		logger.Fatalf("provision program keys: %v", err)
	}

	prv, err := prover.New(registry, store, nodeSeed)
	if err != nil {
		logger.Fatalf("create prover: %v", err)
	}
	ver := verifier.New(registry, store)

	queue := types.NewTaskQueue(cfg.TaskQueueCapacity, cfg.RetryQueueCap)
	metrics := worker.NewMetrics(queue)
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatalf("register metrics: %v", err)
	}

	source := api.NewClient(cfg.TasksURL, cfg.SubmitURL)
	pool := worker.NewPool(cfg, source, queue, prv, metrics)
	pool.Start()

	zlog, err := zap.NewProduction()
	if err != nil {
		logger.Fatalf("create server logger: %v", err)
	}
	defer zlog.Sync()

	server := httpserver.NewServer(cfg.HTTPAddress, ver, prv, zlog)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatalf("http server: %v", err)
		}
	}()

	logger.Info("nexus-prover running, programs: %v", registry.IDs())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	pool.Stop()

	queued, processed, failed := queue.Stats()
	logger.Info("final stats: queued=%d processed=%d failed=%d", queued, processed, failed)
}
