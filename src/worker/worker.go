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

// go/src/worker/worker.go
package worker

import (
	"time"

	"github.com/lni/goutils/syncutil"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nexus-core/go/src/api"
	"github.com/nexus-core/go/src/config"
	"github.com/nexus-core/go/src/core/prover"
	"github.com/nexus-core/go/src/core/result"
	"github.com/nexus-core/go/src/core/types"
	logger "github.com/nexus-core/go/src/log"
)

const maxSubmitRetries = 5

// Metrics holds the Prometheus instruments of the worker pool.
type Metrics struct {
	TasksFetched    prometheus.Counter
	ProofsGenerated prometheus.Counter
	ProofsSubmitted prometheus.Counter
	ProofFailures   *prometheus.CounterVec
	LiveEnvelopes   prometheus.GaugeFunc
	QueueDepth      prometheus.GaugeFunc
}

// NewMetrics initializes the worker pool metrics.
func NewMetrics(queue *types.TaskQueue) *Metrics {
	return &Metrics{
		TasksFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prover_tasks_fetched_total",
			Help: "Number of tasks fetched from the task source",
		}),
		ProofsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prover_proofs_generated_total",
			Help: "Number of proofs generated",
		}),
		ProofsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prover_proofs_submitted_total",
			Help: "Number of proofs submitted to the task source",
		}),
		ProofFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prover_proof_failures_total",
			Help: "Number of failed proving or submission attempts",
		}, []string{"stage"}),
		LiveEnvelopes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "prover_live_result_envelopes",
			Help: "Result envelopes constructed but not yet released",
		}, func() float64 { return float64(result.Outstanding()) }),
		QueueDepth: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "prover_task_queue_depth",
			Help: "Tasks waiting in the local queue",
		}, func() float64 { return float64(queue.Len()) }),
	}
}

// Register registers all worker metrics on the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.TasksFetched, m.ProofsGenerated, m.ProofsSubmitted,
		m.ProofFailures, m.LiveEnvelopes, m.QueueDepth,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Pool runs the task fetcher and the proving workers. Lifecycle is
// managed by a single stopper; Stop blocks until every worker returned.
type Pool struct {
	cfg     *config.Config
	source  api.TaskSource
	queue   *types.TaskQueue
	prover  *prover.Prover
	metrics *Metrics
	stopper *syncutil.Stopper
}

// NewPool wires a worker pool. The pool owns no envelope memory: every
// envelope produced while proving is released before the worker moves on.
func NewPool(cfg *config.Config, source api.TaskSource, queue *types.TaskQueue,
	p *prover.Prover, metrics *Metrics) *Pool {
	return &Pool{
		cfg:     cfg,
		source:  source,
		queue:   queue,
		prover:  p,
		metrics: metrics,
		stopper: syncutil.NewStopper(),
	}
}

// Start launches one fetcher, the configured number of proving workers
// and one submission retry worker.
func (p *Pool) Start() {
	p.stopper.RunWorker(p.fetchLoop)
	for i := 0; i < p.cfg.ProverWorkers; i++ {
		id := i
		p.stopper.RunWorker(func() { p.proveLoop(id) })
	}
	p.stopper.RunWorker(p.retryLoop)
	logger.Info("worker pool started: %d prover workers, %d nodes", p.cfg.ProverWorkers, len(p.cfg.NodeIDs))
}

// Stop shuts the pool down and waits for all workers.
func (p *Pool) Stop() {
	p.stopper.Stop()
	logger.Info("worker pool stopped")
}

// fetchLoop polls the task source for every configured node on a fixed
// interval and feeds the bounded queue.
func (p *Pool) fetchLoop() {
	interval := time.Duration(p.cfg.RequestDelay) * time.Second
	if interval <= 0 {
		interval = config.TaskFetchInterval * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopper.ShouldStop():
			return
		case <-ticker.C:
			for _, nodeID := range p.cfg.NodeIDs {
				tasks, err := p.source.FetchTaskBatch(nodeID, config.BatchSize)
				if err != nil {
					switch {
					case api.IsRateLimit(err):
						logger.Warn("[fetcher@%s] rate limited, waiting for next interval", nodeID)
					case api.IsNoTask(err):
						logger.Debug("[fetcher@%s] no task available", nodeID)
					default:
						logger.Warn("[fetcher@%s] fetch failed: %v", nodeID, err)
					}
					continue
				}
				added := 0
				for _, task := range tasks {
					p.metrics.TasksFetched.Inc()
					if p.queue.AddTask(task) {
						added++
					} else {
						logger.Warn("[fetcher@%s] queue full, dropping task %s", nodeID, task.TaskID)
					}
				}
				if added > 0 {
					logger.Info("[fetcher@%s] queued %d tasks", nodeID, added)
				}
			}
		}
	}
}

// proveLoop takes tasks off the queue, proves them and submits the
// sealed proofs.
func (p *Pool) proveLoop(id int) {
	for {
		select {
		case <-p.stopper.ShouldStop():
			return
		default:
		}
		task, ok := p.queue.GetTask()
		if !ok {
			select {
			case <-p.stopper.ShouldStop():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		res := p.prover.ProveAuthenticated(task)
		if !res.Success {
			logger.Warn("[prover-%d] task %s failed: %s", id, task.TaskID, res.ErrorMessage)
			p.metrics.ProofFailures.WithLabelValues("prove").Inc()
			p.queue.MarkFailed()
			res.Release()
			continue
		}
		p.metrics.ProofsGenerated.Inc()

		// The envelope owns the proof bytes; copy them out before the
		// release so submission and retries never touch freed memory.
		proofData := append([]byte(nil), res.ProofData...)
		res.Release()

		if err := p.source.SubmitProof(task, proofData); err != nil {
			logger.Warn("[prover-%d] submit for task %s failed: %v", id, task.TaskID, err)
			p.metrics.ProofFailures.WithLabelValues("submit").Inc()
			if !p.queue.AddRetry(&types.RetryProof{Task: task, Proof: proofData, RetryCount: 1}) {
				logger.Error("[prover-%d] retry queue full, dropping proof for task %s", id, task.TaskID)
				p.metrics.ProofFailures.WithLabelValues("retry_drop").Inc()
				p.queue.MarkFailed()
			}
			continue
		}
		p.metrics.ProofsSubmitted.Inc()
		p.queue.MarkProcessed()
		logger.Info("[prover-%d] task %s proved and submitted (proof %s)", id, task.TaskID, api.ProofID(proofData))
	}
}

// retryLoop resubmits proofs whose first submission failed, up to
// maxSubmitRetries attempts each.
func (p *Pool) retryLoop() {
	for {
		select {
		case <-p.stopper.ShouldStop():
			return
		case <-time.After(5 * time.Second):
		}
		for {
			rp, ok := p.queue.TryGetRetry()
			if !ok {
				break
			}
			if err := p.source.SubmitProof(rp.Task, rp.Proof); err != nil {
				rp.RetryCount++
				if rp.RetryCount > maxSubmitRetries {
					logger.Error("[retry] giving up on task %s after %d attempts: %v",
						rp.Task.TaskID, rp.RetryCount, err)
					p.metrics.ProofFailures.WithLabelValues("retry").Inc()
					p.queue.MarkFailed()
					continue
				}
				if !p.queue.AddRetry(rp) {
					logger.Error("[retry] retry queue full, dropping proof for task %s", rp.Task.TaskID)
					p.metrics.ProofFailures.WithLabelValues("retry_drop").Inc()
					p.queue.MarkFailed()
				}
				break
			}
			p.metrics.ProofsSubmitted.Inc()
			p.queue.MarkProcessed()
		}
	}
}
