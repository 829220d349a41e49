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

// go/src/core/types/task.go
package types

import (
	"sync/atomic"
	"time"
)

// Task is one unit of authenticated proving work handed in by the task
// source. The core borrows it for the duration of a proving call and never
// retains it afterwards.
type Task struct {
	TaskID       string    // logical unit of work the proof is bound to
	ProgramID    string    // compiled guest program to execute
	PublicInputs []byte    // opaque input bytes, interpreted by the program
	NodeID       string    // node the task was fetched for
	CreatedAt    time.Time // local enqueue time
}

// RetryProof is a proof whose submission failed and is waiting to be
// submitted again.
type RetryProof struct {
	Task       *Task
	Proof      []byte
	RetryCount int
}

// TaskQueue is a bounded queue feeding prover workers, with a separate
// channel for submission retries.
type TaskQueue struct {
	tasks      chan *Task
	retryQueue chan *RetryProof

	queued    int64
	processed int64
	failed    int64
}

// NewTaskQueue creates a queue with the given task and retry capacities.
func NewTaskQueue(capacity, retryCapacity int) *TaskQueue {
	return &TaskQueue{
		tasks:      make(chan *Task, capacity),
		retryQueue: make(chan *RetryProof, retryCapacity),
	}
}

// AddTask enqueues a task without blocking. It returns false when the
// queue is full and the task was dropped.
func (tq *TaskQueue) AddTask(task *Task) bool {
	select {
	case tq.tasks <- task:
		atomic.AddInt64(&tq.queued, 1)
		return true
	default:
		return false
	}
}

// GetTask dequeues a task without blocking.
func (tq *TaskQueue) GetTask() (*Task, bool) {
	select {
	case task := <-tq.tasks:
		return task, true
	default:
		return nil, false
	}
}

// Len returns the number of tasks currently queued.
func (tq *TaskQueue) Len() int {
	return len(tq.tasks)
}

// AddRetry enqueues a failed submission without blocking. It returns
// false when the retry channel is full; the caller decides whether the
// proof is dropped or counted failed, so a stalled submitter can never
// wedge the prover workers.
func (tq *TaskQueue) AddRetry(rp *RetryProof) bool {
	select {
	case tq.retryQueue <- rp:
		return true
	default:
		return false
	}
}

// TryGetRetry dequeues a pending retry without blocking.
func (tq *TaskQueue) TryGetRetry() (*RetryProof, bool) {
	select {
	case rp := <-tq.retryQueue:
		return rp, true
	default:
		return nil, false
	}
}

// MarkProcessed records one successfully handled task.
func (tq *TaskQueue) MarkProcessed() {
	atomic.AddInt64(&tq.processed, 1)
}

// MarkFailed records one failed task.
func (tq *TaskQueue) MarkFailed() {
	atomic.AddInt64(&tq.failed, 1)
}

// Stats returns the queued/processed/failed counters.
func (tq *TaskQueue) Stats() (queued, processed, failed int64) {
	return atomic.LoadInt64(&tq.queued),
		atomic.LoadInt64(&tq.processed),
		atomic.LoadInt64(&tq.failed)
}
