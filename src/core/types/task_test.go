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

package types

import "testing"

func TestTaskQueueBounded(t *testing.T) {
	tq := NewTaskQueue(2, 2)
	if !tq.AddTask(&Task{TaskID: "t1"}) || !tq.AddTask(&Task{TaskID: "t2"}) {
		t.Fatalf("adding within capacity failed")
	}
	if tq.AddTask(&Task{TaskID: "t3"}) {
		t.Fatalf("queue accepted a task beyond capacity")
	}
	if tq.Len() != 2 {
		t.Fatalf("queue length = %d, want 2", tq.Len())
	}

	task, ok := tq.GetTask()
	if !ok || task.TaskID != "t1" {
		t.Fatalf("dequeue out of order: %+v", task)
	}
	tq.GetTask()
	if _, ok := tq.GetTask(); ok {
		t.Fatalf("dequeue from an empty queue succeeded")
	}
}

func TestTaskQueueRetries(t *testing.T) {
	tq := NewTaskQueue(2, 2)
	if _, ok := tq.TryGetRetry(); ok {
		t.Fatalf("empty retry queue yielded a proof")
	}
	if !tq.AddRetry(&RetryProof{Task: &Task{TaskID: "t1"}, Proof: []byte{1}, RetryCount: 1}) {
		t.Fatalf("adding a retry within capacity failed")
	}
	rp, ok := tq.TryGetRetry()
	if !ok || rp.Task.TaskID != "t1" || rp.RetryCount != 1 {
		t.Fatalf("retry not round-tripped: %+v", rp)
	}
}

func TestTaskQueueRetryNeverBlocks(t *testing.T) {
	tq := NewTaskQueue(1, 1)
	if !tq.AddRetry(&RetryProof{Task: &Task{TaskID: "t1"}}) {
		t.Fatalf("adding a retry within capacity failed")
	}
	// A full retry channel must refuse instead of blocking the caller.
	if tq.AddRetry(&RetryProof{Task: &Task{TaskID: "t2"}}) {
		t.Fatalf("retry queue accepted a proof beyond capacity")
	}
	rp, ok := tq.TryGetRetry()
	if !ok || rp.Task.TaskID != "t1" {
		t.Fatalf("queued retry lost: %+v", rp)
	}
}

func TestTaskQueueStats(t *testing.T) {
	tq := NewTaskQueue(4, 4)
	tq.AddTask(&Task{TaskID: "t1"})
	tq.AddTask(&Task{TaskID: "t2"})
	tq.MarkProcessed()
	tq.MarkFailed()

	queued, processed, failed := tq.Stats()
	if queued != 2 || processed != 1 || failed != 1 {
		t.Fatalf("stats = %d/%d/%d, want 2/1/1", queued, processed, failed)
	}
}
