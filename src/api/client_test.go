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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexus-core/go/src/core/types"
)

func TestFetchTaskBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad fetch request: %v", err)
		}
		_ = json.NewEncoder(w).Encode([]fetchedTask{
			{TaskID: "t1", ProgramID: "fib_input", PublicInputs: []byte{10, 0, 0, 0}},
			{TaskID: "t2", ProgramID: "fib_input", PublicInputs: []byte{11, 0, 0, 0}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	tasks, err := c.FetchTaskBatch("node-1", 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].TaskID != "t1" || tasks[0].NodeID != "node-1" {
		t.Errorf("task not mapped: %+v", tasks[0])
	}
}

func TestFetchClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate_limited", http.StatusTooManyRequests, IsRateLimit},
		{"no_task", http.StatusNotFound, IsNoTask},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, srv.URL)
			_, err := c.FetchTaskBatch("node-1", 3)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !tt.check(err) {
				t.Errorf("error %v not classified", err)
			}
		})
	}
	if IsRateLimit(nil) || IsNoTask(nil) {
		t.Errorf("nil error misclassified")
	}
	if IsRateLimit(errors.New("boom")) {
		t.Errorf("generic error classified as rate limit")
	}
}

func TestSubmitProof(t *testing.T) {
	var got submitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad submit request: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	task := &types.Task{TaskID: "t1", NodeID: "node-1"}
	proofData := []byte{1, 2, 3, 4}
	if err := c.SubmitProof(task, proofData); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.TaskID != "t1" || got.NodeID != "node-1" {
		t.Errorf("submission not mapped: %+v", got)
	}
	if got.ProofID != ProofID(proofData) {
		t.Errorf("proof id mismatch: %s", got.ProofID)
	}
}

func TestProofID(t *testing.T) {
	a := ProofID([]byte{1, 2, 3})
	b := ProofID([]byte{1, 2, 3})
	c := ProofID([]byte{1, 2, 4})
	if a != b {
		t.Errorf("proof id is not deterministic")
	}
	if a == c {
		t.Errorf("distinct proofs share an id")
	}
	if a == "" {
		t.Errorf("empty proof id")
	}
}
