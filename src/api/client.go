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

// Package api talks to the external task source. How tasks are scheduled
// or authenticated on the orchestrator side is outside the proving core;
// this client only turns fetch responses into types.Task values and
// submits sealed proofs back.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/sha3"

	"github.com/nexus-core/go/src/core/types"
)

// TaskSource supplies proving tasks and accepts sealed proofs. The worker
// pool depends on this interface, not on the HTTP client, so tests can
// feed tasks from memory.
type TaskSource interface {
	FetchTaskBatch(nodeID string, max int) ([]*types.Task, error)
	SubmitProof(task *types.Task, proofData []byte) error
}

// fetchedTask is the wire form of one task in a fetch response.
type fetchedTask struct {
	TaskID       string `json:"task_id"`
	ProgramID    string `json:"program_id"`
	PublicInputs []byte `json:"public_inputs"`
}

// submitRequest is the wire form of a proof submission.
type submitRequest struct {
	TaskID    string `json:"task_id"`
	NodeID    string `json:"node_id"`
	ProofID   string `json:"proof_id"`
	ProofData []byte `json:"proof_data"`
}

// Client is the HTTP task source client.
type Client struct {
	httpClient *http.Client
	tasksURL   string
	submitURL  string
}

// NewClient creates a task source client for the given orchestrator
// endpoints.
func NewClient(tasksURL, submitURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		tasksURL:  tasksURL,
		submitURL: submitURL,
	}
}

// FetchTaskBatch fetches up to max tasks for a node.
func (c *Client) FetchTaskBatch(nodeID string, max int) ([]*types.Task, error) {
	reqBody, err := json.Marshal(map[string]any{"node_id": nodeID, "max_tasks": max})
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Post(c.tasksURL, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limit exceeded: %s", string(respData))
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("no task available (404)")
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch tasks failed with status %d: %s", resp.StatusCode, string(respData))
	}

	var fetched []fetchedTask
	if err := json.Unmarshal(respData, &fetched); err != nil {
		return nil, fmt.Errorf("decode task batch: %w", err)
	}
	tasks := make([]*types.Task, 0, len(fetched))
	for _, ft := range fetched {
		tasks = append(tasks, &types.Task{
			TaskID:       ft.TaskID,
			ProgramID:    ft.ProgramID,
			PublicInputs: ft.PublicInputs,
			NodeID:       nodeID,
			CreatedAt:    time.Now(),
		})
	}
	return tasks, nil
}

// SubmitProof submits a sealed proof for a completed task.
func (c *Client) SubmitProof(task *types.Task, proofData []byte) error {
	reqBody, err := json.Marshal(submitRequest{
		TaskID:    task.TaskID,
		NodeID:    task.NodeID,
		ProofID:   ProofID(proofData),
		ProofData: proofData,
	})
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Post(c.submitURL, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limit exceeded: %s", string(respData))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit proof failed with status %d: %s", resp.StatusCode, string(respData))
	}
	return nil
}

// ProofID derives a short, log-friendly identifier from proof bytes: the
// Base58 form of the proof's SHA3-256 digest.
func ProofID(proofData []byte) string {
	digest := sha3.Sum256(proofData)
	return base58.Encode(digest[:])
}

// IsRateLimit reports whether an error came from orchestrator rate
// limiting.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "rate limit exceeded") || strings.Contains(msg, "429")
}

// IsNoTask reports whether an error means the orchestrator had no work.
func IsNoTask(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no task available") || strings.Contains(msg, "404")
}
