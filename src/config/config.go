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

// go/src/config/config.go
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// Defaults and operational constants for the prover daemon.
const (
	// BatchSize is the number of tasks requested per fetch.
	BatchSize = 3
	// TaskFetchInterval is the fixed fetch interval in seconds.
	TaskFetchInterval = 180

	DefaultTaskQueueCapacity  = 1000
	DefaultRetryQueueCapacity = 100
	DefaultProverWorkers      = 2
	DefaultHTTPAddress        = "127.0.0.1:8480"

	DefaultTasksURL  = "https://beta.orchestrator.nexus.xyz/v3/tasks"
	DefaultSubmitURL = "https://beta.orchestrator.nexus.xyz/v3/tasks/submit"
)

// Config is the prover daemon configuration loaded from a JSON file.
type Config struct {
	NodeIDs           []string `json:"node_ids"`            // node identities to fetch tasks for
	NodeSeed          string   `json:"node_seed"`           // hex, 32 bytes; the node's Ed25519 attestation seed
	MasterSeed        string   `json:"master_seed"`         // hex; master seed for program key provisioning
	KeyStorePath      string   `json:"key_store_path"`      // LevelDB directory for provisioned keys
	HTTPAddress       string   `json:"http_address"`        // local boundary/metrics listen address
	RequestDelay      int      `json:"request_delay"`       // seconds between fetch rounds
	ProverWorkers     int      `json:"prover_workers"`      // number of proving workers
	TaskQueueCapacity int      `json:"task_queue_capacity"` // bounded task queue size
	RetryQueueCap     int      `json:"retry_queue_capacity"`
	TasksURL          string   `json:"tasks_url"`
	SubmitURL         string   `json:"submit_url"`
}

// LoadConfig reads and validates a configuration file, filling defaults
// for every unset field.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.TaskQueueCapacity <= 0 {
		cfg.TaskQueueCapacity = DefaultTaskQueueCapacity
	}
	if cfg.RetryQueueCap <= 0 {
		cfg.RetryQueueCap = DefaultRetryQueueCapacity
	}
	if cfg.ProverWorkers <= 0 {
		cfg.ProverWorkers = DefaultProverWorkers
	}
	if cfg.HTTPAddress == "" {
		cfg.HTTPAddress = DefaultHTTPAddress
	}
	if cfg.TasksURL == "" {
		cfg.TasksURL = DefaultTasksURL
	}
	if cfg.SubmitURL == "" {
		cfg.SubmitURL = DefaultSubmitURL
	}
	if _, err := cfg.NodeSeedBytes(); err != nil {
		return nil, err
	}
	if _, err := cfg.MasterSeedBytes(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NodeSeedBytes decodes the node's attestation seed.
func (c *Config) NodeSeedBytes() ([]byte, error) {
	seed, err := hex.DecodeString(c.NodeSeed)
	if err != nil {
		return nil, fmt.Errorf("node_seed is not valid hex: %w", err)
	}
	if len(seed) != 32 {
		return nil, fmt.Errorf("node_seed must decode to 32 bytes, got %d", len(seed))
	}
	return seed, nil
}

// MasterSeedBytes decodes the key provisioning master seed.
func (c *Config) MasterSeedBytes() ([]byte, error) {
	seed, err := hex.DecodeString(c.MasterSeed)
	if err != nil {
		return nil, fmt.Errorf("master_seed is not valid hex: %w", err)
	}
	if len(seed) == 0 {
		return nil, fmt.Errorf("master_seed must not be empty")
	}
	return seed, nil
}
