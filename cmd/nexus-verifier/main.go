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

// nexus-verifier is a one-shot verifier: it reads a verification request
// from a JSON file, checks the proof and writes the result next to it.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexus-core/go/src/core/keys"
	"github.com/nexus-core/go/src/core/program"
	"github.com/nexus-core/go/src/core/verifier"
	logger "github.com/nexus-core/go/src/log"
)

// defaultMasterSeed is the development provisioning seed, hex of
// "nexus-dev-master-seed". Production deployments must pass the seed the
// proofs were provisioned with.
const defaultMasterSeed = "6e657875732d6465762d6d61737465722d73656564"

// VerificationRequest is the JSON input file format.
type VerificationRequest struct {
	TaskID       string `json:"task_id"`
	ProgramID    string `json:"program_id"`
	PublicInputs []byte `json:"public_inputs"`
	Proof        []byte `json:"proof"`
}

// VerificationResponse is the JSON output file format.
type VerificationResponse struct {
	TaskID       string   `json:"task_id"`
	Success      bool     `json:"success"`
	Error        string   `json:"error,omitempty"`
	ExitCode     uint32   `json:"exit_code"`
	PublicOutput []byte   `json:"public_output,omitempty"`
	Logs         []string `json:"logs,omitempty"`
}

func main() {
	requestFile := flag.String("request", "", "path to the verification request file")
	responseFile := flag.String("response", "", "path for the response file (defaults next to the request)")
	masterSeed := flag.String("master-seed", defaultMasterSeed, "hex key provisioning master seed")
	flag.Parse()

	if *requestFile == "" {
		fmt.Fprintln(os.Stderr, "usage: nexus-verifier -request request.json [-response response.json]")
		os.Exit(2)
	}

	seed, err := hex.DecodeString(*masterSeed)
	if err != nil || len(seed) == 0 {
		logger.Fatalf("master-seed must be non-empty hex")
	}

	data, err := os.ReadFile(*requestFile)
	if err != nil {
		logger.Fatalf("read request: %v", err)
	}
	var req VerificationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Fatalf("parse request: %v", err)
	}

	registry := program.DefaultRegistry()
	store := keys.NewMemory()
	if err := store.Provision(seed, registry.IDs()); err != nil {
		logger.Fatalf("provision program keys: %v", err)
	}

	res := verifier.New(registry, store).Verify(req.ProgramID, req.TaskID, req.PublicInputs, req.Proof)
	resp := VerificationResponse{
		TaskID:       req.TaskID,
		Success:      res.Success,
		Error:        res.ErrorMessage,
		ExitCode:     res.ExitCode,
		PublicOutput: res.PublicOutput,
		Logs:         res.Logs,
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	res.Release()
	if err != nil {
		logger.Fatalf("encode response: %v", err)
	}

	outPath := *responseFile
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(*requestFile), filepath.Ext(*requestFile))
		outPath = filepath.Join(filepath.Dir(*requestFile), base+".response.json")
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		logger.Fatalf("write response: %v", err)
	}

	if resp.Success {
		logger.Info("verification succeeded for task %s (exit code %d)", req.TaskID, resp.ExitCode)
	} else {
		logger.Warn("verification failed for task %s: %s", req.TaskID, resp.Error)
	}
}
