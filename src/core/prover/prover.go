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

// go/src/core/prover/prover.go
package prover

import (
	"encoding/binary"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/nexus-core/go/src/core/keys"
	"github.com/nexus-core/go/src/core/program"
	"github.com/nexus-core/go/src/core/proof"
	"github.com/nexus-core/go/src/core/result"
	"github.com/nexus-core/go/src/core/types"
	logger "github.com/nexus-core/go/src/log"
)

// Anonymous proving runs a build-fixed default computation with no task
// binding: the n-th Fibonacci step with initial values (1, 1), matching
// the network client's demo workload.
const (
	DefaultProgramID = program.FibInputInitialID
	defaultFibN      = 9
)

// DefaultPublicInputs returns the public inputs of the default anonymous
// computation. A verifier checking an anonymous proof must supply the
// same inputs with an empty task id.
func DefaultPublicInputs() []byte {
	in := make([]byte, 12)
	binary.LittleEndian.PutUint32(in[0:4], defaultFibN)
	binary.LittleEndian.PutUint32(in[4:8], 1)
	binary.LittleEndian.PutUint32(in[8:12], 1)
	return in
}

// Prover executes guest programs and seals proofs over their traces. It
// holds only read-only state (program registry, provisioned keys, node
// identity), so concurrent calls from independent goroutines do not
// interfere.
type Prover struct {
	registry *program.Registry
	keys     *keys.Store
	nodeKey  ed25519.PrivateKey
}

// New creates a prover. nodeSeed is the 32-byte seed of the node's
// Ed25519 identity, used to attest authenticated proofs.
func New(registry *program.Registry, ks *keys.Store, nodeSeed []byte) (*Prover, error) {
	if len(nodeSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("node seed must be %d bytes, got %d", ed25519.SeedSize, len(nodeSeed))
	}
	return &Prover{
		registry: registry,
		keys:     ks,
		nodeKey:  ed25519.NewKeyFromSeed(nodeSeed),
	}, nil
}

// NodePublicKey returns the prover's attestation public key.
func (p *Prover) NodePublicKey() ed25519.PublicKey {
	return p.nodeKey.Public().(ed25519.PublicKey)
}

// ProveAuthenticated executes the task's program on its public inputs and
// seals a proof binding (program_id, task_id, public_inputs) together
// with the resulting trace. The task is borrowed for the duration of the
// call only; the returned envelope owns every byte it carries.
func (p *Prover) ProveAuthenticated(task *types.Task) *result.ProverResult {
	prog, err := p.registry.Lookup(task.ProgramID)
	if err != nil {
		return result.NewProverFailure(result.Errorf(result.UnknownProgram, "%v", err))
	}
	if err := prog.CheckInput(task.PublicInputs); err != nil {
		return result.NewProverFailure(result.Errorf(result.InvalidInput, "%v", err))
	}
	key, ok := p.keys.ProvingKey(task.ProgramID)
	if !ok {
		return result.NewProverFailure(result.Errorf(result.UnknownProgram,
			"no proving key provisioned for program %q", task.ProgramID))
	}

	trace, err := prog.Execute(task.PublicInputs)
	if err != nil {
		return result.NewProverFailure(result.Errorf(result.ProvingFailed,
			"program %q: %v", task.ProgramID, err))
	}

	env := &proof.Envelope{
		Authenticated: true,
		Binding:       proof.BindingDigest(task.ProgramID, task.TaskID, task.PublicInputs),
		ExitCode:      trace.ExitCode,
		Output:        trace.Output,
		Logs:          trace.Logs,
	}
	env.Seal(key)
	env.ProverKey = p.NodePublicKey()
	env.Signature = ed25519.Sign(p.nodeKey, env.Commitment[:])

	data, err := env.Encode()
	if err != nil {
		return result.NewProverFailure(result.Errorf(result.InternalError,
			"encode proof for task %q: %v", task.TaskID, err))
	}
	logger.Debug("proved task %s program %s (%d proof bytes)", task.TaskID, task.ProgramID, len(data))
	return result.NewProverSuccess(data)
}

// ProveAnonymously proves the default computation with an empty task
// binding and no prover attestation.
func (p *Prover) ProveAnonymously() *result.ProverResult {
	prog, err := p.registry.Lookup(DefaultProgramID)
	if err != nil {
		return result.NewProverFailure(result.Errorf(result.InternalError,
			"default program missing from registry: %v", err))
	}
	key, ok := p.keys.ProvingKey(DefaultProgramID)
	if !ok {
		return result.NewProverFailure(result.Errorf(result.InternalError,
			"no proving key provisioned for default program %q", DefaultProgramID))
	}

	inputs := DefaultPublicInputs()
	trace, err := prog.Execute(inputs)
	if err != nil {
		return result.NewProverFailure(result.Errorf(result.ProvingFailed,
			"default program %q: %v", DefaultProgramID, err))
	}

	env := &proof.Envelope{
		Binding:  proof.BindingDigest(DefaultProgramID, "", inputs),
		ExitCode: trace.ExitCode,
		Output:   trace.Output,
		Logs:     trace.Logs,
	}
	env.Seal(key)

	data, err := env.Encode()
	if err != nil {
		return result.NewProverFailure(result.Errorf(result.InternalError,
			"encode anonymous proof: %v", err))
	}
	logger.Debug("proved anonymously with program %s (%d proof bytes)", DefaultProgramID, len(data))
	return result.NewProverSuccess(data)
}
