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

// go/src/core/verifier/verifier.go
package verifier

import (
	"bytes"
	"errors"

	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/nexus-core/go/src/core/keys"
	"github.com/nexus-core/go/src/core/program"
	"github.com/nexus-core/go/src/core/proof"
	"github.com/nexus-core/go/src/core/result"
)

// Verifier checks proofs against pre-provisioned verifying keys and
// reconstructs program outputs from verified computations. It holds only
// read-only state, so concurrent Verify calls do not interfere, and it
// mutates nothing: two calls with byte-identical inputs yield
// byte-identical envelope contents.
type Verifier struct {
	registry *program.Registry
	keys     *keys.Store
}

// New creates a verifier over the given program registry and key store.
func New(registry *program.Registry, ks *keys.Store) *Verifier {
	return &Verifier{registry: registry, keys: ks}
}

// Verify checks proofData against the program's verifying key and the
// supplied public inputs. The structural decode runs first so malformed
// bytes are rejected at framing cost, before any hashing over program
// state. On success the envelope carries the output, exit code and log
// lines of the deterministically reconstructed execution; on failure the
// exit code stays at the 0 sentinel and says nothing about the program.
// All inputs are borrowed for the call only.
func (v *Verifier) Verify(programID, taskID string, publicInputs, proofData []byte) *result.VerificationResult {
	env, err := proof.Decode(proofData)
	if err != nil {
		if errors.Is(err, proof.ErrMalformed) {
			return result.NewVerificationFailure(result.Errorf(result.MalformedProof, "%v", err))
		}
		return result.NewVerificationFailure(result.Errorf(result.InternalError, "decode proof: %v", err))
	}

	prog, err := v.registry.Lookup(programID)
	if err != nil {
		return result.NewVerificationFailure(result.Errorf(result.UnknownProgram, "%v", err))
	}
	key, ok := v.keys.VerifyingKey(programID)
	if !ok {
		return result.NewVerificationFailure(result.Errorf(result.UnknownProgram,
			"no verifying key provisioned for program %q", programID))
	}

	// The binding digest ties the proof to this exact (program, task,
	// inputs) triple; a proof sealed for a different task id fails here.
	binding := proof.BindingDigest(programID, taskID, publicInputs)
	if env.Binding != binding {
		return result.NewVerificationFailure(result.Errorf(result.VerificationFailed,
			"proof is bound to a different program, task or input set"))
	}

	if env.ComputeCommitment(key) != env.Commitment {
		return result.NewVerificationFailure(result.Errorf(result.VerificationFailed,
			"commitment does not open under the program's verifying key"))
	}

	if env.Authenticated {
		if !ed25519.Verify(ed25519.PublicKey(env.ProverKey), env.Commitment[:], env.Signature) {
			return result.NewVerificationFailure(result.Errorf(result.VerificationFailed,
				"prover attestation signature is invalid"))
		}
	}

	// Reconstruct the trace. Execution is deterministic, so the output
	// and logs recomputed here are the ones any honest prover committed
	// to.
	trace, err := prog.Execute(publicInputs)
	if err != nil {
		return result.NewVerificationFailure(result.Errorf(result.VerificationFailed,
			"trace reconstruction for program %q: %v", programID, err))
	}
	if !bytes.Equal(trace.Output, env.Output) || trace.ExitCode != env.ExitCode {
		return result.NewVerificationFailure(result.Errorf(result.VerificationFailed,
			"claimed output does not match the reconstructed execution"))
	}

	return result.NewVerificationSuccess(trace.ExitCode, trace.Output, trace.Logs)
}
