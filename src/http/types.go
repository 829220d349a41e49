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

// go/src/http/types.go
package http

// JSON renderings of the boundary call surface. Byte fields marshal as
// base64, the encoding/json default for []byte.

// VerifyRequest asks the verifier to check a proof.
type VerifyRequest struct {
	ProgramID    string `json:"program_id" binding:"required"`
	TaskID       string `json:"task_id"`
	PublicInputs []byte `json:"public_inputs"`
	ProofData    []byte `json:"proof_data" binding:"required"`
}

// VerifyResponse mirrors the verification result envelope.
type VerifyResponse struct {
	Success      bool     `json:"success"`
	ErrorMessage string   `json:"error_message,omitempty"`
	ExitCode     uint32   `json:"exit_code"`
	PublicOutput []byte   `json:"public_output,omitempty"`
	Logs         []string `json:"logs,omitempty"`
}

// ProveRequest asks for an authenticated proof of one task.
type ProveRequest struct {
	ProgramID    string `json:"program_id" binding:"required"`
	TaskID       string `json:"task_id" binding:"required"`
	PublicInputs []byte `json:"public_inputs"`
}

// ProveResponse mirrors the prover result envelope.
type ProveResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
	ProofID      string `json:"proof_id,omitempty"`
	ProofData    []byte `json:"proof_data,omitempty"`
}

// ProofEvent is pushed to websocket subscribers whenever a proof is
// produced through the HTTP surface.
type ProofEvent struct {
	Type      string `json:"type"` // "proof"
	ProgramID string `json:"program_id"`
	TaskID    string `json:"task_id,omitempty"`
	ProofID   string `json:"proof_id"`
}
