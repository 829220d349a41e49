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

// go/src/core/result/result.go
package result

import (
	"fmt"
	"sync/atomic"
)

// Code classifies a failed verification or proving operation.
type Code string

// The full error taxonomy surfaced through result envelopes. Every failure
// crossing the boundary carries exactly one of these codes as the prefix of
// its ErrorMessage.
const (
	UnknownProgram     Code = "UnknownProgram"
	MalformedProof     Code = "MalformedProof"
	VerificationFailed Code = "VerificationFailed"
	InvalidInput       Code = "InvalidInput"
	ProvingFailed      Code = "ProvingFailed"
	InternalError      Code = "InternalError"
)

// Error is a classified failure raised inside the prover or verifier and
// converted into an envelope at the boundary. It is never allowed to escape
// as a panic or to terminate the process.
type Error struct {
	Code Code
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Msg
}

// Errorf builds a classified error with a formatted detail message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// outstanding counts envelopes that were constructed but not yet released.
// Tests use it to prove the exactly-once release discipline; the worker
// metrics export it as a gauge.
var outstanding int64

// Outstanding returns the number of live (unreleased) envelopes.
func Outstanding() int64 {
	return atomic.LoadInt64(&outstanding)
}

// VerificationResult is the envelope returned by every verification call.
// All payload fields are owned by the envelope: they are copied in during
// construction and destroyed by Release.
type VerificationResult struct {
	Success      bool
	ErrorMessage string   // set iff Success is false
	ExitCode     uint32   // meaningful only when a trace was reconstructed; 0 otherwise
	PublicOutput []byte   // owned; nil on failure
	Logs         []string // owned; nil on failure

	released uint32
}

// ProverResult is the envelope returned by both proving modes.
type ProverResult struct {
	Success      bool
	ErrorMessage string // set iff Success is false
	ProofData    []byte // owned; nil on failure

	released uint32
}

// NewVerificationSuccess builds a successful verification envelope. The
// output and log slices are copied so the envelope owns its memory
// exclusively and no alias into caller or prover state survives the call.
func NewVerificationSuccess(exitCode uint32, output []byte, logs []string) *VerificationResult {
	atomic.AddInt64(&outstanding, 1)
	return &VerificationResult{
		Success:      true,
		ExitCode:     exitCode,
		PublicOutput: copyBytes(output),
		Logs:         copyStrings(logs),
	}
}

// NewVerificationFailure builds a failed verification envelope from a
// classified error. ExitCode stays at the 0 sentinel.
func NewVerificationFailure(err *Error) *VerificationResult {
	atomic.AddInt64(&outstanding, 1)
	return &VerificationResult{
		Success:      false,
		ErrorMessage: err.Error(),
	}
}

// Release destroys the envelope's owned memory. The first call zeroes the
// output buffer and drops all payload references; any further call is a
// no-op so a caller contract violation cannot corrupt memory.
func (r *VerificationResult) Release() {
	if !atomic.CompareAndSwapUint32(&r.released, 0, 1) {
		return
	}
	zeroBytes(r.PublicOutput)
	r.PublicOutput = nil
	r.Logs = nil
	r.ErrorMessage = ""
	atomic.AddInt64(&outstanding, -1)
}

// Released reports whether Release has been called.
func (r *VerificationResult) Released() bool {
	return atomic.LoadUint32(&r.released) == 1
}

// NewProverSuccess builds a successful proving envelope owning a copy of
// the proof bytes.
func NewProverSuccess(proof []byte) *ProverResult {
	atomic.AddInt64(&outstanding, 1)
	return &ProverResult{
		Success:   true,
		ProofData: copyBytes(proof),
	}
}

// NewProverFailure builds a failed proving envelope from a classified error.
func NewProverFailure(err *Error) *ProverResult {
	atomic.AddInt64(&outstanding, 1)
	return &ProverResult{
		Success:      false,
		ErrorMessage: err.Error(),
	}
}

// Release destroys the envelope's owned proof bytes exactly once.
func (r *ProverResult) Release() {
	if !atomic.CompareAndSwapUint32(&r.released, 0, 1) {
		return
	}
	zeroBytes(r.ProofData)
	r.ProofData = nil
	r.ErrorMessage = ""
	atomic.AddInt64(&outstanding, -1)
}

// Released reports whether Release has been called.
func (r *ProverResult) Released() bool {
	return atomic.LoadUint32(&r.released) == 1
}

// copyBytes returns an owned copy of b, keeping nil as nil so absent
// optional payloads stay absent.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// copyStrings returns an owned copy of the log slice.
func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// zeroBytes wipes a released buffer so stale proof or output bytes do not
// linger in memory after ownership ends.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
