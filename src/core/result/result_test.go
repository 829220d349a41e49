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

package result

import (
	"strings"
	"testing"
)

func TestEnvelopeOwnership(t *testing.T) {
	output := []byte{1, 2, 3}
	logs := []string{"line one", "line two"}
	res := NewVerificationSuccess(0, output, logs)
	defer res.Release()

	// The envelope must own copies, not aliases of caller memory.
	output[0] = 0xff
	logs[0] = "mutated"
	if res.PublicOutput[0] != 1 {
		t.Errorf("envelope output aliases caller memory")
	}
	if res.Logs[0] != "line one" {
		t.Errorf("envelope logs alias caller memory")
	}
}

func TestPresenceInvariant(t *testing.T) {
	ok := NewVerificationSuccess(0, []byte{0x2a}, []string{"log"})
	defer ok.Release()
	if !ok.Success || ok.ErrorMessage != "" {
		t.Errorf("successful envelope must not carry an error message, got %q", ok.ErrorMessage)
	}

	fail := NewVerificationFailure(Errorf(VerificationFailed, "bad proof"))
	defer fail.Release()
	if fail.Success {
		t.Fatalf("failure envelope reports success")
	}
	if fail.ErrorMessage == "" {
		t.Fatalf("failure envelope must carry an error message")
	}
	if !strings.HasPrefix(fail.ErrorMessage, string(VerificationFailed)+":") {
		t.Errorf("error message %q does not start with its code", fail.ErrorMessage)
	}
	if fail.PublicOutput != nil || fail.Logs != nil {
		t.Errorf("failure envelope must not carry payload")
	}
	if fail.ExitCode != 0 {
		t.Errorf("failure envelope exit code must stay at the 0 sentinel, got %d", fail.ExitCode)
	}
}

func TestReleaseAccounting(t *testing.T) {
	before := Outstanding()

	v := NewVerificationSuccess(0, []byte{1}, []string{"a"})
	p := NewProverSuccess([]byte{2, 3})
	f := NewProverFailure(Errorf(ProvingFailed, "no circuit"))
	if got := Outstanding() - before; got != 3 {
		t.Fatalf("outstanding delta = %d, want 3", got)
	}

	v.Release()
	p.Release()
	f.Release()
	if got := Outstanding() - before; got != 0 {
		t.Fatalf("outstanding delta after release = %d, want 0", got)
	}
}

func TestReleaseIsSingleShot(t *testing.T) {
	before := Outstanding()
	res := NewProverSuccess([]byte{9, 9, 9})
	res.Release()
	// A second release must be a memory-level no-op, not a double free.
	res.Release()
	res.Release()
	if got := Outstanding() - before; got != 0 {
		t.Fatalf("repeated release corrupted accounting, delta = %d", got)
	}
	if !res.Released() {
		t.Fatalf("Released() = false after release")
	}
	if res.ProofData != nil {
		t.Fatalf("proof data survives release")
	}
}

func TestReleaseWithAbsentFields(t *testing.T) {
	// Envelopes with absent optional payloads must release without
	// faulting.
	res := NewVerificationFailure(Errorf(UnknownProgram, "nope"))
	res.Release()
	res.Release()

	empty := NewVerificationSuccess(0, nil, nil)
	empty.Release()
}

func TestReleaseZeroesProofBytes(t *testing.T) {
	res := NewProverSuccess([]byte{0xaa, 0xbb})
	data := res.ProofData
	res.Release()
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not wiped on release: %#x", i, b)
		}
	}
}
