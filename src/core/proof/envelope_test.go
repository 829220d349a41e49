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

package proof

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"
)

var testKey = bytes.Repeat([]byte{0x11}, 32)

func sealedEnvelope(t *testing.T, authenticated bool) *Envelope {
	t.Helper()
	e := &Envelope{
		Authenticated: authenticated,
		Binding:       BindingDigest("fib_input", "task-1", []byte{10, 0, 0, 0}),
		ExitCode:      0,
		Output:        []byte{55, 0, 0, 0},
		Logs:          []string{"fib_input: n=10", "fib_input: result=55"},
	}
	e.Seal(testKey)
	if authenticated {
		seed := bytes.Repeat([]byte{0x42}, ed25519.SeedSize)
		priv := ed25519.NewKeyFromSeed(seed)
		e.ProverKey = priv.Public().(ed25519.PublicKey)
		e.Signature = ed25519.Sign(priv, e.Commitment[:])
	}
	return e
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, authenticated := range []bool{false, true} {
		e := sealedEnvelope(t, authenticated)
		data, err := e.Encode()
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !reflect.DeepEqual(e, decoded) {
			t.Errorf("authenticated=%v: decoded envelope differs\n got %+v\nwant %+v",
				authenticated, decoded, e)
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	first, err := sealedEnvelope(t, true).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, err := sealedEnvelope(t, true).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("two encodings of the same envelope differ")
	}
}

func TestDecodeRejectsTruncation(t *testing.T) {
	data, err := sealedEnvelope(t, true).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Every strict prefix must fail structurally, never panic.
	for n := 0; n < len(data); n++ {
		if _, err := Decode(data[:n]); !errors.Is(err, ErrMalformed) {
			t.Fatalf("truncation to %d bytes: got %v, want ErrMalformed", n, err)
		}
	}
}

func TestDecodeRejectsBitFlips(t *testing.T) {
	data, err := sealedEnvelope(t, false).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Any single-byte corruption breaks the frame checksum (or, for
	// flips inside the trailer, the checksum comparison itself).
	for i := 0; i < len(data); i++ {
		corrupted := append([]byte(nil), data...)
		corrupted[i] ^= 0x01
		if _, err := Decode(corrupted); !errors.Is(err, ErrMalformed) {
			t.Fatalf("flip at byte %d: got %v, want ErrMalformed", i, err)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{1, 2, 3}},
		{"zeroes", make([]byte, 256)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, ErrMalformed) {
				t.Errorf("got %v, want ErrMalformed", err)
			}
		})
	}
}

func TestBindingDigestSeparatesFields(t *testing.T) {
	base := BindingDigest("p1", "t1", []byte("ab"))
	variants := [][32]byte{
		BindingDigest("p1", "t2", []byte("ab")), // task substitution
		BindingDigest("p2", "t1", []byte("ab")),
		BindingDigest("p1", "t1", []byte("ac")),
		BindingDigest("p1t", "1", []byte("ab")), // boundary shift
		BindingDigest("p1", "t1a", []byte("b")),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base binding digest", i)
		}
	}
	if BindingDigest("p1", "t1", []byte("ab")) != base {
		t.Errorf("binding digest is not deterministic")
	}
}

func TestCommitmentCoversEveryField(t *testing.T) {
	base := sealedEnvelope(t, false)
	mutations := []func(*Envelope){
		func(e *Envelope) { e.Binding[0] ^= 1 },
		func(e *Envelope) { e.ExitCode++ },
		func(e *Envelope) { e.Output[0] ^= 1 },
		func(e *Envelope) { e.Logs[0] = "forged" },
		func(e *Envelope) { e.Logs = e.Logs[:1] },
		func(e *Envelope) { e.Authenticated = true },
	}
	for i, mutate := range mutations {
		e := sealedEnvelope(t, false)
		mutate(e)
		if e.ComputeCommitment(testKey) == base.Commitment {
			t.Errorf("mutation %d left the commitment unchanged", i)
		}
	}
	if base.ComputeCommitment(bytes.Repeat([]byte{0x22}, 32)) == base.Commitment {
		t.Errorf("commitment does not depend on the key")
	}
}
