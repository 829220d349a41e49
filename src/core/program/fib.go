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

// go/src/core/program/fib.go
package program

import (
	"encoding/binary"
	"fmt"
)

// Built-in guest programs mirroring the network's Fibonacci workloads.
// Inputs are little-endian u32 words.
const (
	FibInputID        = "fib_input"
	FibInputInitialID = "fib_input_initial"
)

// FibInput computes the n-th standard Fibonacci number (F(0)=0, F(1)=1)
// from a single u32 input.
type FibInput struct{}

// ID implements Program.
func (FibInput) ID() string { return FibInputID }

// CheckInput implements Program.
func (FibInput) CheckInput(publicInputs []byte) error {
	if len(publicInputs) < 4 {
		return fmt.Errorf("%s requires at least 4 input bytes, got %d", FibInputID, len(publicInputs))
	}
	return nil
}

// Execute implements Program.
func (p FibInput) Execute(publicInputs []byte) (*Trace, error) {
	if err := p.CheckInput(publicInputs); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(publicInputs[0:4])
	res := fibWithInitial(n, 0, 1)
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, res)
	return &Trace{
		Output:   out,
		ExitCode: 0,
		Logs: []string{
			fmt.Sprintf("%s: n=%d", FibInputID, n),
			fmt.Sprintf("%s: result=%d", FibInputID, res),
		},
	}, nil
}

// FibInputInitial computes the n-th Fibonacci number with caller-supplied
// initial values F(0)=a, F(1)=b from three u32 inputs (n, a, b).
type FibInputInitial struct{}

// ID implements Program.
func (FibInputInitial) ID() string { return FibInputInitialID }

// CheckInput implements Program.
func (FibInputInitial) CheckInput(publicInputs []byte) error {
	if len(publicInputs) < 12 {
		return fmt.Errorf("%s requires at least 12 input bytes, got %d", FibInputInitialID, len(publicInputs))
	}
	return nil
}

// Execute implements Program.
func (p FibInputInitial) Execute(publicInputs []byte) (*Trace, error) {
	if err := p.CheckInput(publicInputs); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(publicInputs[0:4])
	initA := binary.LittleEndian.Uint32(publicInputs[4:8])
	initB := binary.LittleEndian.Uint32(publicInputs[8:12])
	res := fibWithInitial(n, initA, initB)
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, res)
	return &Trace{
		Output:   out,
		ExitCode: 0,
		Logs: []string{
			fmt.Sprintf("%s: n=%d init=(%d,%d)", FibInputInitialID, n, initA, initB),
			fmt.Sprintf("%s: result=%d", FibInputInitialID, res),
		},
	}, nil
}

// fibWithInitial computes F(n) for F(0)=initA, F(1)=initB using matrix
// fast exponentiation, so large n stays O(log n). Arithmetic wraps at
// u32 like the guest program itself.
func fibWithInitial(n, initA, initB uint32) uint32 {
	if n == 0 {
		return initA
	}
	if n == 1 {
		return initB
	}
	mat := [2][2]uint64{{1, 1}, {1, 0}}
	res := matPow(mat, n-1)
	// F(n) = res[0][0]*F(1) + res[0][1]*F(0)
	return uint32(res[0][0])*initB + uint32(res[0][1])*initA
}

func matMul(a, b [2][2]uint64) [2][2]uint64 {
	return [2][2]uint64{
		{a[0][0]*b[0][0] + a[0][1]*b[1][0], a[0][0]*b[0][1] + a[0][1]*b[1][1]},
		{a[1][0]*b[0][0] + a[1][1]*b[1][0], a[1][0]*b[0][1] + a[1][1]*b[1][1]},
	}
}

func matPow(mat [2][2]uint64, n uint32) [2][2]uint64 {
	res := [2][2]uint64{{1, 0}, {0, 1}}
	for n > 0 {
		if n&1 == 1 {
			res = matMul(res, mat)
		}
		mat = matMul(mat, mat)
		n >>= 1
	}
	return res
}
