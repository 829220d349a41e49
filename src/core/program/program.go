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

// go/src/core/program/program.go
package program

import (
	"fmt"
	"sync"

	"github.com/elliotchance/orderedmap/v2"
)

// Trace is the deterministic result of executing a guest program: the
// declared public output, the program's own exit status and the log lines
// it emitted. Two executions with identical inputs produce identical
// traces, which is what lets independent verifiers reconstruct outputs.
type Trace struct {
	Output   []byte
	ExitCode uint32
	Logs     []string
}

// Program is one provable guest computation. Implementations must be
// stateless and deterministic: CheckInput and Execute may depend only on
// the input bytes.
type Program interface {
	// ID returns the program identifier used in tasks and proofs.
	ID() string
	// CheckInput validates the shape of the public inputs without
	// executing anything.
	CheckInput(publicInputs []byte) error
	// Execute runs the program on the public inputs and returns its
	// execution trace.
	Execute(publicInputs []byte) (*Trace, error)
}

// Registry maps program identifiers to guest programs. Registration order
// is preserved so key provisioning and listings are deterministic across
// runs. The registry is written during setup and read-only afterwards.
type Registry struct {
	mu       sync.RWMutex
	programs *orderedmap.OrderedMap[string, Program]
}

// NewRegistry creates an empty program registry.
func NewRegistry() *Registry {
	return &Registry{programs: orderedmap.NewOrderedMap[string, Program]()}
}

// DefaultRegistry returns a registry holding the built-in guest programs.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FibInput{})
	r.Register(FibInputInitial{})
	return r
}

// Register adds a program, replacing any previous registration under the
// same identifier.
func (r *Registry) Register(p Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs.Set(p.ID(), p)
}

// Lookup resolves a program identifier.
func (r *Registry) Lookup(programID string) (Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs.Get(programID)
	if !ok {
		return nil, fmt.Errorf("program %q is not registered", programID)
	}
	return p, nil
}

// IDs returns the registered program identifiers in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, r.programs.Len())
	for el := r.programs.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Key)
	}
	return ids
}
