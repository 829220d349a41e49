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

// go/src/core/keys/keystore.go
package keys

import (
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/crypto/sha3"
)

// KeySize is the size of the per-program proving/verifying parameters.
const KeySize = 32

// keyDomain separates key derivation from every other hash use in the
// proof pipeline.
const keyDomain = "nexus-core/program-key/v1"

// Store holds the pre-provisioned per-program parameters. The commitment
// scheme is symmetric, so the proving key and the verifying key for a
// program are the same 32 bytes. Keys are loaded or derived once during
// provisioning and are immutable for the process lifetime afterwards.
type Store struct {
	mu   sync.RWMutex
	keys map[string][]byte
	db   *leveldb.DB // nil for a purely in-memory store
}

// NewMemory creates a store with no persistence, for tests and one-shot
// verifier runs.
func NewMemory() *Store {
	return &Store{keys: make(map[string][]byte)}
}

// Open creates a store backed by a LevelDB database at path. Previously
// provisioned keys are reused; missing ones are derived and persisted by
// Provision.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open key store: %w", err)
	}
	return &Store{keys: make(map[string][]byte), db: db}, nil
}

// Close releases the underlying database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Provision loads or derives the parameters for every given program id.
// Derivation is deterministic in (masterSeed, programID), so every node
// provisioned from the same seed agrees on each program's keys. Provision
// is the single synchronization point; after it returns the store is
// read-only.
func (s *Store) Provision(masterSeed []byte, programIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range programIDs {
		if _, ok := s.keys[id]; ok {
			continue
		}
		if s.db != nil {
			stored, err := s.db.Get([]byte(id), nil)
			if err == nil {
				if len(stored) != KeySize {
					return fmt.Errorf("key store holds %d-byte key for program %q, want %d", len(stored), id, KeySize)
				}
				s.keys[id] = stored
				continue
			}
			if err != leveldb.ErrNotFound {
				return fmt.Errorf("load key for program %q: %w", id, err)
			}
		}
		key := deriveKey(masterSeed, id)
		if s.db != nil {
			if err := s.db.Put([]byte(id), key, nil); err != nil {
				return fmt.Errorf("persist key for program %q: %w", id, err)
			}
		}
		s.keys[id] = key
	}
	return nil
}

// VerifyingKey resolves the verifying parameters for a program. The
// returned slice must be treated as read-only.
func (s *Store) VerifyingKey(programID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[programID]
	return key, ok
}

// ProvingKey resolves the proving parameters for a program. With the
// symmetric commitment scheme these equal the verifying parameters.
func (s *Store) ProvingKey(programID string) ([]byte, bool) {
	return s.VerifyingKey(programID)
}

// deriveKey derives a program's parameters from the master seed with a
// domain-separated SHA3-256.
func deriveKey(masterSeed []byte, programID string) []byte {
	h := sha3.New256()
	h.Write([]byte(keyDomain))
	h.Write([]byte{0})
	h.Write([]byte(programID))
	h.Write([]byte{0})
	h.Write(masterSeed)
	return h.Sum(nil)
}
