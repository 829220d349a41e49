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

// Package proof implements the wire envelope for proofs crossing the
// boundary. Proof bytes are opaque to callers; the envelope carries the
// task binding digest, the claimed execution trace and a keyed SHA3-256
// commitment sealing them together. A trailing HighwayHash-64 frame
// checksum lets the verifier reject corrupted or truncated bytes before
// any cryptographic work.
package proof

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/minio/highwayhash"
	"golang.org/x/crypto/sha3"
)

const (
	// Version is the current envelope format version.
	Version = 1

	// DigestSize is the size of every SHA3-256 digest in the envelope.
	DigestSize = 32

	checksumSize = 8

	flagAuthenticated = 0x01
	flagKnownMask     = flagAuthenticated

	// Structural limits bounding the cost of decoding untrusted bytes.
	maxOutputSize = 1 << 20
	maxLogLines   = 4096
	maxLogLineLen = 1 << 16
)

// magic marks the start of every proof envelope.
var magic = [4]byte{'N', 'X', 'P', 'F'}

// frameKey is the fixed, public HighwayHash key for the frame checksum.
// It provides corruption detection only, no authenticity.
var frameKey = [32]byte{
	0x6e, 0x78, 0x70, 0x66, 0x2d, 0x66, 0x72, 0x61,
	0x6d, 0x65, 0x2d, 0x63, 0x68, 0x65, 0x63, 0x6b,
	0x73, 0x75, 0x6d, 0x2d, 0x6b, 0x65, 0x79, 0x2d,
	0x76, 0x31, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Domain separation tags for the digests computed over untrusted input.
const (
	bindingDomain    = "nexus-core/binding/v1"
	logsDomain       = "nexus-core/logs/v1"
	commitmentDomain = "nexus-core/commitment/v1"
)

// ErrMalformed is wrapped by every structural decode failure so the
// verifier can classify them without string matching.
var ErrMalformed = errors.New("malformed proof envelope")

// Envelope is the decoded form of a proof. Claimed fields are untrusted
// until the commitment has been checked against a verifying key and the
// trace has been reconstructed.
type Envelope struct {
	Authenticated bool
	Binding       [DigestSize]byte // digest over (program_id, task_id, public_inputs)
	ExitCode      uint32
	Output        []byte
	Logs          []string
	ProverKey     []byte // ed25519 public key, authenticated proofs only
	Signature     []byte // ed25519 signature over the commitment
	Commitment    [DigestSize]byte
}

// BindingDigest computes the digest binding a proof to its program, task
// and public inputs. Every field is length-delimited so no two distinct
// triples collide by concatenation.
func BindingDigest(programID, taskID string, publicInputs []byte) [DigestSize]byte {
	h := sha3.New256()
	h.Write([]byte(bindingDomain))
	writeLenPrefixed(h, []byte(programID))
	writeLenPrefixed(h, []byte(taskID))
	writeLenPrefixed(h, publicInputs)
	var out [DigestSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// LogsDigest commits to the ordered log lines of an execution trace.
func LogsDigest(logs []string) [DigestSize]byte {
	h := sha3.New256()
	h.Write([]byte(logsDomain))
	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], uint64(len(logs)))
	h.Write(count[:])
	for _, line := range logs {
		writeLenPrefixed(h, []byte(line))
	}
	var out [DigestSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ComputeCommitment seals the envelope contents under the program's key.
// Flipping any committed field, the task binding included, changes the
// digest, which is what makes task substitution detectable.
func (e *Envelope) ComputeCommitment(key []byte) [DigestSize]byte {
	h := sha3.New256()
	h.Write([]byte(commitmentDomain))
	writeLenPrefixed(h, key)
	h.Write(e.Binding[:])
	var exit [4]byte
	binary.LittleEndian.PutUint32(exit[:], e.ExitCode)
	h.Write(exit[:])
	writeLenPrefixed(h, e.Output)
	logsRoot := LogsDigest(e.Logs)
	h.Write(logsRoot[:])
	if e.Authenticated {
		h.Write([]byte{flagAuthenticated})
	} else {
		h.Write([]byte{0})
	}
	var out [DigestSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Seal computes and stores the commitment under key.
func (e *Envelope) Seal(key []byte) {
	e.Commitment = e.ComputeCommitment(key)
}

// Encode serializes the envelope into opaque proof bytes.
func (e *Envelope) Encode() ([]byte, error) {
	if len(e.Output) > maxOutputSize {
		return nil, fmt.Errorf("output of %d bytes exceeds envelope limit", len(e.Output))
	}
	if len(e.Logs) > maxLogLines {
		return nil, fmt.Errorf("%d log lines exceed envelope limit", len(e.Logs))
	}
	if e.Authenticated {
		if len(e.ProverKey) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("authenticated envelope needs a %d-byte prover key", ed25519.PublicKeySize)
		}
		if len(e.Signature) != ed25519.SignatureSize {
			return nil, fmt.Errorf("authenticated envelope needs a %d-byte signature", ed25519.SignatureSize)
		}
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(Version)
	if e.Authenticated {
		buf.WriteByte(flagAuthenticated)
	} else {
		buf.WriteByte(0)
	}
	buf.Write(e.Binding[:])
	var exit [4]byte
	binary.LittleEndian.PutUint32(exit[:], e.ExitCode)
	buf.Write(exit[:])
	writeUvarintBytes(&buf, e.Output)
	writeUvarint(&buf, uint64(len(e.Logs)))
	for _, line := range e.Logs {
		if len(line) > maxLogLineLen {
			return nil, fmt.Errorf("log line of %d bytes exceeds envelope limit", len(line))
		}
		writeUvarintBytes(&buf, []byte(line))
	}
	if e.Authenticated {
		buf.Write(e.ProverKey)
		buf.Write(e.Signature)
	}
	buf.Write(e.Commitment[:])

	sum := highwayhash.Sum64(buf.Bytes(), frameKey[:])
	var checksum [checksumSize]byte
	binary.LittleEndian.PutUint64(checksum[:], sum)
	buf.Write(checksum[:])
	return buf.Bytes(), nil
}

// Decode parses untrusted proof bytes into an envelope. It performs only
// structural checks: framing, limits and the trailing checksum. Any
// failure wraps ErrMalformed. Cryptographic validity is the verifier's
// job.
func Decode(data []byte) (*Envelope, error) {
	minSize := len(magic) + 2 + DigestSize + 4 + 1 + 1 + DigestSize + checksumSize
	if len(data) < minSize {
		return nil, fmt.Errorf("%w: %d bytes is below the minimum frame size", ErrMalformed, len(data))
	}

	body, trailer := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	want := binary.LittleEndian.Uint64(trailer)
	if highwayhash.Sum64(body, frameKey[:]) != want {
		return nil, fmt.Errorf("%w: frame checksum mismatch", ErrMalformed)
	}

	r := bytes.NewReader(body)
	var head [4]byte
	readFull(r, head[:])
	if head != magic {
		return nil, fmt.Errorf("%w: bad magic %x", ErrMalformed, head)
	}
	version, _ := r.ReadByte()
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, version)
	}
	flags, _ := r.ReadByte()
	if flags&^byte(flagKnownMask) != 0 {
		return nil, fmt.Errorf("%w: unknown flag bits %#x", ErrMalformed, flags)
	}

	e := &Envelope{Authenticated: flags&flagAuthenticated != 0}
	if err := readFull(r, e.Binding[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated binding digest", ErrMalformed)
	}
	var exit [4]byte
	if err := readFull(r, exit[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated exit code", ErrMalformed)
	}
	e.ExitCode = binary.LittleEndian.Uint32(exit[:])

	output, err := readUvarintBytes(r, maxOutputSize)
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrMalformed, err)
	}
	e.Output = output

	logCount, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated log count", ErrMalformed)
	}
	if logCount > maxLogLines {
		return nil, fmt.Errorf("%w: %d log lines exceed envelope limit", ErrMalformed, logCount)
	}
	e.Logs = make([]string, 0, logCount)
	for i := uint64(0); i < logCount; i++ {
		line, err := readUvarintBytes(r, maxLogLineLen)
		if err != nil {
			return nil, fmt.Errorf("%w: log line %d: %v", ErrMalformed, i, err)
		}
		e.Logs = append(e.Logs, string(line))
	}

	if e.Authenticated {
		e.ProverKey = make([]byte, ed25519.PublicKeySize)
		if err := readFull(r, e.ProverKey); err != nil {
			return nil, fmt.Errorf("%w: truncated prover key", ErrMalformed)
		}
		e.Signature = make([]byte, ed25519.SignatureSize)
		if err := readFull(r, e.Signature); err != nil {
			return nil, fmt.Errorf("%w: truncated signature", ErrMalformed)
		}
	}

	if err := readFull(r, e.Commitment[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated commitment", ErrMalformed)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, r.Len())
	}
	return e, nil
}

// writeLenPrefixed hashes a length-delimited field.
func writeLenPrefixed(h io.Writer, b []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
	h.Write(n[:])
	h.Write(b)
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeUvarintBytes(buf *bytes.Buffer, b []byte) {
	writeUvarint(buf, uint64(len(b)))
	buf.Write(b)
}

func readUvarintBytes(r *bytes.Reader, limit uint64) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, errors.New("truncated length prefix")
	}
	if n > limit {
		return nil, fmt.Errorf("%d bytes exceed limit of %d", n, limit)
	}
	if uint64(r.Len()) < n {
		return nil, errors.New("length prefix exceeds remaining bytes")
	}
	b := make([]byte, n)
	readFull(r, b)
	return b, nil
}

// readFull fills b from r or reports the shortfall.
func readFull(r *bytes.Reader, b []byte) error {
	n, err := r.Read(b)
	if err != nil || n != len(b) {
		return errors.New("short read")
	}
	return nil
}
