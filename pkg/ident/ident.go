// Package ident implements the identity service for ttgraph: process-scoped
// issuance of globally unique, copyable, orderable node identifiers.
//
// Identifiers are issued by a Context and stay valid for the lifetime of any
// Graph or Transaction built from that Context. An identifier is never
// reused, even after the node it names is removed, and the sentinel zero
// value (Empty) never designates a real node.
package ident

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/pbkdf2"
)

// ID uniquely identifies a node within one Context.
//
// The zero value is Empty: Seq is never 0 for a real identifier, so any ID
// with Seq == 0 is the sentinel regardless of Session. ID is a plain
// comparable struct, so it is already a valid, cheaply hashable map key and
// has a total order via Compare.
type ID struct {
	Session uint64
	Seq     uint64
}

// IsEmpty reports whether id is the distinguished "no node" sentinel.
func (id ID) IsEmpty() bool {
	return id.Seq == 0
}

// Compare returns -1, 0, or 1 as id is less than, equal to, or greater than
// other, ordering first by Session then by Seq. The ordering is total and
// stable across a process's lifetime.
func (id ID) Compare(other ID) int {
	if id.Session != other.Session {
		if id.Session < other.Session {
			return -1
		}
		return 1
	}
	switch {
	case id.Seq < other.Seq:
		return -1
	case id.Seq > other.Seq:
		return 1
	default:
		return 0
	}
}

// String renders id for logs and diagnostics. The empty ID prints as
// "<empty>" rather than a zero-valued pair.
func (id ID) String() string {
	if id.IsEmpty() {
		return "<empty>"
	}
	return fmt.Sprintf("%x-%x", id.Session, id.Seq)
}

// Context issues identifiers that are unique across its lifetime,
// independent of commit order or graph identity. A Context must outlive
// every Graph and Transaction derived from it.
type Context struct {
	session uint64
	counter atomic.Uint64
}

// New creates a Context with a freshly derived random session tag, so that
// identifiers minted by two independent contexts (for example the two ends
// of a serialize/deserialize round trip across processes) never collide.
//
// The session tag is derived from 16 bytes of crypto/rand entropy by running
// PBKDF2-HMAC-SHA256 over it (4096 iterations, 8 bytes of output).
func New() *Context {
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		// crypto/rand failing is unrecoverable; a context without real
		// entropy would risk session-tag collisions across processes.
		panic("ident: failed to read random seed: " + err.Error())
	}
	derived := pbkdf2.Key(seed, []byte("ttgraph-context-session-v1"), 4096, 8, sha256.New)
	return &Context{session: binary.BigEndian.Uint64(derived)}
}

// NewID issues the next identifier for this context. Safe for concurrent
// use by multiple transactions; the underlying counter is atomic.
func (c *Context) NewID() ID {
	return ID{Session: c.session, Seq: c.counter.Add(1)}
}

// Empty returns the sentinel "no node" identifier. It is the same value
// (the zero value of ID) regardless of which Context produced it, so
// Empty() can always be compared across contexts.
func (c *Context) Empty() ID {
	return ID{}
}

// Empty returns the distinguished "no node" sentinel without requiring a
// Context, for call sites (tests, generic helpers) that only need the
// constant and not an issuer.
func Empty() ID {
	return ID{}
}
