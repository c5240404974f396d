// Package bufpool provides a tiered pool of ioctl scratch buffers.
//
// The dispatcher stages every read-direction ioctl payload in a scratch
// buffer before copying it back into the caller's argument buffer, so a
// busy device can churn through thousands of short-lived payload buffers
// per second. Pooling them keeps that churn off the garbage collector.
//
// Three size tiers cover the payload spectrum the 14-bit size field
// allows:
//   - Tiny buffers (default 64B): scalar get/set payloads
//   - Small buffers (default 1KB): structured status payloads
//   - Full buffers (16KB): anything up to the encoding's maximum
//
// Thread safety: all operations are safe for concurrent use via sync.Pool.
//
// Usage:
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"

	"github.com/devkit-go/devkit/pkg/ioctl"
)

// Default buffer size classes.
const (
	// DefaultTinySize covers scalar command payloads (64B).
	DefaultTinySize = 64

	// DefaultSmallSize covers structured status payloads (1KB).
	DefaultSmallSize = 1 << 10

	// FullSize is the largest payload the request encoding can describe.
	// Requests above the small tier always fit here, so nothing is ever
	// allocated outside the pool.
	FullSize = ioctl.MaxPayloadSize + 1
)

// Pool manages byte slice pools organized by size class.
type Pool struct {
	tiny     sync.Pool
	small    sync.Pool
	full     sync.Pool
	tinySize int
	smlSize  int
}

// NewPool creates a buffer pool with the given tier sizes. Zero or
// negative values fall back to the defaults.
func NewPool(tinySize, smallSize int) *Pool {
	if tinySize <= 0 {
		tinySize = DefaultTinySize
	}
	if smallSize <= 0 {
		smallSize = DefaultSmallSize
	}

	p := &Pool{tinySize: tinySize, smlSize: smallSize}
	p.tiny = sync.Pool{
		New: func() any {
			buf := make([]byte, p.tinySize)
			return &buf
		},
	}
	p.small = sync.Pool{
		New: func() any {
			buf := make([]byte, p.smlSize)
			return &buf
		},
	}
	p.full = sync.Pool{
		New: func() any {
			buf := make([]byte, FullSize)
			return &buf
		},
	}
	return p
}

// Get returns a zeroed byte slice of exactly the requested length, backed
// by a pooled buffer. The caller must Put the slice back when finished.
//
// Zeroing matters: ioctl payload buffers cross the caller/driver boundary,
// and a recycled buffer must not leak a previous command's bytes into a
// short read-direction payload.
func (p *Pool) Get(size int) []byte {
	var bufPtr *[]byte

	switch {
	case size <= p.tinySize:
		bufPtr = p.tiny.Get().(*[]byte)
	case size <= p.smlSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= FullSize:
		bufPtr = p.full.Get().(*[]byte)
	default:
		return make([]byte, size)
	}

	buf := (*bufPtr)[:size]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// Put returns a buffer to the pool for reuse. The buffer must have been
// obtained from Get and must not be used afterwards.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}

	switch cap(buf) {
	case p.tinySize:
		fullBuf := buf[:cap(buf)]
		p.tiny.Put(&fullBuf)
	case p.smlSize:
		fullBuf := buf[:cap(buf)]
		p.small.Put(&fullBuf)
	case FullSize:
		fullBuf := buf[:cap(buf)]
		p.full.Put(&fullBuf)
	default:
		// Oversized buffers are not pooled.
	}
}

// =============================================================================
// Global Pool
// =============================================================================

// globalPool is the package-level pool with default tier sizes.
var globalPool = NewPool(0, 0)

// Get returns a zeroed byte slice of the requested length from the global
// pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer obtained from Get to the global pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
