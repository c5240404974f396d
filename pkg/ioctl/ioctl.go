// Package ioctl implements the out-of-band command protocol carried on top
// of ordinary device read/write access.
//
// A command is identified by a 32-bit request word packing four disjoint
// bit fields, matching the historical encoding scheme:
//
//	| direction | payload size | magic  | number |
//	| 2 bits    | 14 bits      | 8 bits | 8 bits |
//	| 30-31     | 16-29        | 8-15   | 0-7    |
//
// The magic is a driver-chosen tag scoping command numbers so that two
// drivers may use the same number without colliding; it is driver-local,
// never globally unique, so dispatch must always scope lookup by the
// resolved driver's command table.
//
// The package provides the codec (Request, Decode), a bounds-checked view
// over the caller's argument buffer (ArgBuffer), and the per-driver
// command table (Table) mapping requests to typed handlers.
package ioctl

import (
	"fmt"

	deverrors "github.com/devkit-go/devkit/pkg/device/errors"
)

// Bit field widths and shifts of the 32-bit request word.
const (
	nrBits    = 8
	magicBits = 8
	sizeBits  = 14
	dirBits   = 2

	nrShift    = 0
	magicShift = nrShift + nrBits
	sizeShift  = magicShift + magicBits
	dirShift   = sizeShift + sizeBits

	nrMask    = (1 << nrBits) - 1
	magicMask = (1 << magicBits) - 1
	sizeMask  = (1 << sizeBits) - 1
	dirMask   = (1 << dirBits) - 1
)

// MaxPayloadSize is the largest payload length the 14-bit size field can
// describe.
const MaxPayloadSize = sizeMask

// Dir describes the data flow direction of a command's payload, seen from
// the caller's side.
type Dir uint8

const (
	// DirNone carries no payload.
	DirNone Dir = 0

	// DirWrite means the caller supplies data to the driver.
	DirWrite Dir = 1

	// DirRead means the driver returns data to the caller.
	DirRead Dir = 2

	// DirReadWrite means data flows both ways.
	DirReadWrite Dir = DirRead | DirWrite
)

// String returns a human-readable name for the direction.
func (d Dir) String() string {
	switch d {
	case DirNone:
		return "none"
	case DirWrite:
		return "write"
	case DirRead:
		return "read"
	case DirReadWrite:
		return "read-write"
	default:
		return "invalid"
	}
}

// CopyIn reports whether the caller supplies payload data to the driver.
func (d Dir) CopyIn() bool { return d&DirWrite != 0 }

// CopyOut reports whether the driver returns payload data to the caller.
func (d Dir) CopyOut() bool { return d&DirRead != 0 }

// Request identifies one out-of-band command. Requests are immutable
// values, constructed once per command definition and compared by exact
// match on all four fields during dispatch.
type Request struct {
	// Dir is the payload data flow direction.
	Dir Dir

	// Size is the byte length of the argument payload. Zero when Dir is
	// DirNone.
	Size int

	// Magic is the driver-chosen 8-bit tag. Stored wide so that
	// out-of-range values can be detected at encode time rather than
	// silently truncated.
	Magic uint32

	// Nr is the command index within the driver.
	Nr uint8
}

// String renders the request in a compact human-readable form, e.g.
// "read-write magic=0x6d nr=2 size=8".
func (r Request) String() string {
	return fmt.Sprintf("%s magic=0x%02x nr=%d size=%d", r.Dir, r.Magic, r.Nr, r.Size)
}

// Encode packs the request into its 32-bit wire form.
//
// Returns SizeTooLarge when the payload size does not fit the 14-bit size
// field, and MagicOutOfRange when the magic does not fit 8 bits.
func (r Request) Encode() (uint32, error) {
	if r.Size < 0 || r.Size > MaxPayloadSize {
		return 0, deverrors.NewSizeTooLargeError(r.Size)
	}
	if r.Magic > magicMask {
		return 0, deverrors.NewMagicOutOfRangeError(r.Magic)
	}
	raw := uint32(r.Dir&dirMask)<<dirShift |
		uint32(r.Size&sizeMask)<<sizeShift |
		(r.Magic&magicMask)<<magicShift |
		uint32(r.Nr)<<nrShift
	return raw, nil
}

// Decode unpacks a 32-bit request word. Decode is total: it never fails,
// but may yield a request that matches no table entry. That is a
// dispatch-time concern, reported as UnsupportedCommand by the dispatcher.
func Decode(raw uint32) Request {
	return Request{
		Dir:   Dir((raw >> dirShift) & dirMask),
		Size:  int((raw >> sizeShift) & sizeMask),
		Magic: (raw >> magicShift) & magicMask,
		Nr:    uint8((raw >> nrShift) & nrMask),
	}
}

// ============================================================================
// Request Builders
// ============================================================================
//
// The four builders mirror the four direction kinds of the historical
// macro scheme. Size validation happens at Encode or Table registration,
// not here, so builders can be used in const-like var blocks.

// None builds a request carrying no payload.
func None(magic uint32, nr uint8) Request {
	return Request{Dir: DirNone, Magic: magic, Nr: nr}
}

// Read builds a request whose payload flows driver to caller.
func Read(magic uint32, nr uint8, size int) Request {
	return Request{Dir: DirRead, Size: size, Magic: magic, Nr: nr}
}

// Write builds a request whose payload flows caller to driver.
func Write(magic uint32, nr uint8, size int) Request {
	return Request{Dir: DirWrite, Size: size, Magic: magic, Nr: nr}
}

// ReadWrite builds a request whose payload flows both ways.
func ReadWrite(magic uint32, nr uint8, size int) Request {
	return Request{Dir: DirReadWrite, Size: size, Magic: magic, Nr: nr}
}
