// Package device defines the core types of the device framework: device
// nodes, open flags, and the Driver interface every loadable driver
// implements.
package device

import (
	"fmt"
)

// NodeKind classifies a device node.
type NodeKind uint8

const (
	// KindChar is a character device node.
	KindChar NodeKind = iota

	// KindBlock is a block device node.
	KindBlock
)

// String returns the single-letter rendering used in directory listings.
func (k NodeKind) String() string {
	switch k {
	case KindChar:
		return "c"
	case KindBlock:
		return "b"
	default:
		return "?"
	}
}

// Valid reports whether the kind is one of the supported node kinds.
func (k NodeKind) Valid() bool {
	return k == KindChar || k == KindBlock
}

// ParseNodeKind parses the single-letter kind rendering.
func ParseNodeKind(s string) (NodeKind, error) {
	switch s {
	case "c", "char":
		return KindChar, nil
	case "b", "block":
		return KindBlock, nil
	default:
		return 0, fmt.Errorf("unknown node kind %q", s)
	}
}

// Node is the access-point descriptor supplied by the external
// node-creation facility: historically a filesystem entry whose metadata
// carries (type, major, minor). Nodes are immutable descriptive values;
// the binding table references them but never owns them.
//
// The minor distinguishes access points sharing one major. It is carried
// through to the driver's open handler but plays no part in dispatch
// routing.
type Node struct {
	Kind  NodeKind `json:"kind"  yaml:"kind"`
	Major uint32   `json:"major" yaml:"major"`
	Minor uint32   `json:"minor" yaml:"minor"`
}

// String renders the node the way device listings do, e.g. "c 10:3".
func (n Node) String() string {
	return fmt.Sprintf("%s %d:%d", n.Kind, n.Major, n.Minor)
}

// OpenFlags carries the access mode requested at open time.
type OpenFlags uint32

const (
	// ReadOnly requests read access.
	ReadOnly OpenFlags = 1 << iota

	// WriteOnly requests write access.
	WriteOnly

	// NonBlock requests non-blocking behavior from drivers that honor it.
	NonBlock
)

// ReadWrite requests both read and write access.
const ReadWrite = ReadOnly | WriteOnly

// CanRead reports whether the flags include read access.
func (f OpenFlags) CanRead() bool { return f&ReadOnly != 0 }

// CanWrite reports whether the flags include write access.
func (f OpenFlags) CanWrite() bool { return f&WriteOnly != 0 }
