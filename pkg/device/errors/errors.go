// Package errors provides error types and error codes for the device
// framework. It is a leaf package with no internal dependencies so that
// the registry, binding, and dispatch packages can all import it without
// circular imports.
//
// Import graph: errors <- device <- registry/binding/dispatch <- drivers
package errors

import (
	"fmt"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrMajorInUse indicates the requested major number is already claimed
	// by another driver registration.
	ErrMajorInUse ErrorCode = iota + 1

	// ErrUnknownMajor indicates no driver is registered under the major.
	ErrUnknownMajor

	// ErrInvalidNode indicates the device node descriptor is malformed or
	// its kind is not supported.
	ErrInvalidNode

	// ErrNotBound indicates the device node has no binding to a major.
	ErrNotBound

	// ErrInvalidHandle indicates the handle is closed or was never opened.
	ErrInvalidHandle

	// ErrUnsupportedCommand indicates the ioctl request matches no entry in
	// the driver's command table. Never fatal: unknown commands are the
	// designed forward-compatibility path for evolving command sets.
	ErrUnsupportedCommand

	// ErrFault indicates the caller's argument buffer is too short for the
	// declared payload size. The driver handler is never invoked.
	ErrFault

	// ErrInvalidArgument indicates a value was rejected by handler logic.
	ErrInvalidArgument

	// ErrSizeTooLarge indicates an ioctl payload size exceeds the 14-bit
	// size field. Construction-time only.
	ErrSizeTooLarge

	// ErrMagicOutOfRange indicates an ioctl magic exceeds the 8-bit magic
	// field. Construction-time only.
	ErrMagicOutOfRange

	// ErrDuplicateCommand indicates two command definitions share the same
	// (magic, number) within one driver. Construction-time only.
	ErrDuplicateCommand

	// ErrBusy indicates the driver refused the operation because the device
	// is in use. Raised by drivers, propagated unchanged by the dispatcher.
	ErrBusy

	// ErrPermissionDenied indicates the driver refused the open flags.
	// Raised by drivers, propagated unchanged by the dispatcher.
	ErrPermissionDenied
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrMajorInUse:
		return "MajorInUse"
	case ErrUnknownMajor:
		return "UnknownMajor"
	case ErrInvalidNode:
		return "InvalidNode"
	case ErrNotBound:
		return "NotBound"
	case ErrInvalidHandle:
		return "InvalidHandle"
	case ErrUnsupportedCommand:
		return "UnsupportedCommand"
	case ErrFault:
		return "Fault"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrSizeTooLarge:
		return "SizeTooLarge"
	case ErrMagicOutOfRange:
		return "MagicOutOfRange"
	case ErrDuplicateCommand:
		return "DuplicateCommand"
	case ErrBusy:
		return "Busy"
	case ErrPermissionDenied:
		return "PermissionDenied"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// DeviceError represents a device framework error with an error code.
type DeviceError struct {
	Code    ErrorCode
	Message string
	Driver  string
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	if e.Driver != "" {
		return fmt.Sprintf("%s: %s (driver: %s)", e.Code, e.Message, e.Driver)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ============================================================================
// Factory Functions
// ============================================================================

// NewMajorInUseError creates a MajorInUse error.
func NewMajorInUseError(major uint32) *DeviceError {
	return &DeviceError{
		Code:    ErrMajorInUse,
		Message: fmt.Sprintf("major %d already registered", major),
	}
}

// NewUnknownMajorError creates an UnknownMajor error.
func NewUnknownMajorError(major uint32) *DeviceError {
	return &DeviceError{
		Code:    ErrUnknownMajor,
		Message: fmt.Sprintf("no driver registered for major %d", major),
	}
}

// NewInvalidNodeError creates an InvalidNode error.
func NewInvalidNodeError(reason string) *DeviceError {
	return &DeviceError{
		Code:    ErrInvalidNode,
		Message: reason,
	}
}

// NewNotBoundError creates a NotBound error.
func NewNotBoundError(node string) *DeviceError {
	return &DeviceError{
		Code:    ErrNotBound,
		Message: fmt.Sprintf("device node %s is not bound", node),
	}
}

// NewInvalidHandleError creates an InvalidHandle error.
func NewInvalidHandleError() *DeviceError {
	return &DeviceError{
		Code:    ErrInvalidHandle,
		Message: "invalid device handle",
	}
}

// NewUnsupportedCommandError creates an UnsupportedCommand error.
func NewUnsupportedCommandError(driver string, raw uint32) *DeviceError {
	return &DeviceError{
		Code:    ErrUnsupportedCommand,
		Message: fmt.Sprintf("command %#08x not supported", raw),
		Driver:  driver,
	}
}

// NewFaultError creates a Fault error.
func NewFaultError(need, have int) *DeviceError {
	return &DeviceError{
		Code:    ErrFault,
		Message: fmt.Sprintf("argument buffer too short: need %d bytes, have %d", need, have),
	}
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(message string) *DeviceError {
	return &DeviceError{
		Code:    ErrInvalidArgument,
		Message: message,
	}
}

// NewSizeTooLargeError creates a SizeTooLarge error.
func NewSizeTooLargeError(size int) *DeviceError {
	return &DeviceError{
		Code:    ErrSizeTooLarge,
		Message: fmt.Sprintf("payload size %d exceeds 14-bit size field", size),
	}
}

// NewMagicOutOfRangeError creates a MagicOutOfRange error.
func NewMagicOutOfRangeError(magic uint32) *DeviceError {
	return &DeviceError{
		Code:    ErrMagicOutOfRange,
		Message: fmt.Sprintf("magic %#x exceeds 8-bit magic field", magic),
	}
}

// NewDuplicateCommandError creates a DuplicateCommand error.
func NewDuplicateCommandError(magic uint8, nr uint8) *DeviceError {
	return &DeviceError{
		Code:    ErrDuplicateCommand,
		Message: fmt.Sprintf("command (magic %#x, nr %d) defined twice", magic, nr),
	}
}

// NewBusyError creates a Busy error.
func NewBusyError(driver string) *DeviceError {
	return &DeviceError{
		Code:    ErrBusy,
		Message: "device busy",
		Driver:  driver,
	}
}

// NewPermissionDeniedError creates a PermissionDenied error.
func NewPermissionDeniedError(driver string) *DeviceError {
	return &DeviceError{
		Code:    ErrPermissionDenied,
		Message: "permission denied",
		Driver:  driver,
	}
}

// ============================================================================
// Error Type Checking Helpers
// ============================================================================

func hasCode(err error, code ErrorCode) bool {
	if devErr, ok := err.(*DeviceError); ok {
		return devErr.Code == code
	}
	return false
}

// IsMajorInUseError returns true if the error is a MajorInUse error.
func IsMajorInUseError(err error) bool {
	return hasCode(err, ErrMajorInUse)
}

// IsUnknownMajorError returns true if the error is an UnknownMajor error.
func IsUnknownMajorError(err error) bool {
	return hasCode(err, ErrUnknownMajor)
}

// IsNotBoundError returns true if the error is a NotBound error.
func IsNotBoundError(err error) bool {
	return hasCode(err, ErrNotBound)
}

// IsInvalidHandleError returns true if the error is an InvalidHandle error.
func IsInvalidHandleError(err error) bool {
	return hasCode(err, ErrInvalidHandle)
}

// IsUnsupportedCommandError returns true if the error is an UnsupportedCommand error.
func IsUnsupportedCommandError(err error) bool {
	return hasCode(err, ErrUnsupportedCommand)
}

// IsFaultError returns true if the error is a Fault error.
func IsFaultError(err error) bool {
	return hasCode(err, ErrFault)
}

// IsInvalidArgumentError returns true if the error is an InvalidArgument error.
func IsInvalidArgumentError(err error) bool {
	return hasCode(err, ErrInvalidArgument)
}

// IsBusyError returns true if the error is a Busy error.
func IsBusyError(err error) bool {
	return hasCode(err, ErrBusy)
}

// IsInvalidNodeError returns true if the error is an InvalidNode error.
func IsInvalidNodeError(err error) bool {
	return hasCode(err, ErrInvalidNode)
}

// IsSizeTooLargeError returns true if the error is a SizeTooLarge error.
func IsSizeTooLargeError(err error) bool {
	return hasCode(err, ErrSizeTooLarge)
}

// IsMagicOutOfRangeError returns true if the error is a MagicOutOfRange error.
func IsMagicOutOfRangeError(err error) bool {
	return hasCode(err, ErrMagicOutOfRange)
}

// IsDuplicateCommandError returns true if the error is a DuplicateCommand error.
func IsDuplicateCommandError(err error) bool {
	return hasCode(err, ErrDuplicateCommand)
}

// CodeLabel returns the error code name for use as a metrics label.
// Returns "OK" for nil errors and "Internal" for errors outside the
// framework taxonomy.
func CodeLabel(err error) string {
	if err == nil {
		return "OK"
	}
	if devErr, ok := err.(*DeviceError); ok {
		return devErr.Code.String()
	}
	return "Internal"
}
