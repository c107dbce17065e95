package host

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoResult is returned when an export finishes without calling
// host_return_result.
var ErrNoResult = errors.New("plugin returned without delivering a result")

// ErrClosed is returned by calls on a closed plugin instance.
var ErrClosed = errors.New("plugin instance is closed")

// ErrExportNotFound matches every FunctionNotFoundError.
var ErrExportNotFound = errors.New("export not found")

// ErrNonZeroStatus matches every StatusError.
var ErrNonZeroStatus = errors.New("export returned non-zero status")

// CompilationError occurs when plugin compilation fails.
type CompilationError struct {
	Err    error
	Plugin string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile plugin '%s': %v", e.Plugin, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// InstantiationError occurs when plugin instantiation or initialization fails.
type InstantiationError struct {
	Err        error
	Plugin     string
	ModuleName string
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("failed to instantiate plugin '%s' (module: %s): %v",
		e.Plugin, e.ModuleName, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// FunctionNotFoundError occurs when an exported function is missing.
type FunctionNotFoundError struct {
	Plugin   string
	Function string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function '%s' not found in plugin '%s'", e.Function, e.Plugin)
}

func (e *FunctionNotFoundError) Is(target error) bool {
	return target == ErrExportNotFound
}

// MemoryAccessError occurs when an input cannot be placed in guest memory.
type MemoryAccessError struct {
	Err       error
	Operation string
	Address   uint32
	Length    uint32
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("memory access failed (op=%s, addr=%d, len=%d): %v",
		e.Operation, e.Address, e.Length, e.Err)
}

func (e *MemoryAccessError) Unwrap() error {
	return e.Err
}

// StatusError occurs when an export returns a non-zero status.
type StatusError struct {
	Plugin string
	Export string
	Status int32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("plugin '%s' export '%s' returned status %d", e.Plugin, e.Export, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNonZeroStatus
}

// ExecutionError occurs when an export traps.
type ExecutionError struct {
	Err    error
	Plugin string
	Export string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("plugin '%s' export '%s' failed: %v", e.Plugin, e.Export, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError occurs when an export exceeds its deadline. It unwraps to the
// context error, so errors.Is(err, context.DeadlineExceeded) holds.
type TimeoutError struct {
	Err     error
	Plugin  string
	Export  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("plugin '%s' export '%s' timed out after %v", e.Plugin, e.Export, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
