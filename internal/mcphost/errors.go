package mcphost

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolFull means the pool already holds its maximum number of
	// server registrations.
	ErrPoolFull = errors.New("connection pool is full")

	// ErrServerExists means a server with that name is already
	// registered.
	ErrServerExists = errors.New("server already registered")

	// ErrServerNotFound means no server with that name is registered.
	ErrServerNotFound = errors.New("server not found in pool")

	// ErrServerDisabled means the configuration disables the server.
	ErrServerDisabled = errors.New("server is disabled")
)

// UnknownToolError means the tool is not in the server's discovered
// tool list.
type UnknownToolError struct {
	Server    string
	Tool      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %s not found on server %s (available: %v)", e.Tool, e.Server, e.Available)
}

// ToolExecutionError wraps a transport or protocol failure during
// connect or invocation.
type ToolExecutionError struct {
	Server string
	Tool   string
	Err    error
}

func (e *ToolExecutionError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("tool execution failed: %s.%s: %v", e.Server, e.Tool, e.Err)
	}
	return fmt.Sprintf("tool execution failed: %s: %v", e.Server, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// IsUnknownTool returns true when err is (or wraps) an UnknownToolError.
func IsUnknownTool(err error) bool {
	var ut *UnknownToolError
	return errors.As(err, &ut)
}
