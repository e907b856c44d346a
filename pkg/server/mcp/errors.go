// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3mcp.
//
// go-s3mcp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package mcp

import (
	"errors"
	"fmt"
)

// Tool-facing error codes. These are part of the wire contract: every failed
// tool call carries exactly one of them.
const (
	// CodeInvalidPath marks a traversal or absolute-path attempt; such keys
	// never reach the backend.
	CodeInvalidPath = "invalid_path"

	// CodeFileTooLarge marks decoded content over the configured ceiling.
	CodeFileTooLarge = "file_too_large"

	// CodeExtensionNotAllowed marks a key whose extension is outside the
	// configured allow-list.
	CodeExtensionNotAllowed = "extension_not_allowed"

	// CodeConflict marks an upload targeting an existing key without
	// overwrite permission.
	CodeConflict = "conflict"

	// CodeNotFound marks a referenced object that does not exist.
	CodeNotFound = "not_found"

	// CodeEncoding marks content that failed base64 decoding, or bytes that
	// are not valid text when a text response was requested.
	CodeEncoding = "encoding_error"

	// CodeBackend marks an opaque storage-backend failure.
	CodeBackend = "backend_error"

	// Transport-side codes

	// CodeUnknownTool marks a call to an unregistered tool.
	CodeUnknownTool = "unknown_tool"

	// CodeMissingParameter marks an absent required parameter.
	CodeMissingParameter = "missing_parameter"

	// CodeInvalidParameter marks a parameter with an invalid value or type.
	CodeInvalidParameter = "invalid_parameter"
)

// ToolError is the typed error surfaced to tool callers. Code is stable;
// Message is human-readable; Err preserves the underlying cause for logs.
type ToolError struct {
	Code    string
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// newToolError creates a ToolError with a formatted message.
func newToolError(code, format string, args ...any) *ToolError {
	return &ToolError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// wrapToolError creates a ToolError that preserves the underlying cause. The
// cause's message is exposed to the caller; backends never embed credentials
// in error strings.
func wrapToolError(code string, err error) *ToolError {
	return &ToolError{
		Code:    code,
		Message: err.Error(),
		Err:     err,
	}
}

var (
	// Server errors

	// ErrStorageRequired is returned when a storage backend is required but
	// not provided.
	ErrStorageRequired = errors.New("storage backend is required")

	// ErrUnknownServerMode is returned when an unknown server mode is
	// specified.
	ErrUnknownServerMode = errors.New("unknown server mode")
)
