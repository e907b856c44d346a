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

// Package validation provides the path and file policies applied to every
// tool invocation before it reaches the storage backend. A key that fails
// validation never touches the network.
package validation

import (
	"fmt"
	"path"
	"strings"
)

// MaxKeyLength is the maximum allowed length for object keys.
const MaxKeyLength = 1024

// PathError reports a key or prefix that violates the path policy.
type PathError struct {
	Message string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path: %s", e.Message)
}

// PolicyError reports content that violates the file policy (size ceiling or
// extension allow-list).
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy violation: %s", e.Message)
}

// ValidateKey validates and normalizes an object key.
// Rules, applied in order:
//   - empty or whitespace-only keys are rejected
//   - null bytes and control characters are rejected
//   - ".." path segments are rejected for both "/" and "\" separators
//   - absolute paths are rejected (leading "/", leading "\", or drive letter)
//   - keys longer than MaxKeyLength are rejected
//
// The returned key uses forward slashes with repeated separators collapsed.
func ValidateKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", &PathError{Message: "key cannot be empty"}
	}

	if strings.ContainsRune(key, '\x00') {
		return "", &PathError{Message: "key contains null byte"}
	}

	for _, r := range key {
		if r < 32 || r == 127 {
			return "", &PathError{Message: "key contains control characters"}
		}
	}

	if hasTraversalSegment(key) {
		return "", &PathError{Message: "key contains path traversal sequence (..)"}
	}

	if isRooted(key) {
		return "", &PathError{Message: "key cannot be an absolute path"}
	}

	if len(key) > MaxKeyLength {
		return "", &PathError{Message: fmt.Sprintf("key too long (max %d characters)", MaxKeyLength)}
	}

	normalized := path.Clean(strings.ReplaceAll(key, `\`, "/"))

	// Clean can only surface these if the rules above were bypassed, but the
	// normalized form is what reaches the backend, so re-check it.
	if isRooted(normalized) || hasTraversalSegment(normalized) || normalized == "." {
		return "", &PathError{Message: "key is not a safe relative path"}
	}

	return normalized, nil
}

// ValidatePrefix validates a list prefix. Prefixes are not full object keys
// and may legitimately be partial, so they skip key normalization, but root
// markers and traversal segments are still rejected. The empty prefix is
// valid and lists the whole bucket.
func ValidatePrefix(prefix string) (string, error) {
	if prefix == "" {
		return "", nil
	}

	if strings.ContainsRune(prefix, '\x00') {
		return "", &PathError{Message: "prefix contains null byte"}
	}

	if isRooted(prefix) {
		return "", &PathError{Message: "prefix cannot start with a path root"}
	}

	if hasTraversalSegment(prefix) {
		return "", &PathError{Message: "prefix contains path traversal sequence (..)"}
	}

	return strings.ReplaceAll(prefix, `\`, "/"), nil
}

// ValidateFileSize checks a decoded content length against the configured
// ceiling. The caller must decode base64 content before this check so the
// expansion factor is accounted for.
func ValidateFileSize(sizeBytes, maxSizeBytes int64) error {
	if sizeBytes <= 0 {
		return &PolicyError{Message: "file size must be positive"}
	}

	if sizeBytes > maxSizeBytes {
		return &PolicyError{Message: fmt.Sprintf(
			"file size %d bytes exceeds maximum of %d bytes", sizeBytes, maxSizeBytes)}
	}

	return nil
}

// ValidateExtension checks the key's extension against the allow-list.
// An empty allow-list admits every extension. With a non-empty list, the
// extension comparison is case-insensitive and a key with no extension is
// rejected.
func ValidateExtension(key string, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(key), "."))
	if ext == "" {
		return &PolicyError{Message: fmt.Sprintf(
			"files without an extension are not allowed (allowed: %s)", strings.Join(allowed, ", "))}
	}

	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}

	return &PolicyError{Message: fmt.Sprintf(
		"extension %q is not allowed (allowed: %s)", "."+ext, strings.Join(allowed, ", "))}
}

// hasTraversalSegment reports whether any path segment equals "..",
// independent of separator convention.
func hasTraversalSegment(s string) bool {
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// isRooted reports whether s starts with a path-root marker: "/", "\", or a
// Windows drive letter.
func isRooted(s string) bool {
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, `\`) {
		return true
	}
	if len(s) >= 2 && s[1] == ':' {
		c := s[0]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return false
}
