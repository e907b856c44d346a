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

package common

import (
	"context"
	"io"
)

// Storage is the narrow gateway to the object-storage backend. The tool
// executor performs all policy checks before a call reaches this interface;
// implementations only translate to the backend API.
//
// Absent objects are reported by wrapping ErrKeyNotFound so callers can test
// with errors.Is.
type Storage interface {
	// Put stores an object. The returned metadata carries at least the
	// backend-assigned ETag and size.
	Put(ctx context.Context, key string, data io.Reader, metadata *Metadata) (*Metadata, error)

	// Get retrieves an object's content and metadata.
	Get(ctx context.Context, key string) (io.ReadCloser, *Metadata, error)

	// Head retrieves only the metadata for an object. No content is
	// transferred.
	Head(ctx context.Context, key string) (*Metadata, error)

	// List returns objects matching opts in key order.
	List(ctx context.Context, opts *ListOptions) (*ListResult, error)

	// Delete removes an object. Deleting an absent object is reported as
	// ErrKeyNotFound by callers that require existence; backends themselves
	// may treat it as a no-op (S3 semantics).
	Delete(ctx context.Context, key string) error
}
