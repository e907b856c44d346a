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

// Package common defines the storage gateway contract shared by the tool
// executor and the backend implementations.
package common

import (
	"time"
)

// DefaultContentType is used when a caller does not declare a MIME type.
const DefaultContentType = "application/octet-stream"

// Metadata represents metadata associated with an object in storage.
type Metadata struct {
	// ContentType is the MIME type of the object (e.g., "application/pdf")
	ContentType string `json:"content_type,omitempty"`

	// Size is the size of the object in bytes
	Size int64 `json:"size_bytes"`

	// LastModified is the timestamp when the object was last modified
	LastModified time.Time `json:"last_modified"`

	// ETag is the entity tag for the object (used for versioning/caching)
	ETag string `json:"etag,omitempty"`

	// StorageClass is the backend storage tier (e.g., "STANDARD")
	StorageClass string `json:"storage_class,omitempty"`

	// Custom is a map of custom metadata key-value pairs
	Custom map[string]string `json:"custom,omitempty"`
}

// ObjectInfo represents complete information about a stored object.
type ObjectInfo struct {
	// Key is the object's storage key/path
	Key string `json:"key"`

	// Metadata contains the object's metadata
	Metadata *Metadata `json:"metadata,omitempty"`
}

// ListOptions specifies options for listing objects.
type ListOptions struct {
	// Prefix filters objects to those starting with this prefix
	Prefix string

	// MaxKeys specifies the maximum number of results to return.
	// The caller is responsible for clamping this to its configured ceiling;
	// backends treat 0 as "backend default".
	MaxKeys int
}

// ListResult contains the results of a list operation.
type ListResult struct {
	// Objects contains the objects matching the criteria, in key order
	Objects []*ObjectInfo

	// Truncated indicates whether more results exist beyond MaxKeys
	Truncated bool
}
