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

// Package limits defines hard ceilings for configurable limits.
package limits

const (
	// MaxListObjects is the hard ceiling for the configurable list limit.
	MaxListObjects = 10000

	// DefaultListObjects is the default number of objects returned in a list
	// operation when the configuration does not override it.
	DefaultListObjects = 1000

	// MaxFileSizeMB is the hard ceiling for the configurable upload size, in
	// megabytes.
	MaxFileSizeMB = 5000

	// DefaultFileSizeMB is the default upload size ceiling, in megabytes.
	DefaultFileSizeMB = 100

	// MaxKeyLength is the maximum length of an object key.
	MaxKeyLength = 1024

	// MaxPrefixLength is the maximum length of a prefix filter.
	MaxPrefixLength = 512
)
