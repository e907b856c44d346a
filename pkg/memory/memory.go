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

// Package memory provides an in-memory implementation of the storage gateway.
// This is useful for testing, development, and scenarios where persistence is
// not required.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeremyhahn/go-s3mcp/pkg/common"
)

// object represents a stored object with its data and metadata.
type object struct {
	data     []byte
	metadata *common.Metadata
}

// Memory is a storage backend that stores objects in memory.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]*object
}

// New creates a new Memory storage backend.
func New() *Memory {
	return &Memory{
		objects: make(map[string]*object),
	}
}

var _ common.Storage = (*Memory)(nil)

// Put stores an object in the backend.
func (m *Memory) Put(ctx context.Context, key string, data io.Reader, metadata *common.Metadata) (*common.Metadata, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	dataBytes, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	if metadata == nil {
		metadata = &common.Metadata{}
	}
	md := *metadata
	md.Size = int64(len(dataBytes))
	md.LastModified = time.Now()
	md.ETag = fmt.Sprintf("%d-%d", md.LastModified.Unix(), md.Size)
	if md.ContentType == "" {
		md.ContentType = common.DefaultContentType
	}
	if md.StorageClass == "" {
		md.StorageClass = "STANDARD"
	}

	m.mu.Lock()
	m.objects[key] = &object{
		data:     dataBytes,
		metadata: &md,
	}
	m.mu.Unlock()

	result := md
	return &result, nil
}

// Get retrieves an object's content and metadata.
func (m *Memory) Get(ctx context.Context, key string) (io.ReadCloser, *common.Metadata, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	obj, exists := m.objects[key]
	m.mu.RUnlock()

	if !exists {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrKeyNotFound, key)
	}

	// Return copies to prevent mutation of the stored object.
	dataCopy := make([]byte, len(obj.data))
	copy(dataCopy, obj.data)

	return io.NopCloser(bytes.NewReader(dataCopy)), copyMetadata(obj.metadata), nil
}

// Head retrieves only the metadata for an object.
func (m *Memory) Head(ctx context.Context, key string) (*common.Metadata, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	obj, exists := m.objects[key]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", common.ErrKeyNotFound, key)
	}

	return copyMetadata(obj.metadata), nil
}

// List returns objects matching the prefix in key order, at most MaxKeys
// entries.
func (m *Memory) List(ctx context.Context, opts *common.ListOptions) (*common.ListResult, error) {
	if opts == nil {
		opts = &common.ListOptions{}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matchingKeys []string
	for key := range m.objects {
		if strings.HasPrefix(key, opts.Prefix) {
			matchingKeys = append(matchingKeys, key)
		}
	}
	sort.Strings(matchingKeys)

	maxKeys := opts.MaxKeys
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	result := &common.ListResult{Objects: []*common.ObjectInfo{}}
	for _, key := range matchingKeys {
		if len(result.Objects) >= maxKeys {
			result.Truncated = true
			break
		}
		result.Objects = append(result.Objects, &common.ObjectInfo{
			Key:      key,
			Metadata: copyMetadata(m.objects[key].metadata),
		})
	}

	return result, nil
}

// Delete removes an object from the backend. Deleting an absent key is a
// no-op, matching S3 semantics; existence checks belong to the caller.
func (m *Memory) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Clear removes all objects from the storage. This is useful for testing.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.objects = make(map[string]*object)
	m.mu.Unlock()
}

// Count returns the number of objects in storage. This is useful for testing.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func copyMetadata(md *common.Metadata) *common.Metadata {
	if md == nil {
		return nil
	}
	out := *md
	if md.Custom != nil {
		out.Custom = make(map[string]string, len(md.Custom))
		for k, v := range md.Custom {
			out.Custom[k] = v
		}
	}
	return &out
}
