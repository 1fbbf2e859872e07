package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory ObjectStore used by tests and demos. ListErr and
// GetErr allow fault injection.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	mod     map[string]time.Time

	ListErr error
	GetErr  error
}

// NewMemory creates an empty in-memory object store.
func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string]map[string][]byte),
		mod:     make(map[string]time.Time),
	}
}

// Put stores an object, creating the bucket if needed.
func (m *Memory) Put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets[bucket] == nil {
		m.buckets[bucket] = make(map[string][]byte)
	}
	m.buckets[bucket][key] = data
	m.mod[bucket+"/"+key] = time.Now()
}

// List returns objects under prefix sorted by key for determinism.
func (m *Memory) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []Object
	for key, data := range m.buckets[bucket] {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, Object{
			Key:          key,
			Size:         int64(len(data)),
			LastModified: m.mod[bucket+"/"+key],
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Get returns the stored bytes for one object.
func (m *Memory) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return data, nil
}
