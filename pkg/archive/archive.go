package archive

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

var ErrNotFound = errors.New("archived document not found")

// Object is an archived original upload, kept so the indexing and
// extraction steps can be re-run later.
type Object struct {
	DocumentName string
	Filename     string
	ContentType  string
	Data         []byte
}

type Store interface {
	Put(ctx context.Context, obj Object) error
	Get(ctx context.Context, documentName string) (*Object, error)
	Delete(ctx context.Context, documentName string) error
}

func ObjectKey(documentName string) string {
	return "documents/" + url.PathEscape(documentName)
}

// MemoryStore keeps archived documents in process memory. Used when no
// object storage endpoint is configured, and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]Object{}}
}

func (m *MemoryStore) Put(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	obj.Data = append([]byte(nil), obj.Data...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[ObjectKey(obj.DocumentName)] = obj
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, documentName string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[ObjectKey(documentName)]
	if !ok {
		return nil, ErrNotFound
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return &obj, nil
}

func (m *MemoryStore) Delete(ctx context.Context, documentName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ObjectKey(documentName))
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
