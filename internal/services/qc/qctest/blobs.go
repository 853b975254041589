package qctest

import (
	"context"
	"io"
	"sync"

	"github.com/xelth-com/cotaqc/internal/storage"
)

// Blobs is an in-memory storage.BlobStore. FailRemove makes Remove error.
type Blobs struct {
	mu         sync.Mutex
	Objects    map[string][]byte
	FailRemove error
}

var _ storage.BlobStore = (*Blobs)(nil)

func NewBlobs() *Blobs {
	return &Blobs{Objects: map[string][]byte{}}
}

func (b *Blobs) Put(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Objects[key] = data
	return nil
}

func (b *Blobs) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailRemove != nil {
		return b.FailRemove
	}
	if _, ok := b.Objects[key]; !ok {
		return storage.ErrNotExist
	}
	delete(b.Objects, key)
	return nil
}

func (b *Blobs) PublicURL(key string) string {
	return "http://blobs.test/" + key
}

// Has reports whether key is stored.
func (b *Blobs) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.Objects[key]
	return ok
}

// Events records published events.
type Events struct {
	mu    sync.Mutex
	Names []string
}

func (e *Events) Publish(event string, _ interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Names = append(e.Names, event)
}

// Count returns how many times event was published.
func (e *Events) Count(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, name := range e.Names {
		if name == event {
			n++
		}
	}
	return n
}
