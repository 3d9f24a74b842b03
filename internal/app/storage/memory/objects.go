package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/hackcrew/service_layer/internal/app/storage"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// Objects is an in-memory ObjectStore. URLs are BaseURL + "/" + path.
type Objects struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string]Object
	puts    int
	fail    error
}

var _ storage.ObjectStore = (*Objects)(nil)

// NewObjects creates an empty object store.
func NewObjects(baseURL string) *Objects {
	return &Objects{BaseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]Object)}
}

func (o *Objects) PutObject(_ context.Context, path string, data []byte, contentType string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.puts++
	if o.fail != nil {
		return "", o.fail
	}
	o.objects[path] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return o.BaseURL + "/" + path, nil
}

func (o *Objects) RemoveObject(_ context.Context, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, path)
	return nil
}

// Get returns a stored object.
func (o *Objects) Get(path string) (Object, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	obj, ok := o.objects[path]
	return obj, ok
}

// Puts returns how many PutObject calls were made.
func (o *Objects) Puts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.puts
}

// FailWith makes PutObject fail with err (nil clears).
func (o *Objects) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail = err
}
