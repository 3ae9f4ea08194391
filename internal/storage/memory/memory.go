package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/puros/internal/storage"
)

// Object is a stored blob.
type Object struct {
	ContentType  string
	CacheControl int
	Data         []byte
}

// Store implements storage.ObjectStore in memory. Used for local development
// and tests; objects are lost on restart.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*Object
	baseURL string
}

// New creates an empty store whose public URLs start with baseURL.
func New(baseURL string) *Store {
	return &Store{
		objects: make(map[string]*Object),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func objectPath(bucket, key string) string {
	return bucket + "/" + key
}

// Put reads input.Data and stores it. An existing key is only replaced when
// input.Upsert is set.
func (s *Store) Put(_ context.Context, input *storage.PutInput) (string, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return "", fmt.Errorf("read object data: %w", err)
	}

	path := objectPath(input.Bucket, input.Key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[path]; exists && !input.Upsert {
		return "", fmt.Errorf("put %s: %w", path, storage.ErrObjectExists)
	}
	s.objects[path] = &Object{
		ContentType:  input.ContentType,
		CacheControl: input.CacheControl,
		Data:         data,
	}

	return s.baseURL + "/" + path, nil
}

// Get returns the object stored under bucket/key.
func (s *Store) Get(bucket, key string) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[objectPath(bucket, key)]
	return obj, ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// ServeHTTP serves objects by "<bucket>/<key>" path, relative to the mount
// point.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	obj, found := s.Get(bucket, key)
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.CacheControl > 0 {
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(obj.CacheControl))
	}
	http.ServeContent(w, r, key, time.Time{}, bytes.NewReader(obj.Data))
}
