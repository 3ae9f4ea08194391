package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectExists is returned by Put when the key is taken and Upsert is false.
var ErrObjectExists = errors.New("object already exists")

// ObjectStore stores blobs and hands back publicly readable URLs.
type ObjectStore interface {
	// Put stores input.Data under bucket/key and returns its public URL.
	Put(ctx context.Context, input *PutInput) (string, error)
}

// PutInput holds the parameters for storing one object.
type PutInput struct {
	Bucket       string
	Key          string
	ContentType  string
	CacheControl int // seconds
	Upsert       bool
	Data         io.Reader
}
