// Package data provides an abstraction layer for distributed data storage providers (currently only IPFS)
// and the content uploader built on top of it.
package data

import (
	"context"
)

// Storage is the interface that wraps the basic methods for a distributed data storage provider.
type Storage interface {
	// Publish stores and pins data, returning its locator (URIprefix + id)
	Publish(ctx context.Context, data []byte) (string, error)
	Retrieve(ctx context.Context, id string, maxSize int64) ([]byte, error)
	Pin(ctx context.Context, path string) error
	ListPins(ctx context.Context) (map[string]string, error)
	URIprefix() string
	Stop() error
}
