package data

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.vocdoni.io/ballot/ipfs"
)

// DataMockTest is an in-memory storage provider for testing purposes.
type DataMockTest struct {
	files   map[string][]byte
	filesMu sync.RWMutex
	prefix  string

	// FailWith, if set, makes every Publish fail with it
	FailWith error
	// Published counts the Publish calls that reached the storage
	Published int
}

// NewDataMockTest returns an empty DataMockTest.
func NewDataMockTest() *DataMockTest {
	return &DataMockTest{
		files:  make(map[string][]byte),
		prefix: ipfs.ProtocolPrefix,
	}
}

func (d *DataMockTest) Publish(ctx context.Context, o []byte) (string, error) {
	d.filesMu.Lock()
	defer d.filesMu.Unlock()
	d.Published++
	if d.FailWith != nil {
		return "", d.FailWith
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, err := ipfs.CalculateCIDv1(o)
	if err != nil {
		return "", err
	}
	d.files[c.String()] = append([]byte(nil), o...)
	return d.prefix + c.String(), nil
}

func (d *DataMockTest) Retrieve(ctx context.Context, id string, maxSize int64) ([]byte, error) {
	d.filesMu.RLock()
	defer d.filesMu.RUnlock()
	data, ok := d.files[ipfs.TrimPrefix(id)]
	if !ok {
		return nil, os.ErrNotExist
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", id, maxSize)
	}
	return data, nil
}

func (d *DataMockTest) Pin(ctx context.Context, path string) error {
	d.filesMu.RLock()
	defer d.filesMu.RUnlock()
	if _, ok := d.files[ipfs.TrimPrefix(path)]; !ok {
		return os.ErrNotExist
	}
	return nil
}

func (d *DataMockTest) ListPins(ctx context.Context) (map[string]string, error) {
	d.filesMu.RLock()
	defer d.filesMu.RUnlock()
	pins := make(map[string]string, len(d.files))
	for id := range d.files {
		pins[ipfs.PathPrefix+id] = "recursive"
	}
	return pins, nil
}

func (d *DataMockTest) URIprefix() string {
	return d.prefix
}

func (d *DataMockTest) Stop() error {
	return nil
}
