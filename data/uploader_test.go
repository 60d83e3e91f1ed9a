package data

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"go.vocdoni.io/ballot/types"
)

func newUploader(t *testing.T, storage Storage, cacheSize int) *Uploader {
	u, err := NewUploader(storage, "", cacheSize)
	qt.Assert(t, err, qt.IsNil)
	return u
}

func TestUploadEmptyPayload(t *testing.T) {
	storage := NewDataMockTest()
	u := newUploader(t, storage, 0)
	for _, payload := range [][]byte{nil, {}} {
		_, err := u.Upload(context.Background(), payload)
		qt.Assert(t, err, qt.ErrorIs, types.ErrEmptyPayload)
	}
	qt.Assert(t, storage.Published, qt.Equals, 0)
}

func TestUploadTooLarge(t *testing.T) {
	storage := NewDataMockTest()
	u := newUploader(t, storage, 0)
	qt.Assert(t, types.MaxUploadSize, qt.Equals, 5000000)
	_, err := u.Upload(context.Background(), bytes.Repeat([]byte{1}, types.MaxUploadSize+1))
	var verr *types.ValidationError
	qt.Assert(t, err, qt.ErrorAs, &verr)
	qt.Assert(t, verr.Field, qt.Equals, "image")
	qt.Assert(t, storage.Published, qt.Equals, 0)

	_, err = u.Upload(context.Background(), bytes.Repeat([]byte{1}, types.MaxUploadSize))
	qt.Assert(t, err, qt.IsNil)
}

func TestUploadFailed(t *testing.T) {
	storage := NewDataMockTest()
	cause := errors.New("storage service unavailable")
	storage.FailWith = cause
	u := newUploader(t, storage, DefaultUploadCacheSize)

	_, err := u.Upload(context.Background(), []byte("img"))
	var uerr *types.UploadFailedError
	qt.Assert(t, err, qt.ErrorAs, &uerr)
	qt.Assert(t, err, qt.ErrorIs, cause)
	qt.Assert(t, types.Kind(err), qt.Equals, types.KindUploadFailed)

	// failures are not remembered, a later upload reaches the storage again
	storage.FailWith = nil
	res, err := u.Upload(context.Background(), []byte("img"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res.Locator, qt.Matches, "ipfs://.*")
	qt.Assert(t, storage.Published, qt.Equals, 2)
}

func TestUploadDeduplicates(t *testing.T) {
	storage := NewDataMockTest()
	u := newUploader(t, storage, DefaultUploadCacheSize)
	first, err := u.Upload(context.Background(), []byte("same image"))
	qt.Assert(t, err, qt.IsNil)
	second, err := u.Upload(context.Background(), []byte("same image"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, second, qt.Equals, first)
	qt.Assert(t, storage.Published, qt.Equals, 1)

	other, err := u.Upload(context.Background(), []byte("other image"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, other, qt.Not(qt.Equals), first)
	qt.Assert(t, storage.Published, qt.Equals, 2)
}

func TestUploadJSON(t *testing.T) {
	storage := NewDataMockTest()
	u := newUploader(t, storage, 0)
	meta := types.EntityMetadata{Kind: "candidate", Name: "Alice", Address: common.HexToAddress("0xabc")}
	res, err := u.UploadJSON(context.Background(), meta)
	qt.Assert(t, err, qt.IsNil)
	data, err := u.Retrieve(context.Background(), res.Locator, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(data), qt.Contains, `"name":"Alice"`)

	_, err = u.UploadJSON(context.Background(), make(chan int))
	qt.Assert(t, err, qt.IsNotNil)
}

func TestUploadJSONTooLarge(t *testing.T) {
	storage := NewDataMockTest()
	u := newUploader(t, storage, 0)
	meta := types.EntityMetadata{Kind: "voter", Name: strings.Repeat("a", types.MaxUploadSize)}
	_, err := u.UploadJSON(context.Background(), meta)
	var verr *types.ValidationError
	qt.Assert(t, err, qt.ErrorAs, &verr)
	qt.Assert(t, verr.Field, qt.Equals, "metadata")
	qt.Assert(t, storage.Published, qt.Equals, 0)
}

func TestToHTTPURL(t *testing.T) {
	const (
		cidV0 = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
		cidV1 = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
	)
	tests := []struct {
		in, want string
	}{
		{"ipfs://" + cidV1, "https://ipfs.io/ipfs/" + cidV1},
		{"ipfs://" + cidV1 + "/photo.png", "https://ipfs.io/ipfs/" + cidV1 + "/photo.png"},
		{"/ipfs/" + cidV0, "https://ipfs.io/ipfs/" + cidV0},
		{cidV0, "https://ipfs.io/ipfs/" + cidV0},
		{cidV1, "https://ipfs.io/ipfs/" + cidV1},
		{"https://example.com/a.png", "https://example.com/a.png"},
		{"http://example.com/a.png", "http://example.com/a.png"},
		{"not a locator", "not a locator"},
		{"", ""},
	}
	for _, tt := range tests {
		got := ToHTTPURL(tt.in)
		qt.Assert(t, got, qt.Equals, tt.want, qt.Commentf("input %q", tt.in))
		qt.Assert(t, ToHTTPURL(got), qt.Equals, got)
	}
	qt.Assert(t, ToGatewayURL("ipfs://"+cidV1, "http://localhost:8080/ipfs"), qt.Equals,
		"http://localhost:8080/ipfs/"+cidV1)
}
