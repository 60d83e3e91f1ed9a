package data

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"go.vocdoni.io/ballot/ipfs"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// DefaultUploadCacheSize is the number of uploaded payloads remembered for deduplication.
const DefaultUploadCacheSize = 128

// Uploader publishes payloads to a Storage and normalizes the resulting locators.
type Uploader struct {
	storage Storage
	gateway string
	uploads *lru.Cache
}

// NewUploader returns an Uploader publishing to storage. An empty gateway uses
// types.DefaultIPFSGateway, a non positive cacheSize disables deduplication.
func NewUploader(storage Storage, gateway string, cacheSize int) (*Uploader, error) {
	if gateway == "" {
		gateway = types.DefaultIPFSGateway
	}
	u := &Uploader{storage: storage, gateway: gateway}
	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("cannot create upload cache: %w", err)
		}
		u.uploads = cache
	}
	return u, nil
}

// Gateway returns the HTTP gateway locators are rewritten to.
func (u *Uploader) Gateway() string { return u.gateway }

// Upload publishes an image. Empty payloads fail with ErrEmptyPayload and payloads
// larger than types.MaxUploadSize with a ValidationError on the image field, both
// without reaching the storage. Storage errors are returned as UploadFailedError,
// there is no retry.
func (u *Uploader) Upload(ctx context.Context, payload []byte) (types.UploadResult, error) {
	return u.upload(ctx, payload, "image")
}

// field names the request field a size ValidationError is reported on.
func (u *Uploader) upload(ctx context.Context, payload []byte, field string) (types.UploadResult, error) {
	if len(payload) == 0 {
		FileUploads.WithLabelValues("rejected").Inc()
		return types.UploadResult{}, types.ErrEmptyPayload
	}
	if len(payload) > types.MaxUploadSize {
		FileUploads.WithLabelValues("rejected").Inc()
		return types.UploadResult{}, types.NewValidationError(field,
			fmt.Sprintf("size %d exceeds the %d bytes limit", len(payload), types.MaxUploadSize))
	}
	var key string
	if u.uploads != nil {
		if c, err := ipfs.CalculateCIDv1(payload); err == nil {
			key = c.String()
			if v, ok := u.uploads.Get(key); ok {
				FileUploads.WithLabelValues("deduplicated").Inc()
				return types.UploadResult{Locator: v.(string)}, nil
			}
		}
	}
	locator, err := u.storage.Publish(ctx, payload)
	if err != nil {
		FileUploads.WithLabelValues("failed").Inc()
		log.Warnw("upload failed", "size", len(payload), "error", err)
		return types.UploadResult{}, &types.UploadFailedError{Err: err}
	}
	FileUploads.WithLabelValues("published").Inc()
	FileUploadBytes.Add(float64(len(payload)))
	if key != "" {
		u.uploads.Add(key, locator)
	}
	log.Debugw("content uploaded", "locator", locator, "size", len(payload))
	return types.UploadResult{Locator: locator}, nil
}

// UploadJSON publishes the JSON encoding of v. An oversized document is reported
// on the metadata field.
func (u *Uploader) UploadJSON(ctx context.Context, v interface{}) (types.UploadResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return types.UploadResult{}, fmt.Errorf("cannot encode document: %w", err)
	}
	return u.upload(ctx, payload, "metadata")
}

// ToHTTPURL rewrites locator to the uploader gateway, see ToHTTPURL.
func (u *Uploader) ToHTTPURL(locator string) string {
	return ToGatewayURL(locator, u.gateway)
}

// Retrieve fetches the content behind locator from the storage.
func (u *Uploader) Retrieve(ctx context.Context, locator string, maxSize int64) ([]byte, error) {
	return u.storage.Retrieve(ctx, locator, maxSize)
}
