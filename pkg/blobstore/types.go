package blobstore

import (
	"context"
	"time"
)

const (
	KindVercel = "vercel_blob"
	KindLocal  = "local"
)

type Blob struct {
	URL        string    `json:"url"`
	Pathname   string    `json:"pathname"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type ListOptions struct {
	Prefix string
	Limit  int    // 0 means store default
	Cursor string // opaque, returned by previous List call
}

type ListResult struct {
	Blobs   []Blob
	Cursor  string
	HasMore bool
}

// Store is a flat namespace of immutable blobs addressed by pathname.
type Store interface {
	Kind() string

	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	Put(ctx context.Context, pathname string, body []byte, contentType string) (*Blob, error)
	// Delete removes blob by its URL, deleting nonexistent blob is not an error.
	Delete(ctx context.Context, url string) error
}
