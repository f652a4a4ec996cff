package usecase

import (
	"context"
	"io"
)

// BlobObject is an open stream over a stored object.
type BlobObject struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// BlobStore is the object storage the catalog keeps images in. Delete and
// Open return domain.ErrObjectNotFound for missing keys.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (*BlobObject, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL recovers the object key from a public URL previously
	// returned by Put. ok is false for URLs this store did not issue.
	KeyFromURL(rawURL string) (key string, ok bool)
}

// RemoteFetcher retrieves media that lives outside the blob store, such as
// the default profile placeholder.
type RemoteFetcher interface {
	Fetch(ctx context.Context, url string) (*BlobObject, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type Notifier interface {
	SendListingCreatedEmail(ctx context.Context, toEmail, listingAddress string) error
}

// Event subjects.
const (
	SubjectListingCreated    = "listing.created"
	SubjectListingUpdated    = "listing.updated"
	SubjectListingDeleted    = "listing.deleted"
	SubjectAccountDeleted    = "account.deleted"
	SubjectMediaProxyUpdated = "media.proxy.updated"
)

type ListingEvent struct {
	ListingID string `json:"listingId"`
	OwnerID   string `json:"ownerId"`
	ActorID   string `json:"actorId,omitempty"`
}

type AccountDeletedEvent struct {
	AccountID       string   `json:"accountId"`
	ActorID         string   `json:"actorId"`
	RemovedListings []string `json:"removedListings"`
}

type MediaProxyEvent struct {
	ProxyID string `json:"proxyId"`
	OwnerID string `json:"ownerId"`
	Version int64  `json:"version"`
}
