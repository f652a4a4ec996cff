package domain

import "context"

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*Listing, error)
	// Search returns the requested page ordered by creation time, newest
	// first, with ties broken by id descending.
	Search(ctx context.Context, filter ListingFilter, page Page) (*SearchResult, error)
}

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*Account, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*Account, error)
	SetProfilePicture(ctx context.Context, id, url string) error
	AddReference(ctx context.Context, id string, set ReferenceSet, listingID string) error
	RemoveReference(ctx context.Context, id string, set ReferenceSet, listingID string) error
	// PullListings removes the given listing ids from every account's
	// reference sets.
	PullListings(ctx context.Context, listingIDs []string) (int64, error)
	Delete(ctx context.Context, id string) error
	// ExistingIDs returns the subset of ids that still belong to an account.
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
}

type ImageProxyRepository interface {
	// Upsert updates the owner's mapping in place or creates it with
	// newProxyID, bumping the version either way.
	Upsert(ctx context.Context, ownerID, originalURL, contentType, newProxyID string) (*ImageProxy, error)
	FindByOwner(ctx context.Context, ownerID string) (*ImageProxy, error)
	FindByProxyID(ctx context.Context, proxyID string) (*ImageProxy, error)
	DeleteByProxyID(ctx context.Context, proxyID string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	List(ctx context.Context) ([]*ImageProxy, error)
	DeleteByProxyIDs(ctx context.Context, proxyIDs []string) (int64, error)
}

// ListingCache is a read-through cache in front of ListingRepository.
// Get returns ErrCacheMiss when the entry is absent.
type ListingCache interface {
	Get(ctx context.Context, id string) (*Listing, error)
	Set(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
}
