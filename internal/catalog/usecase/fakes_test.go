package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/stretchr/testify/mock"
)

// fakeListings is an in-memory ListingRepository.
type fakeListings struct {
	mu     sync.Mutex
	byID   map[string]*domain.Listing
	nextID int
}

func newFakeListings() *fakeListings {
	return &fakeListings{byID: map[string]*domain.Listing{}}
}

func cloneListing(l *domain.Listing) *domain.Listing {
	c := *l
	c.Images = append([]string(nil), l.Images...)
	c.Features = append([]domain.Feature(nil), l.Features...)
	return &c
}

func (r *fakeListings) seed(l *domain.Listing) *domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		r.nextID++
		l.ID = fmt.Sprintf("%024x", r.nextID)
	}
	r.byID[l.ID] = cloneListing(l)
	return l
}

func (r *fakeListings) Create(_ context.Context, l *domain.Listing) error {
	r.seed(l)
	return nil
}

func (r *fakeListings) Update(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[l.ID]; !ok {
		return domain.ErrNotFound
	}
	l.Revision++
	r.byID[l.ID] = cloneListing(l)
	return nil
}

func (r *fakeListings) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeListings) DeleteMany(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeListings) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneListing(l), nil
}

func (r *fakeListings) FindByOwner(_ context.Context, ownerID string) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.byID {
		if l.OwnerID == ownerID {
			out = append(out, cloneListing(l))
		}
	}
	return out, nil
}

func (r *fakeListings) Search(_ context.Context, f domain.ListingFilter, page domain.Page) (*domain.SearchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Listing
	areas, cities := map[string]bool{}, map[string]bool{}
	for _, l := range r.byID {
		if f.Matches(l) {
			matched = append(matched, cloneListing(l))
			areas[l.Address] = true
			cities[l.City] = true
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	res := &domain.SearchResult{Total: int64(len(matched)), Areas: sortedKeys(areas), Cities: sortedKeys(cities)}
	if page.Offset < len(matched) {
		end := page.Offset + page.Limit
		if end > len(matched) {
			end = len(matched)
		}
		res.Listings = matched[page.Offset:end]
	}
	return res, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// fakeAccounts is an in-memory AccountRepository.
type fakeAccounts struct {
	mu   sync.Mutex
	byID map[string]*domain.Account

	// setPictureErr fails the next SetProfilePicture call.
	setPictureErr error
}

func newFakeAccounts(accs ...*domain.Account) *fakeAccounts {
	r := &fakeAccounts{byID: map[string]*domain.Account{}}
	for _, a := range accs {
		r.byID[a.ID] = a
	}
	return r
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	c.Published = append([]string(nil), a.Published...)
	c.Favorites = append([]string(nil), a.Favorites...)
	c.SavedSearches = append([]string(nil), a.SavedSearches...)
	return &c
}

func (r *fakeAccounts) get(id string) *domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		return cloneAccount(a)
	}
	return nil
}

func (r *fakeAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	if a := r.get(id); a != nil {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAccounts) UpdateProfile(_ context.Context, id string, p domain.ProfilePatch) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
	}
	if p.Bio != nil {
		a.Bio = *p.Bio
	}
	if p.PhoneNumber != nil {
		a.PhoneNumber = *p.PhoneNumber
	}
	return cloneAccount(a), nil
}

func (r *fakeAccounts) SetProfilePicture(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.setPictureErr; err != nil {
		r.setPictureErr = nil
		return err
	}
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.ProfilePicture = url
	return nil
}

func (r *fakeAccounts) refSet(a *domain.Account, set domain.ReferenceSet) *[]string {
	switch set {
	case domain.RefPublished:
		return &a.Published
	case domain.RefFavorites:
		return &a.Favorites
	default:
		return &a.SavedSearches
	}
}

func (r *fakeAccounts) AddReference(_ context.Context, id string, set domain.ReferenceSet, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	refs := r.refSet(a, set)
	for _, v := range *refs {
		if v == listingID {
			return nil
		}
	}
	*refs = append(*refs, listingID)
	return nil
}

func (r *fakeAccounts) RemoveReference(_ context.Context, id string, set domain.ReferenceSet, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	refs := r.refSet(a, set)
	*refs = without(*refs, map[string]bool{listingID: true})
	return nil
}

func without(list []string, drop map[string]bool) []string {
	out := list[:0]
	for _, v := range list {
		if !drop[v] {
			out = append(out, v)
		}
	}
	return out
}

func (r *fakeAccounts) PullListings(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	var n int64
	for _, a := range r.byID {
		before := len(a.Published) + len(a.Favorites) + len(a.SavedSearches)
		a.Published = without(a.Published, drop)
		a.Favorites = without(a.Favorites, drop)
		a.SavedSearches = without(a.SavedSearches, drop)
		if len(a.Published)+len(a.Favorites)+len(a.SavedSearches) != before {
			n++
		}
	}
	return n, nil
}

func (r *fakeAccounts) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeAccounts) ExistingIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// fakeProxies is an in-memory ImageProxyRepository.
type fakeProxies struct {
	mu      sync.Mutex
	byOwner map[string]*domain.ImageProxy

	upsertErr error
}

func newFakeProxies() *fakeProxies {
	return &fakeProxies{byOwner: map[string]*domain.ImageProxy{}}
}

func (r *fakeProxies) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byOwner)
}

func (r *fakeProxies) Upsert(_ context.Context, ownerID, originalURL, contentType, newProxyID string) (*domain.ImageProxy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	now := time.Now().UTC()
	m, ok := r.byOwner[ownerID]
	if !ok {
		m = &domain.ImageProxy{ProxyID: newProxyID, OwnerID: ownerID, CreatedAt: now}
		r.byOwner[ownerID] = m
	}
	m.OriginalURL = originalURL
	m.ContentType = contentType
	m.Version++
	m.UpdatedAt = now
	c := *m
	return &c, nil
}

func (r *fakeProxies) FindByOwner(_ context.Context, ownerID string) (*domain.ImageProxy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byOwner[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (r *fakeProxies) FindByProxyID(_ context.Context, proxyID string) (*domain.ImageProxy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byOwner {
		if m.ProxyID == proxyID {
			c := *m
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeProxies) DeleteByProxyID(_ context.Context, proxyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for owner, m := range r.byOwner {
		if m.ProxyID == proxyID {
			delete(r.byOwner, owner)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeProxies) DeleteByOwner(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byOwner[ownerID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byOwner, ownerID)
	return nil
}

func (r *fakeProxies) List(_ context.Context) ([]*domain.ImageProxy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.ImageProxy, 0, len(r.byOwner))
	for _, m := range r.byOwner {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeProxies) DeleteByProxyIDs(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	var n int64
	for owner, m := range r.byOwner {
		if drop[m.ProxyID] {
			delete(r.byOwner, owner)
			n++
		}
	}
	return n, nil
}

const fakeBlobBase = "http://blob.test/media/"

// fakeBlobs is an in-memory BlobStore. Keys containing any failPut marker
// fail to upload; deleteErr, when set, is returned by every Delete.
type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failPut   []string
	deleteErr error
	deleted   []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func (b *fakeBlobs) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func (b *fakeBlobs) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	for _, marker := range b.failPut {
		if strings.Contains(key, marker) {
			return "", errors.New("simulated upload failure")
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return fakeBlobBase + key, nil
}

func (b *fakeBlobs) Open(_ context.Context, key string) (*BlobObject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return &BlobObject{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data))}, nil
}

func (b *fakeBlobs) Exists(_ context.Context, key string) (bool, error) {
	return b.has(key), nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	if _, ok := b.objects[key]; !ok {
		return domain.ErrObjectNotFound
	}
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *fakeBlobs) KeyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, fakeBlobBase) {
		return "", false
	}
	return strings.TrimPrefix(rawURL, fakeBlobBase), true
}

// fakeRemote serves fixed bytes for any URL in its table.
type fakeRemote struct {
	bodies map[string][]byte
}

func (f *fakeRemote) Fetch(_ context.Context, url string) (*BlobObject, error) {
	data, ok := f.bodies[url]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	return &BlobObject{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data)), ContentType: "image/jpeg"}, nil
}

// identityTransformer skips decoding so tests can use tiny fake images.
type identityTransformer struct{}

func (identityTransformer) Transform(data []byte, _ string) ([]byte, error) { return data, nil }

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendListingCreatedEmail(ctx context.Context, toEmail, listingAddress string) error {
	args := m.Called(ctx, toEmail, listingAddress)
	return args.Error(0)
}

// fakeCache is an in-memory ListingCache.
type fakeCache struct {
	mu   sync.Mutex
	byID map[string]*domain.Listing
}

func newFakeCache() *fakeCache { return &fakeCache{byID: map[string]*domain.Listing{}} }

func (c *fakeCache) Get(_ context.Context, id string) (*domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.byID[id]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return cloneListing(l), nil
}

func (c *fakeCache) Set(_ context.Context, l *domain.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[l.ID] = cloneListing(l)
	return nil
}

func (c *fakeCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	return nil
}

func jpeg(name string) UploadFile {
	return UploadFile{Name: name, ContentType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}}
}
