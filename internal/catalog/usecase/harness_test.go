package usecase

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/stretchr/testify/mock"
)

const (
	testBaseURL    = "https://api.test"
	testDefaultImg = "https://cdn.test/default-profile.jpg"
)

type harness struct {
	listings  *fakeListings
	accounts  *fakeAccounts
	proxies   *fakeProxies
	blobs     *fakeBlobs
	cache     *fakeCache
	remote    *fakeRemote
	publisher *mockPublisher
	notifier  *mockNotifier

	media     *MediaProxy
	sanitizer *Sanitizer
	search    *SearchEngine
	listing   *ListingService
	account   *AccountService
}

func newHarness(t *testing.T, accs ...*domain.Account) *harness {
	t.Helper()
	log := logger.NewNop()

	h := &harness{
		listings:  newFakeListings(),
		accounts:  newFakeAccounts(accs...),
		proxies:   newFakeProxies(),
		blobs:     newFakeBlobs(),
		cache:     newFakeCache(),
		remote:    &fakeRemote{bodies: map[string][]byte{testDefaultImg: []byte("placeholder")}},
		publisher: &mockPublisher{},
		notifier:  &mockNotifier{},
	}
	h.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	h.notifier.On("SendListingCreatedEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	h.media = NewMediaProxy(h.proxies, h.accounts, h.blobs, h.remote, h.publisher,
		MediaProxyConfig{PublicBaseURL: testBaseURL + "/", DefaultImageURL: testDefaultImg}, log)
	h.sanitizer = NewSanitizer(h.listings, h.media, log)
	h.search = NewSearchEngine(h.listings, h.sanitizer, log)
	h.listing = NewListingService(h.listings, h.accounts, h.cache, h.blobs, identityTransformer{},
		h.publisher, h.notifier, h.sanitizer, ListingServiceConfig{MinImages: 1, MaxImages: 20}, log)
	h.account = NewAccountService(h.accounts, h.listings, h.cache, h.media, h.blobs, identityTransformer{},
		h.publisher, h.sanitizer, log)
	return h
}

func account(id string) *domain.Account {
	return &domain.Account{
		ID:             id,
		UserName:       "user-" + id,
		Email:          id + "@example.com",
		PasswordHash:   "$2a$10$hash",
		Role:           domain.RoleUser,
		PhoneNumber:    "5551234567",
		ProfilePicture: testDefaultImg,
		CreatedAt:      time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC),
	}
}

func listingAt(owner, address, city string, price float64, created time.Time) *domain.Listing {
	return &domain.Listing{
		OwnerID:      owner,
		Address:      address,
		City:         city,
		Country:      "Portugal",
		Price:        price,
		Bedrooms:     2,
		Bathrooms:    1,
		Sqm:          70,
		HomeType:     domain.HomeApartment,
		Availability: domain.Availability{ForSale: true},
		Images:       []string{fakeBlobBase + "house_images/" + owner + "/cover.jpg"},
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}
