package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/handle"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultPopulateConcurrency = 8

// PictureResolver maps an owner's stored picture URL to its public link.
type PictureResolver interface {
	ProxyURL(ctx context.Context, ownerID, realURL string) (string, error)
}

// Sanitizer turns stored entities into the projections clients receive.
type Sanitizer struct {
	listings    domain.ListingRepository
	pictures    PictureResolver
	logger      *logger.Logger
	concurrency int
}

func NewSanitizer(listings domain.ListingRepository, pictures PictureResolver, log *logger.Logger) *Sanitizer {
	return &Sanitizer{
		listings:    listings,
		pictures:    pictures,
		logger:      log.Named("Sanitizer"),
		concurrency: defaultPopulateConcurrency,
	}
}

// MaskEmail keeps the first two characters of the local part. Masking a
// masked address returns it unchanged.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domainPart, hasAt := strings.Cut(email, "@")
	if strings.HasSuffix(local, "***") {
		return email
	}
	masked := firstRunes(local, 2) + "***"
	if !hasAt {
		return masked
	}
	return masked + "@" + domainPart
}

// MaskPhone keeps the last four characters. Masking a masked number returns
// it unchanged.
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || phone == "0" {
		return ""
	}
	if strings.HasPrefix(phone, "****") {
		return phone
	}
	n := utf8.RuneCountInString(phone)
	if n <= 4 {
		return "****" + phone
	}
	r := []rune(phone)
	return "****" + string(r[n-4:])
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FormatDate renders t in the display layout, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DisplayDateLayout)
}

func refs(ids []string, kind handle.Kind) []Ref {
	if len(ids) == 0 {
		return nil
	}
	out := make([]Ref, len(ids))
	for i, id := range ids {
		out[i] = Ref{ID: handle.Encode(id, kind)}
	}
	return out
}

func (s *Sanitizer) picture(ctx context.Context, a *domain.Account) (string, error) {
	if a.ProfilePicture == "" {
		return "", nil
	}
	return s.pictures.ProxyURL(ctx, a.ID, a.ProfilePicture)
}

// Account sanitizes an account for its owner. A nil account yields nil.
func (s *Sanitizer) Account(ctx context.Context, a *domain.Account) (*SafeAccount, error) {
	if a == nil {
		return nil, nil
	}
	pic, err := s.picture(ctx, a)
	if err != nil {
		return nil, err
	}
	return &SafeAccount{
		ID:             handle.Encode(a.ID, handle.KindUser),
		UserName:       a.UserName,
		Email:          MaskEmail(a.Email),
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		Bio:            a.Bio,
		PhoneNumber:    MaskPhone(a.PhoneNumber),
		ProfilePicture: pic,
		Published:      refs(a.Published, handle.KindHouse),
		Favorites:      refs(a.Favorites, handle.KindHouse),
		SavedSearches:  refs(a.SavedSearches, handle.KindSearch),
		CreatedAt:      FormatDate(a.CreatedAt),
		UpdatedAt:      FormatDate(a.UpdatedAt),
	}, nil
}

func (s *Sanitizer) owner(ctx context.Context, a *domain.Account) (*SafeOwner, error) {
	pic, err := s.picture(ctx, a)
	if err != nil {
		return nil, err
	}
	return &SafeOwner{
		ID:             handle.Encode(a.ID, handle.KindUser),
		UserName:       a.UserName,
		Email:          MaskEmail(a.Email),
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		Bio:            a.Bio,
		PhoneNumber:    MaskPhone(a.PhoneNumber),
		ProfilePicture: pic,
		CreatedAt:      FormatDate(a.CreatedAt),
		UpdatedAt:      FormatDate(a.UpdatedAt),
	}, nil
}

// Listing sanitizes a listing. With owner set, postedBy becomes the
// sanitized owner; otherwise it is the owner's handle.
func (s *Sanitizer) Listing(ctx context.Context, l *domain.Listing, owner *domain.Account) (*SafeListing, error) {
	if l == nil {
		return nil, nil
	}
	out := s.base(l)
	out.Description = l.Description
	out.Features = l.Features
	out.Images = l.Images
	out.Latitude = l.Latitude
	out.Longitude = l.Longitude
	out.YearBuilt = l.YearBuilt
	out.UpdatedAt = FormatDate(l.UpdatedAt)

	if owner != nil && owner.ID == l.OwnerID {
		o, err := s.owner(ctx, owner)
		if err != nil {
			return nil, err
		}
		out.PostedBy = &PostedBy{Owner: o}
	}
	return out, nil
}

// Summary is the bounded projection used in search pages: descriptive text,
// coordinates and all but the cover image are left out.
func (s *Sanitizer) Summary(l *domain.Listing) *SafeListing {
	if l == nil {
		return nil
	}
	out := s.base(l)
	if len(l.Images) > 0 {
		out.Images = l.Images[:1]
	}
	return out
}

func (s *Sanitizer) base(l *domain.Listing) *SafeListing {
	out := &SafeListing{
		ID:          handle.Encode(l.ID, handle.KindHouse),
		Address:     l.Address,
		Price:       l.Price,
		RentalPrice: l.RentalPrice,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		Sqm:         l.Sqm,
		City:        l.City,
		Country:     l.Country,
		HomeType:    l.HomeType,
		Availability: SafeAvailability{
			ForSale: l.Availability.ForSale,
			ForRent: l.Availability.ForRent,
		},
		CreatedAt: FormatDate(l.CreatedAt),
	}
	if l.OwnerID != "" {
		out.PostedBy = &PostedBy{Handle: handle.Encode(l.OwnerID, handle.KindUser)}
	}
	return out
}

// Populate resolves every reference of a sanitized account into sanitized
// listings. Undecodable or dangling references are skipped.
func (s *Sanitizer) Populate(ctx context.Context, a *SafeAccount) *Population {
	ctx, span := tracer.Start(ctx, "Sanitizer.Populate")
	defer span.End()

	if a == nil {
		return &Population{Published: []*SafeListing{}, Favorites: []*SafeListing{}, SavedSearches: []*SafeListing{}}
	}
	return &Population{
		Published:     s.populate(ctx, a.Published, handle.KindHouse),
		Favorites:     s.populate(ctx, a.Favorites, handle.KindHouse),
		SavedSearches: s.populate(ctx, a.SavedSearches, handle.KindSearch),
	}
}

// populate resolves list, whose handles must all be of kind; any other kind
// is skipped like an undecodable handle.
func (s *Sanitizer) populate(ctx context.Context, list []Ref, kind handle.Kind) []*SafeListing {
	results := make([]*SafeListing, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ref := range list {
		g.Go(func() error {
			results[i] = s.resolve(gctx, ref.ID, kind)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*SafeListing, 0, len(list))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (s *Sanitizer) resolve(ctx context.Context, h string, kind handle.Kind) *SafeListing {
	id, err := handle.DecodeKind(h, kind)
	if err != nil {
		s.logger.Debug("Skipping undecodable reference", zap.String("handle", h), zap.Error(err))
		return nil
	}
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("Skipping dangling reference", zap.String("listing_id", id))
		} else {
			s.logger.Warn("Failed to load referenced listing", zap.String("listing_id", id), zap.Error(err))
		}
		return nil
	}
	safe, err := s.Listing(ctx, l, nil)
	if err != nil {
		s.logger.Warn("Failed to sanitize referenced listing", zap.String("listing_id", id), zap.Error(err))
		return nil
	}
	return safe
}
