package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/handle"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ListingInput carries the fields of a new listing.
type ListingInput struct {
	Address     string
	Description string
	Price       float64
	RentalPrice float64
	Bedrooms    int
	Bathrooms   int
	Sqm         float64
	City        string
	Country     string
	HomeType    domain.HomeType
	Features    []domain.Feature
	Latitude    *float64
	Longitude   *float64
	ForSale     bool
	ForRent     bool
	YearBuilt   int
}

// ListingPatch carries listing changes. Nil fields are left untouched.
type ListingPatch struct {
	Address     *string
	Description *string
	Price       *float64
	RentalPrice *float64
	Bedrooms    *int
	Bathrooms   *int
	Sqm         *float64
	City        *string
	Country     *string
	HomeType    *domain.HomeType
	Features    *[]domain.Feature
	Latitude    *float64
	Longitude   *float64
	ForSale     *bool
	ForRent     *bool
	YearBuilt   *int
}

type ListingServiceConfig struct {
	MinImages int
	MaxImages int
}

// ListingService implements listing retrieval and the owner-side workflows.
type ListingService struct {
	listings  domain.ListingRepository
	accounts  domain.AccountRepository
	cache     domain.ListingCache
	images    *imageUploader
	publisher EventPublisher
	notifier  Notifier
	sanitizer *Sanitizer
	cfg       ListingServiceConfig
	logger    *logger.Logger
	now       func() time.Time
}

func NewListingService(
	listings domain.ListingRepository,
	accounts domain.AccountRepository,
	cache domain.ListingCache,
	blobs BlobStore,
	transformer ImageTransformer,
	publisher EventPublisher,
	notifier Notifier,
	sanitizer *Sanitizer,
	cfg ListingServiceConfig,
	log *logger.Logger,
) *ListingService {
	if cfg.MinImages < 1 {
		cfg.MinImages = 1
	}
	if cfg.MaxImages < cfg.MinImages || cfg.MaxImages > domain.MaxListingImages {
		cfg.MaxImages = domain.MaxListingImages
	}
	named := log.Named("ListingService")
	return &ListingService{
		listings: listings,
		accounts: accounts,
		cache:    cache,
		images: &imageUploader{
			blobs:       blobs,
			transformer: transformer,
			logger:      named,
			now:         time.Now,
			parallelism: 4,
		},
		publisher: publisher,
		notifier:  notifier,
		sanitizer: sanitizer,
		cfg:       cfg,
		logger:    named,
		now:       time.Now,
	}
}

// HomeTypes returns the homeType vocabulary.
func (s *ListingService) HomeTypes() []domain.HomeType { return domain.HomeTypes() }

// Features returns the feature vocabulary.
func (s *ListingService) Features() []domain.Feature { return domain.Features() }

func decodeListingHandle(h string) (string, error) {
	id, err := handle.DecodeKind(h, handle.KindHouse)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return id, nil
}

// load reads a listing through the cache.
func (s *ListingService) load(ctx context.Context, id string) (*domain.Listing, error) {
	if s.cache != nil {
		l, err := s.cache.Get(ctx, id)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("Listing cache read failed", zap.String("listing_id", id), zap.Error(err))
		}
	}

	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, l); err != nil {
			s.logger.Warn("Listing cache write failed", zap.String("listing_id", id), zap.Error(err))
		}
	}
	return l, nil
}

func (s *ListingService) invalidate(ctx context.Context, ids ...string) {
	if s.cache == nil {
		return
	}
	for _, id := range ids {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.logger.Warn("Listing cache invalidation failed", zap.String("listing_id", id), zap.Error(err))
		}
	}
}

func (s *ListingService) publish(ctx context.Context, subject string, evt interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, evt); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// Get returns the listing behind h with its owner populated.
func (s *ListingService) Get(ctx context.Context, h string) (*SafeListing, error) {
	ctx, span := tracer.Start(ctx, "ListingService.Get")
	defer span.End()

	id, err := decodeListingHandle(h)
	if err != nil {
		return nil, err
	}
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	owner, err := s.accounts.FindByID(ctx, l.OwnerID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Failed to load listing owner", zap.String("listing_id", id), zap.Error(err))
		}
		owner = nil
	}
	return s.sanitizer.Listing(ctx, l, owner)
}

func (in ListingInput) toListing(ownerID string) *domain.Listing {
	return &domain.Listing{
		OwnerID:     ownerID,
		Address:     strings.TrimSpace(in.Address),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		RentalPrice: in.RentalPrice,
		Bedrooms:    in.Bedrooms,
		Bathrooms:   in.Bathrooms,
		Sqm:         in.Sqm,
		City:        strings.TrimSpace(in.City),
		Country:     strings.TrimSpace(in.Country),
		HomeType:    in.HomeType,
		Features:    in.Features,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Availability: domain.Availability{
			ForSale: in.ForSale,
			ForRent: in.ForRent,
		},
		YearBuilt: in.YearBuilt,
	}
}

func validateFiles(files []UploadFile) error {
	for _, f := range files {
		if err := ValidateImage(f); err != nil {
			return err
		}
	}
	return nil
}

// Create stores a new listing with its gallery. Every file is uploaded as an
// independent attempt; if fewer than the configured minimum succeed, the
// uploaded files are removed and an UploadShortfallError is returned.
func (s *ListingService) Create(ctx context.Context, actor domain.Actor, in ListingInput, files []UploadFile) (*SafeListing, error) {
	ctx, span := tracer.Start(ctx, "ListingService.Create")
	defer span.End()

	if actor.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	s.logger.Info("Creating listing", zap.String("owner_id", actor.ID), zap.Int("images", len(files)))

	l := in.toListing(actor.ID)
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if len(files) < s.cfg.MinImages {
		return nil, domain.Invalid("at least %d image(s) required", s.cfg.MinImages)
	}
	if len(files) > s.cfg.MaxImages {
		return nil, domain.Invalid("at most %d images allowed", s.cfg.MaxImages)
	}
	if err := validateFiles(files); err != nil {
		return nil, err
	}

	urls := s.images.putAll(ctx, GalleryPrefix, actor.ID, files)
	span.SetAttributes(attribute.Int("upload.attempted", len(files)), attribute.Int("upload.succeeded", len(urls)))
	if len(urls) < s.cfg.MinImages {
		s.images.discard(ctx, urls)
		return nil, &domain.UploadShortfallError{Succeeded: len(urls), Attempted: len(files), Required: s.cfg.MinImages}
	}

	now := s.now().UTC()
	l.Images = urls
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := s.listings.Create(ctx, l); err != nil {
		s.images.discard(ctx, urls)
		s.logger.Error("Failed to store listing", zap.String("owner_id", actor.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: create listing: %v", domain.ErrStorage, err)
	}

	if err := s.accounts.AddReference(ctx, actor.ID, domain.RefPublished, l.ID); err != nil {
		s.logger.Error("Failed to add listing to owner's published list",
			zap.String("listing_id", l.ID), zap.String("owner_id", actor.ID), zap.Error(err))
	}
	s.publish(ctx, SubjectListingCreated, ListingEvent{ListingID: l.ID, OwnerID: actor.ID, ActorID: actor.ID})

	owner, err := s.accounts.FindByID(ctx, actor.ID)
	if err != nil {
		s.logger.Warn("Failed to load owner after create", zap.String("owner_id", actor.ID), zap.Error(err))
		owner = nil
	}
	if owner != nil && owner.Email != "" && s.notifier != nil {
		go s.notify(context.WithoutCancel(ctx), owner.Email, l.Address)
	}

	s.logger.Info("Listing created", zap.String("listing_id", l.ID), zap.Int("images", len(urls)))
	return s.sanitizer.Listing(ctx, l, owner)
}

func (s *ListingService) notify(ctx context.Context, to, address string) {
	if err := s.notifier.SendListingCreatedEmail(ctx, to, address); err != nil {
		s.logger.Warn("Failed to send listing created email", zap.Error(err))
	}
}

func (p ListingPatch) apply(l *domain.Listing) {
	if p.Address != nil {
		l.Address = strings.TrimSpace(*p.Address)
	}
	if p.Description != nil {
		l.Description = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.RentalPrice != nil {
		l.RentalPrice = *p.RentalPrice
	}
	if p.Bedrooms != nil {
		l.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		l.Bathrooms = *p.Bathrooms
	}
	if p.Sqm != nil {
		l.Sqm = *p.Sqm
	}
	if p.City != nil {
		l.City = strings.TrimSpace(*p.City)
	}
	if p.Country != nil {
		l.Country = strings.TrimSpace(*p.Country)
	}
	if p.HomeType != nil {
		l.HomeType = *p.HomeType
	}
	if p.Features != nil {
		l.Features = *p.Features
	}
	if p.Latitude != nil {
		l.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		l.Longitude = p.Longitude
	}
	if p.ForSale != nil {
		l.Availability.ForSale = *p.ForSale
	}
	if p.ForRent != nil {
		l.Availability.ForRent = *p.ForRent
	}
	if p.YearBuilt != nil {
		l.YearBuilt = *p.YearBuilt
	}
}

// Update applies patch to the listing behind h and appends any new images.
// Only the owner may update a listing.
func (s *ListingService) Update(ctx context.Context, actor domain.Actor, h string, patch ListingPatch, files []UploadFile) (*SafeListing, error) {
	ctx, span := tracer.Start(ctx, "ListingService.Update")
	defer span.End()

	id, err := decodeListingHandle(h)
	if err != nil {
		return nil, err
	}
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(l.OwnerID, false) {
		s.logger.Warn("Forbidden listing update",
			zap.String("listing_id", id), zap.String("owner_id", l.OwnerID), zap.String("actor_id", actor.ID))
		return nil, domain.ErrForbidden
	}

	patch.apply(l)
	if err := l.Validate(); err != nil {
		return nil, err
	}

	var added []string
	if len(files) > 0 {
		if len(l.Images)+len(files) > s.cfg.MaxImages {
			return nil, domain.Invalid("a listing holds at most %d images", s.cfg.MaxImages)
		}
		if err := validateFiles(files); err != nil {
			return nil, err
		}
		required := s.cfg.MinImages - len(l.Images)
		if required < 1 {
			required = 1
		}
		added = s.images.putAll(ctx, GalleryPrefix, l.OwnerID, files)
		if len(added) < required {
			s.images.discard(ctx, added)
			return nil, &domain.UploadShortfallError{Succeeded: len(added), Attempted: len(files), Required: required}
		}
		l.Images = append(l.Images, added...)
	}

	l.UpdatedAt = s.now().UTC()
	if err := s.listings.Update(ctx, l); err != nil {
		s.images.discard(ctx, added)
		s.logger.Error("Failed to update listing", zap.String("listing_id", id), zap.Error(err))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: update listing: %v", domain.ErrStorage, err)
	}
	s.invalidate(ctx, id)
	s.publish(ctx, SubjectListingUpdated, ListingEvent{ListingID: id, OwnerID: l.OwnerID, ActorID: actor.ID})

	s.logger.Info("Listing updated", zap.String("listing_id", id), zap.Int("images_added", len(added)))
	return s.sanitizer.Listing(ctx, l, nil)
}

// Delete removes the listing behind h. The owner or an administrator may
// delete. Gallery objects are removed first; a storage failure other than
// an already-missing object aborts before any database write.
func (s *ListingService) Delete(ctx context.Context, actor domain.Actor, h string) error {
	ctx, span := tracer.Start(ctx, "ListingService.Delete")
	defer span.End()

	id, err := decodeListingHandle(h)
	if err != nil {
		return err
	}
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(l.OwnerID, true) {
		s.logger.Warn("Forbidden listing delete",
			zap.String("listing_id", id), zap.String("owner_id", l.OwnerID), zap.String("actor_id", actor.ID))
		return domain.ErrForbidden
	}

	if err := s.images.removeAll(ctx, l.Images); err != nil {
		span.RecordError(err)
		s.logger.Error("Aborting listing delete, gallery removal failed", zap.String("listing_id", id), zap.Error(err))
		return err
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: delete listing: %v", domain.ErrStorage, err)
	}
	if _, err := s.accounts.PullListings(ctx, []string{id}); err != nil {
		s.logger.Error("Failed to pull deleted listing from accounts", zap.String("listing_id", id), zap.Error(err))
	}
	s.invalidate(ctx, id)
	s.publish(ctx, SubjectListingDeleted, ListingEvent{ListingID: id, OwnerID: l.OwnerID, ActorID: actor.ID})

	s.logger.Info("Listing deleted", zap.String("listing_id", id), zap.String("actor_id", actor.ID))
	return nil
}
