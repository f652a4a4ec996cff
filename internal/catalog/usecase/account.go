package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/handle"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"go.uber.org/zap"
)

// AccountService implements the authenticated account workflows.
type AccountService struct {
	accounts  domain.AccountRepository
	listings  domain.ListingRepository
	cache     domain.ListingCache
	media     *MediaProxy
	images    *imageUploader
	publisher EventPublisher
	sanitizer *Sanitizer
	logger    *logger.Logger
}

func NewAccountService(
	accounts domain.AccountRepository,
	listings domain.ListingRepository,
	cache domain.ListingCache,
	media *MediaProxy,
	blobs BlobStore,
	transformer ImageTransformer,
	publisher EventPublisher,
	sanitizer *Sanitizer,
	log *logger.Logger,
) *AccountService {
	named := log.Named("AccountService")
	return &AccountService{
		accounts: accounts,
		listings: listings,
		cache:    cache,
		media:    media,
		images: &imageUploader{
			blobs:       blobs,
			transformer: transformer,
			logger:      named,
			now:         time.Now,
			parallelism: 4,
		},
		publisher: publisher,
		sanitizer: sanitizer,
		logger:    named,
	}
}

func (s *AccountService) find(ctx context.Context, id string) (*domain.Account, error) {
	if id == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.accounts.FindByID(ctx, id)
}

// Profile returns the caller's sanitized account with every reference list
// resolved to listings.
func (s *AccountService) Profile(ctx context.Context, actor domain.Actor) (*ProfileView, error) {
	ctx, span := tracer.Start(ctx, "AccountService.Profile")
	defer span.End()

	acc, err := s.find(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	safe, err := s.sanitizer.Account(ctx, acc)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: safe, Population: *s.sanitizer.Populate(ctx, safe)}, nil
}

// UpdateProfile changes the caller's editable profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*SafeAccount, error) {
	if actor.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	if patch.Empty() {
		return nil, domain.Invalid("no profile fields supplied")
	}
	if patch.PhoneNumber != nil {
		phone := strings.TrimSpace(*patch.PhoneNumber)
		for _, r := range phone {
			if !unicode.IsDigit(r) && r != '+' {
				return nil, domain.Invalid("phoneNumber must contain digits only")
			}
		}
		patch.PhoneNumber = &phone
	}

	acc, err := s.accounts.UpdateProfile(ctx, actor.ID, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", zap.String("account_id", actor.ID))
	return s.sanitizer.Account(ctx, acc)
}

// UploadProfilePicture stores a new picture, repoints the caller's proxy
// mapping at it and returns the public link. The previous stored picture is
// removed afterwards.
func (s *AccountService) UploadProfilePicture(ctx context.Context, actor domain.Actor, f UploadFile) (string, error) {
	ctx, span := tracer.Start(ctx, "AccountService.UploadProfilePicture")
	defer span.End()

	acc, err := s.find(ctx, actor.ID)
	if err != nil {
		return "", err
	}
	if err := ValidateImage(f); err != nil {
		return "", err
	}

	url, err := s.images.put(ctx, ProfilePicturePrefix, acc.ID, f)
	if err != nil {
		return "", err
	}
	proxyURL, err := s.repoint(ctx, acc, url)
	if err != nil {
		s.images.discard(ctx, []string{url})
		return "", err
	}
	s.logger.Info("Profile picture uploaded", zap.String("account_id", acc.ID))
	return proxyURL, nil
}

// ResetProfilePicture points the caller back at the default placeholder.
func (s *AccountService) ResetProfilePicture(ctx context.Context, actor domain.Actor) (string, error) {
	acc, err := s.find(ctx, actor.ID)
	if err != nil {
		return "", err
	}
	return s.repoint(ctx, acc, s.media.DefaultImageURL())
}

// repoint records url on the account and then moves the proxy mapping to it.
// The mapping is only touched once the account holds the new picture; if the
// mapping update fails the account is restored to its previous picture.
func (s *AccountService) repoint(ctx context.Context, acc *domain.Account, url string) (string, error) {
	if err := s.accounts.SetProfilePicture(ctx, acc.ID, url); err != nil {
		return "", fmt.Errorf("%w: set profile picture: %v", domain.ErrStorage, err)
	}
	proxyURL, err := s.media.ResolveOrCreate(ctx, acc.ID, url)
	if err != nil {
		if errRestore := s.accounts.SetProfilePicture(ctx, acc.ID, acc.ProfilePicture); errRestore != nil {
			s.logger.Error("Failed to restore previous profile picture",
				zap.String("account_id", acc.ID), zap.Error(errRestore))
		}
		return "", err
	}
	if old := acc.ProfilePicture; old != "" && old != url {
		s.images.discard(ctx, []string{old})
	}
	return proxyURL, nil
}

// AddFavorite adds the listing behind h to the caller's favorites.
func (s *AccountService) AddFavorite(ctx context.Context, actor domain.Actor, h string) error {
	if actor.ID == "" {
		return domain.ErrUnauthorized
	}
	id, err := decodeListingHandle(h)
	if err != nil {
		return err
	}
	if _, err := s.listings.FindByID(ctx, id); err != nil {
		return err
	}
	return s.accounts.AddReference(ctx, actor.ID, domain.RefFavorites, id)
}

// RemoveFavorite removes the listing behind h from the caller's favorites.
func (s *AccountService) RemoveFavorite(ctx context.Context, actor domain.Actor, h string) error {
	if actor.ID == "" {
		return domain.ErrUnauthorized
	}
	id, err := decodeListingHandle(h)
	if err != nil {
		return err
	}
	return s.accounts.RemoveReference(ctx, actor.ID, domain.RefFavorites, id)
}

// DeleteByHandle deletes the account behind a user handle.
func (s *AccountService) DeleteByHandle(ctx context.Context, actor domain.Actor, h string) error {
	id, err := handle.DecodeKind(h, handle.KindUser)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return s.Delete(ctx, actor, id)
}

// Delete removes an account together with every listing it posted. Stored
// images go first, so a storage failure leaves the database untouched. The
// removed listings are then pulled from every other account.
func (s *AccountService) Delete(ctx context.Context, actor domain.Actor, accountID string) error {
	ctx, span := tracer.Start(ctx, "AccountService.Delete")
	defer span.End()

	if actor.ID == "" {
		return domain.ErrUnauthorized
	}
	if !actor.CanModify(accountID, true) {
		return domain.ErrForbidden
	}
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	posted, err := s.listings.FindByOwner(ctx, accountID)
	if err != nil {
		return fmt.Errorf("%w: list owner listings: %v", domain.ErrStorage, err)
	}

	var stored []string
	ids := make([]string, 0, len(posted))
	for _, l := range posted {
		stored = append(stored, l.Images...)
		ids = append(ids, l.ID)
	}
	if acc.ProfilePicture != "" && acc.ProfilePicture != s.media.DefaultImageURL() {
		stored = append(stored, acc.ProfilePicture)
	}
	if err := s.images.removeAll(ctx, stored); err != nil {
		span.RecordError(err)
		s.logger.Error("Aborting account delete, image removal failed", zap.String("account_id", accountID), zap.Error(err))
		return err
	}

	if len(ids) > 0 {
		if _, err := s.listings.DeleteMany(ctx, ids); err != nil {
			return fmt.Errorf("%w: delete listings: %v", domain.ErrStorage, err)
		}
		if _, err := s.accounts.PullListings(ctx, ids); err != nil {
			s.logger.Error("Failed to pull deleted listings from accounts", zap.Strings("listing_ids", ids), zap.Error(err))
		}
		if s.cache != nil {
			for _, id := range ids {
				if err := s.cache.Delete(ctx, id); err != nil {
					s.logger.Warn("Listing cache invalidation failed", zap.String("listing_id", id), zap.Error(err))
				}
			}
		}
	}

	if err := s.media.Forget(ctx, accountID); err != nil {
		s.logger.Warn("Failed to delete image proxy mapping", zap.String("account_id", accountID), zap.Error(err))
	}
	if err := s.accounts.Delete(ctx, accountID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: delete account: %v", domain.ErrStorage, err)
	}

	if s.publisher != nil {
		evt := AccountDeletedEvent{AccountID: accountID, ActorID: actor.ID, RemovedListings: ids}
		if err := s.publisher.Publish(ctx, SubjectAccountDeleted, evt); err != nil {
			s.logger.Warn("Failed to publish account deleted event", zap.Error(err))
		}
	}
	s.logger.Info("Account deleted",
		zap.String("account_id", accountID),
		zap.String("actor_id", actor.ID),
		zap.Int("listings_removed", len(ids)))
	return nil
}
