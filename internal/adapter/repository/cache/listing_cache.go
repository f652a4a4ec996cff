package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const listingKeyPrefix = "listing:"

// ListingCache is a Redis-backed domain.ListingCache.
type ListingCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *logger.Logger
}

func NewListingCache(client redis.UniversalClient, ttl time.Duration, log *logger.Logger) *ListingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ListingCache{client: client, ttl: ttl, logger: log.Named("ListingCache")}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func listingKey(id string) string { return listingKeyPrefix + id }

// cachedListing mirrors domain.Listing with stable JSON names.
type cachedListing struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"ownerId"`
	Address     string           `json:"address"`
	Description string           `json:"description,omitempty"`
	Price       float64          `json:"price"`
	RentalPrice float64          `json:"rentalPrice"`
	Bedrooms    int              `json:"bedrooms"`
	Bathrooms   int              `json:"bathrooms"`
	Sqm         float64          `json:"sqm"`
	City        string           `json:"city,omitempty"`
	Country     string           `json:"country"`
	HomeType    domain.HomeType  `json:"homeType,omitempty"`
	Features    []domain.Feature `json:"features,omitempty"`
	Images      []string         `json:"images"`
	Latitude    *float64         `json:"latitude,omitempty"`
	Longitude   *float64         `json:"longitude,omitempty"`
	ForSale     bool             `json:"forSale"`
	ForRent     bool             `json:"forRent"`
	YearBuilt   int              `json:"yearBuilt,omitempty"`
	Revision    int64            `json:"revision"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func toCached(l *domain.Listing) cachedListing {
	return cachedListing{
		ID: l.ID, OwnerID: l.OwnerID, Address: l.Address, Description: l.Description,
		Price: l.Price, RentalPrice: l.RentalPrice, Bedrooms: l.Bedrooms, Bathrooms: l.Bathrooms,
		Sqm: l.Sqm, City: l.City, Country: l.Country, HomeType: l.HomeType, Features: l.Features,
		Images: l.Images, Latitude: l.Latitude, Longitude: l.Longitude,
		ForSale: l.Availability.ForSale, ForRent: l.Availability.ForRent,
		YearBuilt: l.YearBuilt, Revision: l.Revision, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
}

func (c cachedListing) toDomain() *domain.Listing {
	return &domain.Listing{
		ID: c.ID, OwnerID: c.OwnerID, Address: c.Address, Description: c.Description,
		Price: c.Price, RentalPrice: c.RentalPrice, Bedrooms: c.Bedrooms, Bathrooms: c.Bathrooms,
		Sqm: c.Sqm, City: c.City, Country: c.Country, HomeType: c.HomeType, Features: c.Features,
		Images: c.Images, Latitude: c.Latitude, Longitude: c.Longitude,
		Availability: domain.Availability{ForSale: c.ForSale, ForRent: c.ForRent},
		YearBuilt:    c.YearBuilt, Revision: c.Revision, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func (c *ListingCache) Get(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, listingKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var cached cachedListing
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("listing_id", id), zap.Error(err))
		_ = c.client.Del(ctx, listingKey(id)).Err()
		return nil, domain.ErrCacheMiss
	}
	return cached.toDomain(), nil
}

func (c *ListingCache) Set(ctx context.Context, l *domain.Listing) error {
	data, err := json.Marshal(toCached(l))
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	return c.client.Set(ctx, listingKey(l.ID), data, c.ttl).Err()
}

func (c *ListingCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, listingKey(id)).Err()
}
