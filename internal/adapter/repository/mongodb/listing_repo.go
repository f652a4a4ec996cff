package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ListingRepository implements domain.ListingRepository using MongoDB.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewListingRepository creates the repository and ensures its indexes.
func NewListingRepository(db *mongo.Database, log *logger.Logger) (*ListingRepository, error) {
	collection := db.Collection(listingCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "city", Value: 1}}},
		{Keys: bson.D{{Key: "for_sale", Value: 1}, {Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "for_rent", Value: 1}, {Key: "rental_price", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for listings collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for listings collection")
	}

	return &ListingRepository{
		collection: collection,
		logger:     log.Named("ListingRepository"),
	}, nil
}

// Create inserts a new listing and assigns its id.
func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	doc, err := fromDomainListing(listing)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	doc.Revision = 1

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert listing into DB", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}

	listing.ID = doc.ID.Hex()
	listing.CreatedAt = doc.CreatedAt
	listing.UpdatedAt = doc.UpdatedAt
	listing.Revision = doc.Revision
	r.logger.Info("Listing created successfully in DB", zap.String("listing_id", listing.ID))
	return nil
}

// Update replaces the mutable fields of a listing and bumps its revision.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	if listing.ID == "" {
		return errors.New("cannot update listing without ID")
	}
	doc, err := fromDomainListing(listing)
	if err != nil {
		return err
	}
	doc.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"address":      doc.Address,
			"description":  doc.Description,
			"price":        doc.Price,
			"rental_price": doc.RentalPrice,
			"bedrooms":     doc.Bedrooms,
			"bathrooms":    doc.Bathrooms,
			"sqm":          doc.Sqm,
			"city":         doc.City,
			"country":      doc.Country,
			"home_type":    doc.HomeType,
			"features":     doc.Features,
			"images":       doc.Images,
			"latitude":     doc.Latitude,
			"longitude":    doc.Longitude,
			"for_sale":     doc.ForSale,
			"for_rent":     doc.ForRent,
			"year_built":   doc.YearBuilt,
			"updated_at":   doc.UpdatedAt,
		},
		"$inc": bson.M{"revision": 1},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		r.logger.Error("Failed to update listing in DB", zap.Error(err), zap.String("listing_id", listing.ID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("Listing not found for update in DB", zap.String("listing_id", listing.ID))
		return domain.ErrNotFound
	}
	listing.UpdatedAt = doc.UpdatedAt
	listing.Revision++
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.Error("Failed to delete listing from DB", zap.Error(err), zap.String("listing_id", id))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("Listing deleted successfully from DB", zap.String("listing_id", id))
	return nil
}

// DeleteMany removes every listing in ids and reports how many existed.
func (r *ListingRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		r.logger.Error("Failed to delete listings from DB", zap.Error(err), zap.Int("count", len(oids)))
		return 0, fmt.Errorf("db delete many failed: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get listing by ID from DB", zap.Error(err), zap.String("listing_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": ownerID}, options.Find().SetSort(searchSort))
	if err != nil {
		r.logger.Error("Failed to find listings by owner from DB", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}
	out := make([]*domain.Listing, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

// Search runs the filter as a single faceted aggregation.
func (r *ListingRepository) Search(ctx context.Context, f domain.ListingFilter, page domain.Page) (*domain.SearchResult, error) {
	if page.Limit < 1 {
		return nil, fmt.Errorf("search page limit must be positive, got %d", page.Limit)
	}
	r.logger.Debug("Searching listings", zap.Any("filter", f), zap.Int("offset", page.Offset), zap.Int("limit", page.Limit))

	cursor, err := r.collection.Aggregate(ctx, searchPipeline(f, page))
	if err != nil {
		r.logger.Error("Failed to aggregate listing search", zap.Error(err))
		return nil, fmt.Errorf("db aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []searchFacets
	if err := cursor.All(ctx, &results); err != nil {
		r.logger.Error("Failed to decode listing search result", zap.Error(err))
		return nil, fmt.Errorf("db cursor all for aggregate failed: %w", err)
	}
	if len(results) == 0 {
		return (&searchFacets{}).toDomain(), nil
	}
	return results[0].toDomain(), nil
}
