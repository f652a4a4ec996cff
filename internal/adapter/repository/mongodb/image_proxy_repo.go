package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ImageProxyRepository stores one proxy mapping per owner.
type ImageProxyRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewImageProxyRepository(db *mongo.Database, log *logger.Logger) (*ImageProxyRepository, error) {
	collection := db.Collection(imageProxyCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "proxy_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Upsert relies on the owner_id index for one mapping per owner, so a
	// failure here is fatal.
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for image_proxies collection", zap.Error(err))
		return nil, fmt.Errorf("failed to create indexes for %s: %w", imageProxyCollectionName, err)
	}

	return &ImageProxyRepository{
		collection: collection,
		logger:     log.Named("ImageProxyRepository"),
	}, nil
}

// Upsert repoints the owner's mapping in one atomic step. newProxyID is only
// written when the mapping is created.
func (r *ImageProxyRepository) Upsert(ctx context.Context, ownerID, originalURL, contentType, newProxyID string) (*domain.ImageProxy, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"original_url": originalURL,
			"content_type": contentType,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"proxy_id":   newProxyID,
			"owner_id":   ownerID,
			"created_at": now,
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc imageProxyDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"owner_id": ownerID}, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent first upsert for the same owner won; the retry
		// matches its document.
		r.logger.Debug("Concurrent image proxy upsert, retrying", zap.String("owner_id", ownerID))
		err = r.collection.FindOneAndUpdate(ctx, bson.M{"owner_id": ownerID}, update, opts).Decode(&doc)
	}
	if err != nil {
		r.logger.Error("Failed to upsert image proxy", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, fmt.Errorf("db upsert failed: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ImageProxyRepository) findOne(ctx context.Context, filter bson.M) (*domain.ImageProxy, error) {
	var doc imageProxyDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ImageProxyRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.ImageProxy, error) {
	return r.findOne(ctx, bson.M{"owner_id": ownerID})
}

func (r *ImageProxyRepository) FindByProxyID(ctx context.Context, proxyID string) (*domain.ImageProxy, error) {
	return r.findOne(ctx, bson.M{"proxy_id": proxyID})
}

func (r *ImageProxyRepository) deleteOne(ctx context.Context, filter bson.M) error {
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to delete image proxy", zap.Error(err), zap.Any("filter", filter))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ImageProxyRepository) DeleteByProxyID(ctx context.Context, proxyID string) error {
	return r.deleteOne(ctx, bson.M{"proxy_id": proxyID})
}

func (r *ImageProxyRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	return r.deleteOne(ctx, bson.M{"owner_id": ownerID})
}

func (r *ImageProxyRepository) List(ctx context.Context) ([]*domain.ImageProxy, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*imageProxyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}
	out := make([]*domain.ImageProxy, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *ImageProxyRepository) DeleteByProxyIDs(ctx context.Context, proxyIDs []string) (int64, error) {
	if len(proxyIDs) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"proxy_id": bson.M{"$in": proxyIDs}})
	if err != nil {
		r.logger.Error("Failed to delete image proxies", zap.Error(err), zap.Int("count", len(proxyIDs)))
		return 0, fmt.Errorf("db delete many failed: %w", err)
	}
	return result.DeletedCount, nil
}
