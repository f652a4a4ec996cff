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

// AccountRepository implements domain.AccountRepository on the shared users
// collection.
type AccountRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewAccountRepository(db *mongo.Database, log *logger.Logger) (*AccountRepository, error) {
	collection := db.Collection(accountCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "published", Value: 1}}},
		{Keys: bson.D{{Key: "favorites", Value: 1}}},
		{Keys: bson.D{{Key: "saved_searches", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for users collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured reference indexes for users collection")
	}

	return &AccountRepository{
		collection: collection,
		logger:     log.Named("AccountRepository"),
	}, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc accountDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get account by ID from DB", zap.Error(err), zap.String("account_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateProfile sets the supplied profile fields and returns the updated
// account.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.PhoneNumber != nil {
		set["phone_number"] = *patch.PhoneNumber
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc accountDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid},
		bson.M{"$set": set, "$inc": bson.M{"revision": 1}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to update account profile", zap.Error(err), zap.String("account_id", id))
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) update(ctx context.Context, id string, update bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		r.logger.Error("Failed to update account in DB", zap.Error(err), zap.String("account_id", id))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) SetProfilePicture(ctx context.Context, id, url string) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{"profile_picture": url, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"revision": 1},
	})
}

func referenceField(set domain.ReferenceSet) (string, error) {
	field, ok := referenceFields[set]
	if !ok {
		return "", fmt.Errorf("unknown reference set %q", set)
	}
	return field, nil
}

// AddReference adds listingID to one reference set. Adding an id twice is a
// no-op.
func (r *AccountRepository) AddReference(ctx context.Context, id string, set domain.ReferenceSet, listingID string) error {
	field, err := referenceField(set)
	if err != nil {
		return err
	}
	lid, err := objectID(listingID)
	if err != nil {
		return err
	}
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{field: lid}})
}

func (r *AccountRepository) RemoveReference(ctx context.Context, id string, set domain.ReferenceSet, listingID string) error {
	field, err := referenceField(set)
	if err != nil {
		return err
	}
	lid, err := objectID(listingID)
	if err != nil {
		return err
	}
	return r.update(ctx, id, bson.M{"$pull": bson.M{field: lid}})
}

// PullListings removes the given listings from every reference set of every
// account and returns the number of accounts changed.
func (r *AccountRepository) PullListings(ctx context.Context, listingIDs []string) (int64, error) {
	oids := objectIDs(listingIDs)
	if len(oids) == 0 {
		return 0, nil
	}
	in := bson.M{"$in": oids}
	filter := bson.M{"$or": bson.A{
		bson.M{"published": in},
		bson.M{"favorites": in},
		bson.M{"saved_searches": in},
	}}
	update := bson.M{"$pull": bson.M{
		"published":      in,
		"favorites":      in,
		"saved_searches": in,
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to pull listings from accounts", zap.Error(err), zap.Int("listings", len(oids)))
		return 0, fmt.Errorf("db update many failed: %w", err)
	}
	r.logger.Info("Pulled listings from accounts",
		zap.Int("listings", len(oids)), zap.Int64("accounts_modified", result.ModifiedCount))
	return result.ModifiedCount, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.Error("Failed to delete account from DB", zap.Error(err), zap.String("account_id", id))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("Account deleted successfully from DB", zap.String("account_id", id))
	return nil
}

func (r *AccountRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row accountDocument
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("db decode failed: %w", err)
		}
		out[row.ID.Hex()] = struct{}{}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("db cursor failed: %w", err)
	}
	return out, nil
}
