package mongodb

import (
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	listingCollectionName    = "listings"
	accountCollectionName    = "users"
	imageProxyCollectionName = "image_proxies"
)

// listingDocument is the stored form of a listing.
type listingDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"owner_id"`
	Address     string             `bson:"address"`
	Description string             `bson:"description,omitempty"`
	Price       float64            `bson:"price"`
	RentalPrice float64            `bson:"rental_price"`
	Bedrooms    int                `bson:"bedrooms"`
	Bathrooms   int                `bson:"bathrooms"`
	Sqm         float64            `bson:"sqm"`
	City        string             `bson:"city,omitempty"`
	Country     string             `bson:"country"`
	HomeType    string             `bson:"home_type,omitempty"`
	Features    []string           `bson:"features,omitempty"`
	Images      []string           `bson:"images"`
	Latitude    *float64           `bson:"latitude,omitempty"`
	Longitude   *float64           `bson:"longitude,omitempty"`
	ForSale     bool               `bson:"for_sale"`
	ForRent     bool               `bson:"for_rent"`
	YearBuilt   int                `bson:"year_built,omitempty"`
	Revision    int64              `bson:"revision"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// accountDocument is the subset of the users collection this service reads
// and writes. Identity fields belong to the user service.
type accountDocument struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	Username       string               `bson:"username"`
	Email          string               `bson:"email"`
	Password       string               `bson:"password"`
	FirstName      string               `bson:"first_name,omitempty"`
	LastName       string               `bson:"last_name,omitempty"`
	Bio            string               `bson:"bio,omitempty"`
	Role           string               `bson:"role"`
	PhoneNumber    string               `bson:"phone_number,omitempty"`
	ProfilePicture string               `bson:"profile_picture,omitempty"`
	Published      []primitive.ObjectID `bson:"published,omitempty"`
	Favorites      []primitive.ObjectID `bson:"favorites,omitempty"`
	SavedSearches  []primitive.ObjectID `bson:"saved_searches,omitempty"`
	Revision       int64                `bson:"revision"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

type imageProxyDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ProxyID     string             `bson:"proxy_id"`
	OwnerID     string             `bson:"owner_id"`
	OriginalURL string             `bson:"original_url"`
	ContentType string             `bson:"content_type"`
	Version     int64              `bson:"version"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// referenceFields maps a reference set to its stored field name.
var referenceFields = map[domain.ReferenceSet]string{
	domain.RefPublished:     "published",
	domain.RefFavorites:     "favorites",
	domain.RefSavedSearches: "saved_searches",
}

// objectID parses a hex id. A malformed id can never match a stored
// document, so it is reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", domain.ErrNotFound, id)
	}
	return oid, nil
}

// objectIDs parses every well-formed id and drops the rest.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func hexIDs(oids []primitive.ObjectID) []string {
	if len(oids) == 0 {
		return nil
	}
	out := make([]string, len(oids))
	for i, oid := range oids {
		out[i] = oid.Hex()
	}
	return out
}

func fromDomainListing(l *domain.Listing) (*listingDocument, error) {
	doc := &listingDocument{
		OwnerID:     l.OwnerID,
		Address:     l.Address,
		Description: l.Description,
		Price:       l.Price,
		RentalPrice: l.RentalPrice,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		Sqm:         l.Sqm,
		City:        l.City,
		Country:     l.Country,
		HomeType:    string(l.HomeType),
		Images:      l.Images,
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
		ForSale:     l.Availability.ForSale,
		ForRent:     l.Availability.ForRent,
		YearBuilt:   l.YearBuilt,
		Revision:    l.Revision,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if doc.Images == nil {
		doc.Images = []string{}
	}
	for _, f := range l.Features {
		doc.Features = append(doc.Features, string(f))
	}
	if l.ID != "" {
		oid, err := primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid listing id %q: %w", l.ID, err)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d *listingDocument) toDomain() *domain.Listing {
	l := &domain.Listing{
		ID:          d.ID.Hex(),
		OwnerID:     d.OwnerID,
		Address:     d.Address,
		Description: d.Description,
		Price:       d.Price,
		RentalPrice: d.RentalPrice,
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		Sqm:         d.Sqm,
		City:        d.City,
		Country:     d.Country,
		HomeType:    domain.HomeType(d.HomeType),
		Images:      d.Images,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		Availability: domain.Availability{
			ForSale: d.ForSale,
			ForRent: d.ForRent,
		},
		YearBuilt: d.YearBuilt,
		Revision:  d.Revision,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, f := range d.Features {
		l.Features = append(l.Features, domain.Feature(f))
	}
	return l
}

func (d *accountDocument) toDomain() *domain.Account {
	role := domain.Role(d.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return &domain.Account{
		ID:             d.ID.Hex(),
		UserName:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.Password,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Bio:            d.Bio,
		Role:           role,
		PhoneNumber:    d.PhoneNumber,
		ProfilePicture: d.ProfilePicture,
		Published:      hexIDs(d.Published),
		Favorites:      hexIDs(d.Favorites),
		SavedSearches:  hexIDs(d.SavedSearches),
		Revision:       d.Revision,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (d *imageProxyDocument) toDomain() *domain.ImageProxy {
	return &domain.ImageProxy{
		ProxyID:     d.ProxyID,
		OwnerID:     d.OwnerID,
		OriginalURL: d.OriginalURL,
		ContentType: d.ContentType,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
