package mongodb

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

func TestBuildListingQuery_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildListingQuery(domain.ListingFilter{}))
}

func TestBuildListingQuery(t *testing.T) {
	q := buildListingQuery(domain.ListingFilter{
		ForSale:     true,
		Price:       &domain.PriceRange{Min: ptr(100.0), Max: ptr(500.0)},
		MinBedrooms: ptr(2),
		MinSqm:      ptr(40.0),
		MaxSqm:      ptr(90.0),
		Address:     "rua (nova)",
		City:        "Lisbon",
		HomeTypes:   []domain.HomeType{domain.HomeHouse, domain.HomeCondo},
		Features:    []domain.Feature{domain.FeaturePool},
	})

	assert.Equal(t, true, q["for_sale"])
	assert.NotContains(t, q, "for_rent")
	bounds := bson.M{"$gte": 100.0, "$lte": 500.0}
	assert.Equal(t, bson.A{bson.M{"price": bounds}, bson.M{"rental_price": bounds}}, q["$or"])
	assert.Equal(t, bson.M{"$gte": 2}, q["bedrooms"])
	assert.NotContains(t, q, "bathrooms")
	assert.Equal(t, bson.M{"$gte": 40.0, "$lte": 90.0}, q["sqm"])
	assert.Equal(t, bson.M{"$regex": `rua \(nova\)`, "$options": "i"}, q["address"])
	assert.Equal(t, bson.M{"$regex": "Lisbon", "$options": "i"}, q["city"])
	assert.Equal(t, bson.M{"$in": bson.A{"house", "condo"}}, q["home_type"])
	assert.Equal(t, bson.M{"$all": bson.A{"pool"}}, q["features"])
}

func TestBuildListingQuery_OpenPriceRange(t *testing.T) {
	q := buildListingQuery(domain.ListingFilter{Price: &domain.PriceRange{Min: ptr(1000.0)}})
	bounds := bson.M{"$gte": 1000.0}
	assert.Equal(t, bson.A{bson.M{"price": bounds}, bson.M{"rental_price": bounds}}, q["$or"])

	q = buildListingQuery(domain.ListingFilter{Price: &domain.PriceRange{}})
	assert.NotContains(t, q, "$or")
}

func TestSearchPipeline_PageAndSort(t *testing.T) {
	p := searchPipeline(domain.ListingFilter{}, domain.Page{Offset: 10, Limit: 5})
	require.Len(t, p, 2)

	facet := p[1].(bson.M)["$facet"].(bson.M)
	page := facet["page"].(bson.A)
	assert.Equal(t, bson.M{"$sort": searchSort}, page[0])
	assert.Equal(t, bson.M{"$skip": int64(10)}, page[1])
	assert.Equal(t, bson.M{"$limit": int64(5)}, page[2])
	assert.Contains(t, facet, "total")
	assert.Contains(t, facet, "areas")
	assert.Contains(t, facet, "cities")
}

func TestSearchFacets_ToDomain(t *testing.T) {
	id := primitive.NewObjectID()
	f := &searchFacets{
		Page:   []*listingDocument{{ID: id, Address: "Rua", Features: []string{"pool"}, CreatedAt: time.Now()}},
		Areas:  []facetValue{{Value: "Rua"}},
		Cities: []facetValue{{Value: "Lisbon"}},
	}
	f.Total = append(f.Total, struct {
		N int64 `bson:"n"`
	}{N: 7})

	res := f.toDomain()
	assert.EqualValues(t, 7, res.Total)
	require.Len(t, res.Listings, 1)
	assert.Equal(t, id.Hex(), res.Listings[0].ID)
	assert.Equal(t, []domain.Feature{domain.FeaturePool}, res.Listings[0].Features)
	assert.Equal(t, []string{"Rua"}, res.Areas)
	assert.Equal(t, []string{"Lisbon"}, res.Cities)

	empty := (&searchFacets{}).toDomain()
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.Listings)
	assert.NotNil(t, empty.Areas)
}

func TestListingDocumentRoundTrip(t *testing.T) {
	l := &domain.Listing{
		ID:           primitive.NewObjectID().Hex(),
		OwnerID:      "owner",
		Address:      "Rua",
		Country:      "Portugal",
		HomeType:     domain.HomeLand,
		Features:     []domain.Feature{domain.FeatureGarage},
		Latitude:     ptr(38.7),
		Availability: domain.Availability{ForRent: true},
	}
	doc, err := fromDomainListing(l)
	require.NoError(t, err)
	assert.NotNil(t, doc.Images, "images are always stored as an array")

	back := doc.toDomain()
	assert.Equal(t, l.ID, back.ID)
	assert.Equal(t, l.Features, back.Features)
	assert.Equal(t, l.Availability, back.Availability)

	_, err = fromDomainListing(&domain.Listing{ID: "not-hex"})
	assert.Error(t, err)
}

func TestObjectID(t *testing.T) {
	_, err := objectID("zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ids := objectIDs([]string{primitive.NewObjectID().Hex(), "bad", ""})
	assert.Len(t, ids, 1)
	assert.Nil(t, hexIDs(nil))
}

func TestAccountDocument_DefaultRole(t *testing.T) {
	a := (&accountDocument{ID: primitive.NewObjectID()}).toDomain()
	assert.Equal(t, domain.RoleUser, a.Role)
}
