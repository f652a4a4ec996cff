package mongodb

import (
	"regexp"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"go.mongodb.org/mongo-driver/bson"
)

// containsPattern is a case-insensitive substring match on literal text.
func containsPattern(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

func priceBounds(r *domain.PriceRange) bson.M {
	b := bson.M{}
	if r.Min != nil {
		b["$gte"] = *r.Min
	}
	if r.Max != nil {
		b["$lte"] = *r.Max
	}
	return b
}

// buildListingQuery encodes a ListingFilter as a Mongo query. It must agree
// with domain.ListingFilter.Matches.
func buildListingQuery(f domain.ListingFilter) bson.M {
	q := bson.M{}

	if f.ForSale {
		q["for_sale"] = true
	}
	if f.ForRent {
		q["for_rent"] = true
	}

	if f.Price != nil && (f.Price.Min != nil || f.Price.Max != nil) {
		bounds := priceBounds(f.Price)
		q["$or"] = bson.A{
			bson.M{"price": bounds},
			bson.M{"rental_price": bounds},
		}
	}

	if f.MinBedrooms != nil {
		q["bedrooms"] = bson.M{"$gte": *f.MinBedrooms}
	}
	if f.MinBathrooms != nil {
		q["bathrooms"] = bson.M{"$gte": *f.MinBathrooms}
	}
	if f.MinSqm != nil || f.MaxSqm != nil {
		sqm := bson.M{}
		if f.MinSqm != nil {
			sqm["$gte"] = *f.MinSqm
		}
		if f.MaxSqm != nil {
			sqm["$lte"] = *f.MaxSqm
		}
		q["sqm"] = sqm
	}

	if f.Address != "" {
		q["address"] = containsPattern(f.Address)
	}
	if f.City != "" {
		q["city"] = containsPattern(f.City)
	}
	if f.Country != "" {
		q["country"] = containsPattern(f.Country)
	}

	if len(f.HomeTypes) > 0 {
		types := make(bson.A, 0, len(f.HomeTypes))
		for _, h := range f.HomeTypes {
			types = append(types, string(h))
		}
		q["home_type"] = bson.M{"$in": types}
	}
	if len(f.Features) > 0 {
		features := make(bson.A, 0, len(f.Features))
		for _, ft := range f.Features {
			features = append(features, string(ft))
		}
		q["features"] = bson.M{"$all": features}
	}
	return q
}

// searchSort orders newest first; _id breaks ties so pages never overlap.
var searchSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// searchPipeline returns one page plus the match count and the area and
// city facets in a single round trip.
func searchPipeline(f domain.ListingFilter, page domain.Page) bson.A {
	return bson.A{
		bson.M{"$match": buildListingQuery(f)},
		bson.M{"$facet": bson.M{
			"page": bson.A{
				bson.M{"$sort": searchSort},
				bson.M{"$skip": int64(page.Offset)},
				bson.M{"$limit": int64(page.Limit)},
			},
			"total": bson.A{
				bson.M{"$count": "n"},
			},
			"areas": bson.A{
				bson.M{"$match": bson.M{"address": bson.M{"$nin": bson.A{nil, ""}}}},
				bson.M{"$group": bson.M{"_id": "$address"}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
			"cities": bson.A{
				bson.M{"$match": bson.M{"city": bson.M{"$nin": bson.A{nil, ""}}}},
				bson.M{"$group": bson.M{"_id": "$city"}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
		}},
	}
}

type facetValue struct {
	Value string `bson:"_id"`
}

type searchFacets struct {
	Page  []*listingDocument `bson:"page"`
	Total []struct {
		N int64 `bson:"n"`
	} `bson:"total"`
	Areas  []facetValue `bson:"areas"`
	Cities []facetValue `bson:"cities"`
}

func (s *searchFacets) toDomain() *domain.SearchResult {
	res := &domain.SearchResult{
		Listings: make([]*domain.Listing, 0, len(s.Page)),
		Areas:    make([]string, 0, len(s.Areas)),
		Cities:   make([]string, 0, len(s.Cities)),
	}
	for _, d := range s.Page {
		res.Listings = append(res.Listings, d.toDomain())
	}
	if len(s.Total) > 0 {
		res.Total = s.Total[0].N
	}
	for _, a := range s.Areas {
		res.Areas = append(res.Areas, a.Value)
	}
	for _, c := range s.Cities {
		res.Cities = append(res.Cities, c.Value)
	}
	return res
}
