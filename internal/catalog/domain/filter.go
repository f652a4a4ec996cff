package domain

import "strings"

// PriceRange matches a listing when either its sale price or its rental
// price falls inside the bounds. Both bounds are inclusive.
type PriceRange struct {
	Min *float64
	Max *float64
}

func (r PriceRange) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// ListingFilter is the storage-independent form of a listing search. Every
// field is optional; set fields are combined with AND.
type ListingFilter struct {
	ForSale bool
	ForRent bool

	Price *PriceRange

	MinBedrooms  *int
	MinBathrooms *int
	MinSqm       *float64
	MaxSqm       *float64

	// Substring matches, case-insensitive.
	Address string
	City    string
	Country string

	HomeTypes []HomeType
	Features  []Feature
}

// Matches evaluates the filter in memory. The Mongo filter builder encodes
// the same semantics.
func (f ListingFilter) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if f.ForSale && !l.Availability.ForSale {
		return false
	}
	if f.ForRent && !l.Availability.ForRent {
		return false
	}
	if f.Price != nil && !f.Price.contains(l.Price) && !f.Price.contains(l.RentalPrice) {
		return false
	}
	if f.MinBedrooms != nil && l.Bedrooms < *f.MinBedrooms {
		return false
	}
	if f.MinBathrooms != nil && l.Bathrooms < *f.MinBathrooms {
		return false
	}
	if f.MinSqm != nil && l.Sqm < *f.MinSqm {
		return false
	}
	if f.MaxSqm != nil && l.Sqm > *f.MaxSqm {
		return false
	}
	if !containsFold(l.Address, f.Address) || !containsFold(l.City, f.City) || !containsFold(l.Country, f.Country) {
		return false
	}
	if len(f.HomeTypes) > 0 {
		found := false
		for _, h := range f.HomeTypes {
			if l.HomeType == h {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, want := range f.Features {
		found := false
		for _, have := range l.Features {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Page selects a window of a result set.
type Page struct {
	Offset int
	Limit  int
}

// SearchResult is one page of matches plus facets over the whole match set.
type SearchResult struct {
	Listings []*Listing
	Total    int64
	Areas    []string
	Cities   []string
}
