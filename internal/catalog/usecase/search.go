package usecase

import (
	"context"
	"fmt"
	"html"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultPageLimit = 5
	MaxPageLimit     = 50
)

// SearchParams is a parsed and sanitized search query.
type SearchParams struct {
	Page  int
	Limit int

	ForSale bool
	ForRent bool

	MinPrice *float64
	MaxPrice *float64
	Beds     *int
	Bath     *int
	SqmMin   *float64
	SqmMax   *float64

	Search  string
	Area    string
	City    string
	Country string

	HouseTypes []domain.HomeType
	Features   []domain.Feature
}

// Offset is the number of matches skipped before the requested page.
func (p SearchParams) Offset() int { return (p.Page - 1) * p.Limit }

// maxSearchOffset bounds Offset so it always fits a positive skip.
const maxSearchOffset = math.MaxInt32

func (p SearchParams) pageInRange() bool {
	return p.Limit > 0 && p.Page-1 <= maxSearchOffset/p.Limit
}

var stripPolicy = bluemonday.StrictPolicy()

func clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(v)))
}

// ParseSearchParams reads a search query. Every value is stripped of markup
// before use; malformed numbers and unknown vocabulary are rejected.
func ParseSearchParams(q url.Values) (SearchParams, error) {
	get := func(key string) string { return clean(q.Get(key)) }

	p := SearchParams{Page: 1, Limit: DefaultPageLimit}
	var err error

	if v := get("page"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			return p, domain.Invalid("page must be an integer")
		}
		if n > 1 {
			p.Page = n
		}
	}
	if v := get("limit"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			return p, domain.Invalid("limit must be an integer")
		}
		switch {
		case n > MaxPageLimit:
			p.Limit = MaxPageLimit
		case n >= 1:
			p.Limit = n
		}
	}
	if !p.pageInRange() {
		return p, domain.Invalid("page is out of range")
	}

	p.ForSale = get("forSale") == "true"
	p.ForRent = get("forRent") == "true"

	if p.MinPrice, err = optFloat(get("minPrice"), "minPrice"); err != nil {
		return p, err
	}
	if p.MaxPrice, err = optFloat(get("maxPrice"), "maxPrice"); err != nil {
		return p, err
	}
	if p.Beds, err = optInt(get("beds"), "beds"); err != nil {
		return p, err
	}
	if p.Bath, err = optInt(get("bath"), "bath"); err != nil {
		return p, err
	}
	if p.SqmMin, err = optFloat(get("squareAreaMin"), "squareAreaMin"); err != nil {
		return p, err
	}
	if p.SqmMax, err = optFloat(get("squareAreaMax"), "squareAreaMax"); err != nil {
		return p, err
	}

	p.Search = get("search")
	p.Area = get("area")
	p.City = get("city")
	p.Country = get("country")

	for _, v := range listValues(q["houseType"]) {
		h := domain.HomeType(strings.ToLower(v))
		if !h.Valid() {
			return p, domain.Invalid("unknown houseType %q", v)
		}
		p.HouseTypes = append(p.HouseTypes, h)
	}
	for _, v := range listValues(q["features"]) {
		f := domain.Feature(strings.ToLower(v))
		if !f.Valid() {
			return p, domain.Invalid("unknown feature %q", v)
		}
		p.Features = append(p.Features, f)
	}
	return p, nil
}

// listValues flattens repeated and comma-separated values.
func listValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if v := clean(part); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func optFloat(v, name string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, domain.Invalid("%s must be a number", name)
	}
	return &f, nil
}

func optInt(v, name string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, domain.Invalid("%s must be an integer", name)
	}
	return &n, nil
}

// BuildFilter translates parameters into a listing filter.
//
// forSale and forRent only restrict when they were the literal "true".
// The price bounds apply to the sale price or the rental price; the upper
// bound is dropped unless it is strictly above the lower one (an absent
// lower bound counts as 0). search and area both target the address and
// area, being evaluated last, wins when both are present.
func BuildFilter(p SearchParams) domain.ListingFilter {
	f := domain.ListingFilter{
		ForSale:      p.ForSale,
		ForRent:      p.ForRent,
		MinBedrooms:  p.Beds,
		MinBathrooms: p.Bath,
		MinSqm:       p.SqmMin,
		MaxSqm:       p.SqmMax,
		City:         p.City,
		Country:      p.Country,
		HomeTypes:    p.HouseTypes,
		Features:     p.Features,
	}

	if p.MinPrice != nil || p.MaxPrice != nil {
		r := &domain.PriceRange{Min: p.MinPrice}
		lower := 0.0
		if p.MinPrice != nil {
			lower = *p.MinPrice
		}
		if p.MaxPrice != nil && *p.MaxPrice > lower {
			r.Max = p.MaxPrice
		}
		if r.Min != nil || r.Max != nil {
			f.Price = r
		}
	}

	if p.Search != "" {
		f.Address = p.Search
	}
	if p.Area != "" {
		f.Address = p.Area
	}
	return f
}

// SearchEngine runs paginated listing searches.
type SearchEngine struct {
	listings  domain.ListingRepository
	sanitizer *Sanitizer
	logger    *logger.Logger
}

func NewSearchEngine(listings domain.ListingRepository, sanitizer *Sanitizer, log *logger.Logger) *SearchEngine {
	return &SearchEngine{
		listings:  listings,
		sanitizer: sanitizer,
		logger:    log.Named("SearchEngine"),
	}
}

// Search executes p and returns the response envelope. A query without
// matches yields the same envelope with zero counts and empty lists.
func (e *SearchEngine) Search(ctx context.Context, p SearchParams) (*SearchEnvelope, error) {
	ctx, span := tracer.Start(ctx, "SearchEngine.Search")
	defer span.End()

	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if !p.pageInRange() {
		return nil, domain.Invalid("page is out of range")
	}
	offset := p.Offset()
	span.SetAttributes(attribute.Int("search.page", p.Page), attribute.Int("search.limit", p.Limit))

	res, err := e.listings.Search(ctx, BuildFilter(p), domain.Page{Offset: offset, Limit: p.Limit})
	if err != nil {
		span.RecordError(err)
		e.logger.Error("Listing search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: search listings: %v", domain.ErrStorage, err)
	}

	env := &SearchEnvelope{
		TotalHouses:  res.Total,
		PageCount:    (res.Total + int64(p.Limit) - 1) / int64(p.Limit),
		Result:       make([]*SafeListing, 0, len(res.Listings)),
		UniqueAreas:  nonNil(res.Areas),
		UniqueCities: nonNil(res.Cities),
	}
	for _, l := range res.Listings {
		env.Result = append(env.Result, e.sanitizer.Summary(l))
	}
	if offset > 0 {
		env.Previous = &PageRef{Page: p.Page - 1}
	}
	if int64(offset+len(res.Listings)) < res.Total {
		env.Next = &PageRef{Page: p.Page + 1}
	}

	span.SetAttributes(attribute.Int64("search.total", res.Total))
	e.logger.Debug("Listing search served",
		zap.Int64("total", res.Total),
		zap.Int("page", p.Page),
		zap.Int("returned", len(env.Result)))
	return env, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
