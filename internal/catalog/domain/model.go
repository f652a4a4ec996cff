package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Field bounds enforced on listings.
const (
	MaxAddressLength     = 200
	MaxDescriptionLength = 2000
	MaxPrice             = 999999999
	MaxSqm               = 100000
	MaxYearBuilt         = 999999999
	MaxListingImages     = 20
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller as established by the auth middleware.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanModify reports whether the actor may mutate a resource owned by ownerID.
// Admins may delete but ownership is always checked against the stored owner,
// never against anything the client sent.
func (a Actor) CanModify(ownerID string, allowAdmin bool) bool {
	if a.ID != "" && a.ID == ownerID {
		return true
	}
	return allowAdmin && a.IsAdmin()
}

type Availability struct {
	ForSale bool
	ForRent bool
}

type Listing struct {
	ID           string
	OwnerID      string
	Address      string
	Description  string
	Price        float64
	RentalPrice  float64
	Bedrooms     int
	Bathrooms    int
	Sqm          float64
	City         string
	Country      string
	HomeType     HomeType
	Features     []Feature
	Images       []string
	Latitude     *float64
	Longitude    *float64
	Availability Availability
	YearBuilt    int
	Revision     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the listing against the catalog's field constraints.
func (l *Listing) Validate() error {
	switch {
	case strings.TrimSpace(l.Address) == "":
		return Invalid("address is required")
	case utf8.RuneCountInString(l.Address) > MaxAddressLength:
		return Invalid("address must be at most %d characters", MaxAddressLength)
	case strings.TrimSpace(l.Country) == "":
		return Invalid("country is required")
	case utf8.RuneCountInString(l.Description) > MaxDescriptionLength:
		return Invalid("description must be at most %d characters", MaxDescriptionLength)
	case l.Price < 0 || l.Price > MaxPrice:
		return Invalid("price must be between 0 and %d", MaxPrice)
	case l.RentalPrice < 0 || l.RentalPrice > MaxPrice:
		return Invalid("rentalPrice must be between 0 and %d", MaxPrice)
	case l.Sqm < 0 || l.Sqm > MaxSqm:
		return Invalid("sqm must be between 0 and %d", MaxSqm)
	case l.YearBuilt < 0 || l.YearBuilt > MaxYearBuilt:
		return Invalid("yearBuilt must be between 0 and %d", MaxYearBuilt)
	case l.Bedrooms < 0 || l.Bathrooms < 0:
		return Invalid("bedrooms and bathrooms must not be negative")
	case len(l.Images) > MaxListingImages:
		return Invalid("a listing holds at most %d images", MaxListingImages)
	}
	if l.HomeType != "" && !l.HomeType.Valid() {
		return Invalid("unknown homeType %q", l.HomeType)
	}
	for _, f := range l.Features {
		if !f.Valid() {
			return Invalid("unknown feature %q", f)
		}
	}
	if l.Latitude != nil && (*l.Latitude < -90 || *l.Latitude > 90) {
		return Invalid("latitude out of range")
	}
	if l.Longitude != nil && (*l.Longitude < -180 || *l.Longitude > 180) {
		return Invalid("longitude out of range")
	}
	return nil
}

type Account struct {
	ID             string
	UserName       string
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Bio            string
	Role           Role
	PhoneNumber    string
	ProfilePicture string
	Published      []string
	Favorites      []string
	SavedSearches  []string
	Revision       int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProfilePatch carries the user-editable profile fields. Nil means unchanged.
type ProfilePatch struct {
	FirstName   *string
	LastName    *string
	Bio         *string
	PhoneNumber *string
}

func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Bio == nil && p.PhoneNumber == nil
}

// ReferenceSet names one of an account's listing reference lists.
type ReferenceSet string

const (
	RefPublished     ReferenceSet = "published"
	RefFavorites     ReferenceSet = "favorites"
	RefSavedSearches ReferenceSet = "savedSearches"
)

// ImageProxy binds a stable public id to the current location of an
// owner's profile picture.
type ImageProxy struct {
	ProxyID     string
	OwnerID     string
	OriginalURL string
	ContentType string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
