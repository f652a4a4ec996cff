package usecase

import (
	"encoding/json"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
)

// DisplayDateLayout is the timestamp format of every sanitized response.
const DisplayDateLayout = "1/2/2006"

// Ref is an encoded reference to another resource.
type Ref struct {
	ID string `json:"_id"`
}

type SafeAvailability struct {
	ForSale bool `json:"forSale"`
	ForRent bool `json:"forRent"`
}

// PostedBy is either a bare owner handle or a sanitized owner object.
type PostedBy struct {
	Handle string
	Owner  *SafeOwner
}

func (p PostedBy) MarshalJSON() ([]byte, error) {
	if p.Owner != nil {
		return json.Marshal(p.Owner)
	}
	return json.Marshal(p.Handle)
}

type SafeListing struct {
	ID           string           `json:"_id"`
	Address      string           `json:"address,omitempty"`
	Description  string           `json:"description,omitempty"`
	Price        float64          `json:"price"`
	RentalPrice  float64          `json:"rentalPrice"`
	Bedrooms     int              `json:"bedrooms"`
	Bathrooms    int              `json:"bathrooms"`
	Sqm          float64          `json:"sqm"`
	City         string           `json:"city,omitempty"`
	Country      string           `json:"country,omitempty"`
	HomeType     domain.HomeType  `json:"homeType,omitempty"`
	Features     []domain.Feature `json:"features,omitempty"`
	Images       []string         `json:"images,omitempty"`
	Latitude     *float64         `json:"latitude,omitempty"`
	Longitude    *float64         `json:"longitude,omitempty"`
	Availability SafeAvailability `json:"availability"`
	YearBuilt    int              `json:"yearBuilt,omitempty"`
	PostedBy     *PostedBy        `json:"postedBy,omitempty"`
	CreatedAt    string           `json:"createdAt,omitempty"`
	UpdatedAt    string           `json:"updatedAt,omitempty"`
}

// SafeOwner is a sanitized account embedded in a listing. It never carries
// the owner's reference lists.
type SafeOwner struct {
	ID             string `json:"id"`
	UserName       string `json:"userName,omitempty"`
	Email          string `json:"email,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Bio            string `json:"bio,omitempty"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

type SafeAccount struct {
	ID             string `json:"_id"`
	UserName       string `json:"userName,omitempty"`
	Email          string `json:"email,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Bio            string `json:"bio,omitempty"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Published      []Ref  `json:"published,omitempty"`
	Favorites      []Ref  `json:"favorites,omitempty"`
	SavedSearches  []Ref  `json:"savedSearches,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// Population holds the listings an account's reference lists point at.
type Population struct {
	Published     []*SafeListing `json:"published"`
	Favorites     []*SafeListing `json:"favorites"`
	SavedSearches []*SafeListing `json:"savedSearches"`
}

// ProfileView is the authenticated profile response.
type ProfileView struct {
	User *SafeAccount `json:"user"`
	Population
}

type PageRef struct {
	Page int `json:"page"`
}

// SearchEnvelope is returned for every search, including one without matches.
type SearchEnvelope struct {
	TotalHouses  int64          `json:"totalHouses"`
	PageCount    int64          `json:"pageCount"`
	Result       []*SafeListing `json:"result"`
	UniqueAreas  []string       `json:"uniqueAreas"`
	UniqueCities []string       `json:"uniqueCities"`
	Previous     *PageRef       `json:"previous,omitempty"`
	Next         *PageRef       `json:"next,omitempty"`
}
