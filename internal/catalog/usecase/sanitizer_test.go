package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"john.doe@example.com": "jo***@example.com",
		"a@b.io":               "a***@b.io",
		"noatsign":             "no***",
		"":                     "",
		"jo***@example.com":    "jo***@example.com",
	}
	for in, want := range tests {
		got := MaskEmail(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, MaskEmail(got), "masking must be stable for %q", in)
	}
}

func TestMaskPhone(t *testing.T) {
	tests := map[string]string{
		"5551234567": "****4567",
		"+351912345": "****2345",
		"12":         "****12",
		"0":          "",
		"":           "",
		"****4567":   "****4567",
	}
	for in, want := range tests {
		got := MaskPhone(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, MaskPhone(got), "masking must be stable for %q", in)
	}
}

func TestSanitizer_Account(t *testing.T) {
	ctx := context.Background()
	acc := account("u1")
	acc.Published = []string{"l1"}
	acc.Favorites = []string{"l2"}
	acc.SavedSearches = []string{"l3"}
	h := newHarness(t, acc)

	t.Run("nil account", func(t *testing.T) {
		out, err := h.sanitizer.Account(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("strips secrets and encodes references", func(t *testing.T) {
		out, err := h.sanitizer.Account(ctx, acc)
		require.NoError(t, err)

		assert.Equal(t, handle.Encode("u1", handle.KindUser), out.ID)
		assert.Equal(t, "u1***@example.com", out.Email)
		assert.Equal(t, "****4567", out.PhoneNumber)
		assert.Equal(t, []Ref{{ID: handle.Encode("l1", handle.KindHouse)}}, out.Published)
		assert.Equal(t, []Ref{{ID: handle.Encode("l2", handle.KindHouse)}}, out.Favorites)
		assert.Equal(t, []Ref{{ID: handle.Encode("l3", handle.KindSearch)}}, out.SavedSearches)
		assert.Equal(t, "3/9/2024", out.CreatedAt)
		assert.Equal(t, testDefaultImg, out.ProfilePicture, "no mapping yet, raw url is kept")

		raw, err := json.Marshal(out)
		require.NoError(t, err)
		body := string(raw)
		assert.NotContains(t, body, "password")
		assert.NotContains(t, body, "hash")
		assert.NotContains(t, body, "role")
		assert.NotContains(t, body, "updatedAt", "zero timestamps are dropped")
		assert.NotContains(t, body, "bio", "empty fields are dropped")
	})

	t.Run("profile picture goes through the proxy", func(t *testing.T) {
		proxyURL, err := h.media.ResolveOrCreate(ctx, "u1", testDefaultImg)
		require.NoError(t, err)

		out, err := h.sanitizer.Account(ctx, acc)
		require.NoError(t, err)
		assert.Equal(t, proxyURL, out.ProfilePicture)
		assert.Equal(t, 1, h.proxies.count(), "sanitizing must not create mappings")
	})
}

func TestSanitizer_Listing(t *testing.T) {
	ctx := context.Background()
	owner := account("owner1")
	owner.Published = []string{"x"}
	owner.Favorites = []string{"y"}
	h := newHarness(t, owner)
	l := listingAt("owner1", "Rua Augusta 10", "Lisbon", 200000, time.Date(2024, 12, 25, 1, 0, 0, 0, time.UTC))
	l.ID = "l1"
	l.Revision = 7

	t.Run("bare owner reference", func(t *testing.T) {
		out, err := h.sanitizer.Listing(ctx, l, nil)
		require.NoError(t, err)
		raw, err := json.Marshal(out)
		require.NoError(t, err)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, handle.Encode("l1", handle.KindHouse), body["_id"])
		assert.Equal(t, handle.Encode("owner1", handle.KindUser), body["postedBy"])
		assert.Equal(t, "12/25/2024", body["createdAt"])
		assert.NotContains(t, body, "revision")
		assert.NotContains(t, body, "latitude")
	})

	t.Run("populated owner drops its reference lists", func(t *testing.T) {
		out, err := h.sanitizer.Listing(ctx, l, owner)
		require.NoError(t, err)
		raw, err := json.Marshal(out)
		require.NoError(t, err)

		var body struct {
			PostedBy map[string]interface{} `json:"postedBy"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, handle.Encode("owner1", handle.KindUser), body.PostedBy["id"])
		assert.Equal(t, "ow***@example.com", body.PostedBy["email"])
		assert.NotContains(t, body.PostedBy, "published")
		assert.NotContains(t, body.PostedBy, "favorites")
		assert.NotContains(t, body.PostedBy, "savedSearches")
		assert.NotContains(t, body.PostedBy, "role")
	})

	t.Run("nil listing", func(t *testing.T) {
		out, err := h.sanitizer.Listing(ctx, nil, owner)
		require.NoError(t, err)
		assert.Nil(t, out)
	})
}

func TestSanitizer_Populate_SkipsBadReferences(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var published []Ref
	for i := 0; i < 12; i++ {
		l := h.listings.seed(listingAt("u1", "Street", "Porto", float64(1000+i), base.Add(time.Duration(i)*time.Hour)))
		published = append(published, Ref{ID: handle.Encode(l.ID, handle.KindHouse)})
	}
	published = append(published[:3], append([]Ref{{ID: "house_%%%"}, {ID: handle.Encode("missing", handle.KindHouse)}}, published[3:]...)...)

	pop := h.sanitizer.Populate(ctx, &SafeAccount{
		Published: published,
		Favorites: []Ref{{ID: "garbage"}},
	})

	require.Len(t, pop.Published, 12)
	for i, got := range pop.Published {
		assert.Equal(t, float64(1000+i), got.Price, "population keeps reference order")
	}
	assert.Empty(t, pop.Favorites)
	assert.NotNil(t, pop.SavedSearches)
}

func TestSanitizer_Populate_ChecksHandleKind(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	l := h.listings.seed(listingAt("u1", "Rua", "Lisbon", 10, time.Now()))

	pop := h.sanitizer.Populate(ctx, &SafeAccount{
		Published:     []Ref{{ID: handle.Encode(l.ID, handle.KindSearch)}},
		Favorites:     []Ref{{ID: handle.Encode(l.ID, handle.KindUser)}, {ID: handle.Encode(l.ID, handle.KindHouse)}},
		SavedSearches: []Ref{{ID: handle.Encode(l.ID, handle.KindHouse)}, {ID: handle.Encode(l.ID, handle.KindSearch)}},
	})

	assert.Empty(t, pop.Published)
	require.Len(t, pop.Favorites, 1)
	assert.Equal(t, handle.Encode(l.ID, handle.KindHouse), pop.Favorites[0].ID)
	require.Len(t, pop.SavedSearches, 1)
}

func TestSanitizer_Populate_Nil(t *testing.T) {
	h := newHarness(t)
	pop := h.sanitizer.Populate(context.Background(), nil)
	assert.Empty(t, pop.Published)
	assert.NotNil(t, pop.Published)
}

func TestSanitizer_Summary_IsBounded(t *testing.T) {
	h := newHarness(t)
	l := listingAt("u1", "Rua", "Lisbon", 1, time.Now())
	l.ID = "l1"
	l.Description = "long text"
	l.Images = []string{"a", "b", "c"}
	l.Latitude = ptr(38.7)

	out := h.sanitizer.Summary(l)
	assert.Empty(t, out.Description)
	assert.Equal(t, []string{"a"}, out.Images)
	assert.Nil(t, out.Latitude)
	assert.Equal(t, handle.Encode("u1", handle.KindUser), out.PostedBy.Handle)
	assert.Nil(t, h.sanitizer.Summary(nil))
}

func ptr[T any](v T) *T { return &v }

var _ domain.ListingRepository = (*fakeListings)(nil)
