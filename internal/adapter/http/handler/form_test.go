package handler

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"testing"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingPatch(t *testing.T) {
	p, err := listingPatch(url.Values{
		"address":  {"  Rua Augusta 10 "},
		"price":    {"250000"},
		"bedrooms": {"3"},
		"forRent":  {"false"},
		"homeType": {"apartment"},
		"features": {"pool,garden", "garage"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rua Augusta 10", *p.Address)
	assert.Equal(t, 250000.0, *p.Price)
	assert.Equal(t, 3, *p.Bedrooms)
	assert.False(t, *p.ForRent)
	assert.Nil(t, p.ForSale)
	assert.Nil(t, p.Sqm)
	assert.Equal(t, domain.HomeType("apartment"), *p.HomeType)
	assert.Equal(t, []domain.Feature{"pool", "garden", "garage"}, *p.Features)
}

func TestListingPatch_EmptyFeaturesClearsThem(t *testing.T) {
	p, err := listingPatch(url.Values{"features[]": {""}})
	require.NoError(t, err)
	require.NotNil(t, p.Features)
	assert.Empty(t, *p.Features)
}

func TestListingPatch_RejectsNonNumeric(t *testing.T) {
	for _, field := range []string{"price", "bedrooms", "sqm", "latitude", "yearBuilt", "forSale"} {
		_, err := listingPatch(url.Values{field: {"lots"}})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, field)
	}
}

func TestListingInput(t *testing.T) {
	in, err := listingInput(url.Values{"address": {"A"}, "country": {"PT"}, "forSale": {"true"}, "latitude": {"38.7"}})
	require.NoError(t, err)
	assert.Equal(t, "A", in.Address)
	assert.True(t, in.ForSale)
	assert.False(t, in.ForRent)
	assert.Equal(t, 38.7, *in.Latitude)
	assert.Nil(t, in.Longitude)
	assert.Nil(t, in.Features)
}

type part struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, fields map[string]string, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.name))
		hdr.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/houses/new", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseFormAndReadFiles(t *testing.T) {
	req := multipartRequest(t, map[string]string{"address": "Rua"},
		part{"images", "a.jpg", "image/jpeg", []byte{0xFF, 0xD8, 1}},
		part{"images", "b.png", "image/png", []byte{0x89, 0x50, 2}},
	)
	require.NoError(t, parseForm(httptest.NewRecorder(), req, 5))
	assert.Equal(t, "Rua", req.Form.Get("address"))

	files, err := readFiles(req, "images", 5)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, usecase.UploadFile{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte{0xFF, 0xD8, 1}}, files[0])

	_, err = readFiles(req, "images", 1)
	assert.ErrorIs(t, err, errPayloadTooLarge)

	none, err := readFiles(req, "profilePicture", 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseForm_Urlencoded(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/houses/x/update", bytes.NewBufferString("price=10"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, parseForm(httptest.NewRecorder(), req, 1))
	assert.Equal(t, "10", req.Form.Get("price"))
	files, err := readFiles(req, "images", 1)
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestParseForm_BodyTooLarge(t *testing.T) {
	big := make([]byte, usecase.MaxImageBytes+formOverhead+1)
	req := multipartRequest(t, nil, part{"images", "big.jpg", "image/jpeg", big})
	err := parseForm(httptest.NewRecorder(), req, 1)
	assert.ErrorIs(t, err, errPayloadTooLarge)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Invalid("bad"), http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", domain.ErrForbidden), http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrObjectNotFound, http.StatusNotFound},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("%w: too big", errPayloadTooLarge), http.StatusRequestEntityTooLarge},
		{fmt.Errorf("%w: bucket offline", domain.ErrStorage), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, msg := statusFor(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
		if tt.want == http.StatusInternalServerError {
			assert.Equal(t, "Internal server error", msg)
		}
	}
}
