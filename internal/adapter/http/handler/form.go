package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/usecase"
)

const (
	multipartMemory = 8 << 20
	formOverhead    = 1 << 20
)

// parseForm reads a multipart or urlencoded body of at most maxFiles
// images into r.Form.
func parseForm(w http.ResponseWriter, r *http.Request, maxFiles int) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*usecase.MaxImageBytes+formOverhead)
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", errPayloadTooLarge, tooLarge.Limit)
	}
	return domain.Invalid("malformed form: %v", err)
}

func readFiles(r *http.Request, field string, max int) ([]usecase.UploadFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) > max {
		return nil, fmt.Errorf("%w: you can upload a maximum of %d files", errPayloadTooLarge, max)
	}
	files := make([]usecase.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > usecase.MaxImageBytes {
			return nil, fmt.Errorf("%w: %s exceeds the %dMB limit", errPayloadTooLarge, fh.Filename, usecase.MaxImageBytes>>20)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		files = append(files, usecase.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

// formReader pulls typed optional values out of a form, remembering the
// first conversion failure.
type formReader struct {
	values url.Values
	err    error
}

func (f *formReader) raw(name string) (string, bool) {
	if _, ok := f.values[name]; !ok {
		return "", false
	}
	return strings.TrimSpace(f.values.Get(name)), true
}

func (f *formReader) fail(format string, args ...interface{}) {
	if f.err == nil {
		f.err = domain.Invalid(format, args...)
	}
}

func (f *formReader) str(name string) *string {
	v, ok := f.raw(name)
	if !ok {
		return nil
	}
	return &v
}

func (f *formReader) float(name string) *float64 {
	v, ok := f.raw(name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.fail("%s must be a number", name)
		return nil
	}
	return &n
}

func (f *formReader) int(name string) *int {
	v, ok := f.raw(name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f.fail("%s must be an integer", name)
		return nil
	}
	return &n
}

func (f *formReader) bool(name string) *bool {
	v, ok := f.raw(name)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		f.fail("%s must be true or false", name)
		return nil
	}
	return &b
}

// list accepts repeated keys, comma-separated values, or both.
func (f *formReader) list(name string) []string {
	raw, ok := f.values[name]
	if !ok {
		raw = f.values[name+"[]"]
	}
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (f *formReader) present(name string) bool {
	_, ok := f.values[name]
	if !ok {
		_, ok = f.values[name+"[]"]
	}
	return ok
}

// listingPatch reads every listing field present in values.
func listingPatch(values url.Values) (usecase.ListingPatch, error) {
	f := &formReader{values: values}
	p := usecase.ListingPatch{
		Address:     f.str("address"),
		Description: f.str("description"),
		Price:       f.float("price"),
		RentalPrice: f.float("rentalPrice"),
		Bedrooms:    f.int("bedrooms"),
		Bathrooms:   f.int("bathrooms"),
		Sqm:         f.float("sqm"),
		City:        f.str("city"),
		Country:     f.str("country"),
		Latitude:    f.float("latitude"),
		Longitude:   f.float("longitude"),
		ForSale:     f.bool("forSale"),
		ForRent:     f.bool("forRent"),
		YearBuilt:   f.int("yearBuilt"),
	}
	if v := f.str("homeType"); v != nil {
		ht := domain.HomeType(*v)
		p.HomeType = &ht
	}
	if f.present("features") {
		features := make([]domain.Feature, 0)
		for _, v := range f.list("features") {
			features = append(features, domain.Feature(v))
		}
		p.Features = &features
	}
	return p, f.err
}

func listingInput(values url.Values) (usecase.ListingInput, error) {
	p, err := listingPatch(values)
	if err != nil {
		return usecase.ListingInput{}, err
	}
	in := usecase.ListingInput{
		Address:     deref(p.Address),
		Description: deref(p.Description),
		Price:       deref(p.Price),
		RentalPrice: deref(p.RentalPrice),
		Bedrooms:    deref(p.Bedrooms),
		Bathrooms:   deref(p.Bathrooms),
		Sqm:         deref(p.Sqm),
		City:        deref(p.City),
		Country:     deref(p.Country),
		HomeType:    deref(p.HomeType),
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		ForSale:     deref(p.ForSale),
		ForRent:     deref(p.ForRent),
		YearBuilt:   deref(p.YearBuilt),
	}
	if p.Features != nil {
		in.Features = *p.Features
	}
	return in, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
