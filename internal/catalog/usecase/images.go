package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"regexp"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MaxImageBytes     = 5 << 20
	MaxImageDimension = 800
	maxBaseNameLength = 100

	ProfilePicturePrefix = "profile_picture"
	GalleryPrefix        = "house_images"
)

// UploadFile is one image received from a client.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

var imageSignatures = map[string][]byte{
	"image/jpeg": {0xFF, 0xD8},
	"image/png":  {0x89, 0x50},
	"image/gif":  {0x47, 0x49},
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// ValidateImage checks the declared type against the allow-list, the size
// cap and the file's leading bytes.
func ValidateImage(f UploadFile) error {
	sig, ok := imageSignatures[f.ContentType]
	if !ok {
		return domain.Invalid("%s: only JPEG, PNG and GIF images are allowed", f.Name)
	}
	if len(f.Data) == 0 {
		return domain.Invalid("%s: file is empty", f.Name)
	}
	if len(f.Data) > MaxImageBytes {
		return domain.Invalid("%s: file exceeds %d bytes", f.Name, MaxImageBytes)
	}
	if !bytes.HasPrefix(f.Data, sig) {
		return domain.Invalid("%s: file content does not match %s", f.Name, f.ContentType)
	}
	return nil
}

// ImageTransformer resizes and re-encodes uploaded images.
type ImageTransformer interface {
	Transform(data []byte, contentType string) ([]byte, error)
}

// FitTransformer scales images down to fit a bounding box, never enlarging
// them, and re-encodes in the original format.
type FitTransformer struct {
	MaxWidth  int
	MaxHeight int
}

func NewFitTransformer() *FitTransformer {
	return &FitTransformer{MaxWidth: MaxImageDimension, MaxHeight: MaxImageDimension}
}

func (t *FitTransformer) Transform(data []byte, contentType string) ([]byte, error) {
	var format imaging.Format
	switch contentType {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	case "image/gif":
		format = imaging.GIF
	default:
		return nil, domain.Invalid("unsupported image type %s", contentType)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.Invalid("image could not be decoded: %v", err)
	}

	var out image.Image = img
	b := img.Bounds()
	if b.Dx() > t.MaxWidth || b.Dy() > t.MaxHeight {
		out = imaging.Fit(img, t.MaxWidth, t.MaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeFileName reduces a client file name to a safe object-name stem.
func SanitizeFileName(name string) string {
	stem := filepath.Base(name)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	stem = unsafeNameChars.ReplaceAllString(stem, "_")
	if len(stem) > maxBaseNameLength {
		stem = stem[:maxBaseNameLength]
	}
	if stem == "" || stem == "_" {
		stem = "image"
	}
	return stem
}

// ObjectKey builds "{prefix}/{owner}/{stem}-{uuid}-{unixMillis}{ext}".
func ObjectKey(prefix, ownerID, fileName, contentType string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s-%s-%d%s",
		prefix, ownerID, SanitizeFileName(fileName), uuid.NewString(), now.UnixMilli(), imageExtensions[contentType])
}

// imageUploader stores validated images and removes stored ones.
type imageUploader struct {
	blobs       BlobStore
	transformer ImageTransformer
	logger      *logger.Logger
	now         func() time.Time
	parallelism int
}

// put transforms one image and stores it under prefix.
func (u *imageUploader) put(ctx context.Context, prefix, ownerID string, f UploadFile) (string, error) {
	data, err := u.transformer.Transform(f.Data, f.ContentType)
	if err != nil {
		return "", err
	}
	key := ObjectKey(prefix, ownerID, f.Name, f.ContentType, u.now())
	url, err := u.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), f.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", domain.ErrStorage, key, err)
	}
	return url, nil
}

// putAll uploads every file independently and returns the URLs of the ones
// that succeeded, in input order.
func (u *imageUploader) putAll(ctx context.Context, prefix, ownerID string, files []UploadFile) []string {
	results := make([]string, len(files))
	var g errgroup.Group
	g.SetLimit(u.parallelism)
	for i, f := range files {
		g.Go(func() error {
			url, err := u.put(ctx, prefix, ownerID, f)
			if err != nil {
				u.logger.Warn("Image upload attempt failed", zap.String("file", f.Name), zap.Error(err))
				return nil
			}
			results[i] = url
			return nil
		})
	}
	_ = g.Wait()

	urls := make([]string, 0, len(files))
	for _, r := range results {
		if r != "" {
			urls = append(urls, r)
		}
	}
	return urls
}

// removeAll deletes the stored objects behind urls. Objects that are already
// gone and URLs the store did not issue are skipped; any other failure is
// returned.
func (u *imageUploader) removeAll(ctx context.Context, urls []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.parallelism)
	for _, raw := range urls {
		key, ok := u.blobs.KeyFromURL(raw)
		if !ok {
			continue
		}
		g.Go(func() error {
			err := u.blobs.Delete(gctx, key)
			if err == nil || errors.Is(err, domain.ErrObjectNotFound) {
				return nil
			}
			return fmt.Errorf("%w: delete %s: %v", domain.ErrStorage, key, err)
		})
	}
	return g.Wait()
}

// discard removes uploads that will not be referenced. Failures are logged.
func (u *imageUploader) discard(ctx context.Context, urls []string) {
	if err := u.removeAll(ctx, urls); err != nil {
		u.logger.Warn("Failed to discard uploaded images", zap.Int("count", len(urls)), zap.Error(err))
	}
}
