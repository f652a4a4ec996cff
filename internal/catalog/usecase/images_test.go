package usecase

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name string
		file UploadFile
		ok   bool
	}{
		{"jpeg", jpeg("a.jpg"), true},
		{"png", UploadFile{Name: "a.png", ContentType: "image/png", Data: []byte{0x89, 0x50, 0x4E, 0x47}}, true},
		{"gif", UploadFile{Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")}, true},
		{"webp not allowed", UploadFile{Name: "a.webp", ContentType: "image/webp", Data: []byte("RIFF")}, false},
		{"empty", UploadFile{Name: "a.jpg", ContentType: "image/jpeg"}, false},
		{"mismatched bytes", UploadFile{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("GIF89a")}, false},
		{"too large", UploadFile{Name: "a.jpg", ContentType: "image/jpeg", Data: append([]byte{0xFF, 0xD8}, make([]byte, MaxImageBytes)...)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.file)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"My House (1).JPG":     "My_House__1_",
		"../../etc/passwd.png": "passwd",
		".jpg":                 "image",
		"":                     "image",
		"ok_name-2.png":        "ok_name-2",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFileName(in), in)
	}
	assert.Len(t, SanitizeFileName(strings.Repeat("a", 300)+".png"), 100)
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1717171717171)
	key := ObjectKey(GalleryPrefix, "u1", "front door.png", "image/png", now)
	pattern := regexp.MustCompile(`^house_images/u1/front_door-[0-9a-f-]{36}-1717171717171\.png$`)
	assert.Regexp(t, pattern, key)
	assert.NotEqual(t, key, ObjectKey(GalleryPrefix, "u1", "front door.png", "image/png", now))
	assert.Equal(t, "image/png", ContentTypeFor(key))
}

func TestFitTransformer(t *testing.T) {
	tr := NewFitTransformer()

	t.Run("shrinks oversized images", func(t *testing.T) {
		out, err := tr.Transform(pngOf(t, 1600, 400), "image/png")
		require.NoError(t, err)
		cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, 800, cfg.Width)
		assert.Equal(t, 200, cfg.Height)
	})

	t.Run("never enlarges", func(t *testing.T) {
		out, err := tr.Transform(pngOf(t, 120, 90), "image/png")
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 120, cfg.Width)
		assert.Equal(t, 90, cfg.Height)
	})

	t.Run("rejects undecodable data", func(t *testing.T) {
		_, err := tr.Transform([]byte{0x89, 0x50, 0x00}, "image/png")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		_, err := tr.Transform(pngOf(t, 2, 2), "image/tiff")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
