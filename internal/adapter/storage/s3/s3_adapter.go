package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/usecase"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const noSuchKey = "NoSuchKey"

// Config describes the S3-compatible endpoint images are stored in.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base that clients reach the endpoint through.
	// Object URLs are path-style: {PublicURL}/{Bucket}/{key}.
	PublicURL string
}

// S3Storage is a MinIO-backed usecase.BlobStore.
type S3Storage struct {
	client    *minio.Client
	bucket    string
	publicURL *url.URL
	logger    *logger.Logger
}

func NewS3Storage(ctx context.Context, cfg Config, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing S3 MinIO Storage",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
		zap.Bool("use_ssl", cfg.UseSSL))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Error("S3Storage: failed to create MinIO client", zap.String("endpoint", cfg.Endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	s, err := newStorage(client, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newStorage(client *minio.Client, cfg Config, log *logger.Logger) (*S3Storage, error) {
	public := cfg.PublicURL
	if public == "" && client != nil {
		public = client.EndpointURL().String()
	}
	u, err := url.Parse(strings.TrimRight(public, "/"))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid public storage url %q", public)
	}
	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: u,
		logger:    log.Named("S3Storage"),
	}, nil
}

// ensureBucket creates the bucket if needed and opens it for anonymous
// reads, since stored image URLs are handed to browsers.
func (s *S3Storage) ensureBucket(ctx context.Context) error {
	err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil {
		exists, errExists := s.client.BucketExists(ctx, s.bucket)
		if errExists != nil || !exists {
			s.logger.Error("S3Storage: failed to make or verify bucket",
				zap.String("bucket", s.bucket),
				zap.NamedError("make_bucket_error", err),
				zap.NamedError("check_exists_error", errExists))
			return fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", s.bucket, err, errExists)
		}
		s.logger.Info("S3Storage: bucket already exists", zap.String("bucket", s.bucket))
	} else {
		s.logger.Info("S3Storage: bucket created", zap.String("bucket", s.bucket))
	}

	if err := s.client.SetBucketPolicy(ctx, s.bucket, publicReadPolicy(s.bucket)); err != nil {
		s.logger.Warn("S3Storage: could not set public read policy", zap.String("bucket", s.bucket), zap.Error(err))
	}
	return nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == noSuchKey
}

// ObjectURL is the public URL of key.
func (s *S3Storage) ObjectURL(key string) string {
	u := *s.publicURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + s.bucket + "/" + key
	u.RawPath = ""
	return u.String()
}

func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		s.logger.Error("S3Storage.Put: PutObject failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%w: put %s: %v", domain.ErrStorage, key, err)
	}
	s.logger.Debug("S3Storage.Put: object stored",
		zap.String("key", info.Key),
		zap.String("etag", info.ETag),
		zap.Int64("size", info.Size))
	return s.ObjectURL(key), nil
}

func (s *S3Storage) Open(ctx context.Context, key string) (*usecase.BlobObject, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrStorage, key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, domain.ErrObjectNotFound
		}
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrStorage, key, err)
	}
	return &usecase.BlobObject{Body: obj, Size: stat.Size, ContentType: stat.ContentType}, nil
}

func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %v", domain.ErrStorage, key, err)
}

// Delete removes key. S3 deletes are idempotent, so the key is checked
// first to report domain.ErrObjectNotFound.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrObjectNotFound
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return domain.ErrObjectNotFound
		}
		s.logger.Error("S3Storage.Delete: RemoveObject failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: remove %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

// KeyFromURL accepts path-style URLs on the public endpoint and the two
// Firebase link shapes older records carry: ".../o/{escaped key}" download
// links and "{project}.appspot.com/{key}" object paths.
func (s *S3Storage) KeyFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}

	if strings.EqualFold(u.Host, s.publicURL.Host) {
		prefix := strings.TrimRight(s.publicURL.Path, "/") + "/" + s.bucket + "/"
		if strings.HasPrefix(u.Path, prefix) {
			key := strings.TrimPrefix(u.Path, prefix)
			return key, key != ""
		}
	}

	escaped := u.EscapedPath()
	if i := strings.Index(escaped, "/o/"); i >= 0 {
		return unescapeKey(escaped[i+len("/o/"):])
	}
	if i := strings.Index(escaped, appspotSegment); i >= 0 {
		return unescapeKey(escaped[i+len(appspotSegment):])
	}
	if strings.HasSuffix(strings.ToLower(u.Host), ".appspot.com") {
		return unescapeKey(strings.TrimPrefix(escaped, "/"))
	}
	return "", false
}

const appspotSegment = ".appspot.com/"

func unescapeKey(escaped string) (string, bool) {
	key, err := url.PathUnescape(escaped)
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

var _ usecase.BlobStore = (*S3Storage)(nil)

// Validate checks the parts of cfg NewS3Storage cannot default.
func (cfg Config) Validate() error {
	if cfg.Bucket == "" {
		return errors.New("bucket name is required")
	}
	if cfg.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	return nil
}
