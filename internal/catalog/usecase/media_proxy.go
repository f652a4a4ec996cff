package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	MediaCacheControl   = "public, max-age=86400"
	genericContentType  = "application/octet-stream"
	placeholderFallback = "image/jpeg"
)

// MediaObject is a proxied image ready to be streamed to a client.
type MediaObject struct {
	Body         io.ReadCloser
	Size         int64
	ContentType  string
	CacheControl string
}

type MediaProxyConfig struct {
	PublicBaseURL   string
	DefaultImageURL string
}

// MediaProxy keeps one stable public link per owner for the owner's profile
// picture, whatever the picture's current storage location.
type MediaProxy struct {
	repo      domain.ImageProxyRepository
	accounts  domain.AccountRepository
	blobs     BlobStore
	remote    RemoteFetcher
	publisher EventPublisher
	cfg       MediaProxyConfig
	logger    *logger.Logger
	newID     func() string
}

func NewMediaProxy(
	repo domain.ImageProxyRepository,
	accounts domain.AccountRepository,
	blobs BlobStore,
	remote RemoteFetcher,
	publisher EventPublisher,
	cfg MediaProxyConfig,
	log *logger.Logger,
) *MediaProxy {
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &MediaProxy{
		repo:      repo,
		accounts:  accounts,
		blobs:     blobs,
		remote:    remote,
		publisher: publisher,
		cfg:       cfg,
		logger:    log.Named("MediaProxy"),
		newID:     func() string { return uuid.NewString() },
	}
}

// ContentTypeFor derives a MIME type from the extension of the URL path,
// ignoring any query string or fragment.
func ContentTypeFor(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return genericContentType
	}
}

// URLFor renders the public link of a mapping. The version query makes every
// update a distinct cache entry while the path stays the same.
func (p *MediaProxy) URLFor(m *domain.ImageProxy) string {
	return p.cfg.PublicBaseURL + "/media/" + m.ProxyID + "?v=" + strconv.FormatInt(m.Version, 10)
}

func (p *MediaProxy) DefaultImageURL() string { return p.cfg.DefaultImageURL }

// ResolveOrCreate points the owner's mapping at realURL, creating it on
// first use, and returns the versioned public link.
func (p *MediaProxy) ResolveOrCreate(ctx context.Context, ownerID, realURL string) (string, error) {
	ctx, span := tracer.Start(ctx, "MediaProxy.ResolveOrCreate")
	defer span.End()

	if ownerID == "" || realURL == "" {
		return "", domain.Invalid("owner and url are required")
	}

	contentType := ContentTypeFor(realURL)
	if realURL == p.cfg.DefaultImageURL && contentType == genericContentType {
		contentType = placeholderFallback
	}

	m, err := p.repo.Upsert(ctx, ownerID, realURL, contentType, p.newID())
	if err != nil {
		span.RecordError(err)
		p.logger.Error("Failed to upsert image proxy mapping", zap.String("owner_id", ownerID), zap.Error(err))
		return "", fmt.Errorf("%w: upsert image proxy: %v", domain.ErrStorage, err)
	}
	span.SetAttributes(attribute.String("proxy.id", m.ProxyID), attribute.Int64("proxy.version", m.Version))

	if p.publisher != nil {
		evt := MediaProxyEvent{ProxyID: m.ProxyID, OwnerID: ownerID, Version: m.Version}
		if err := p.publisher.Publish(ctx, SubjectMediaProxyUpdated, evt); err != nil {
			p.logger.Warn("Failed to publish media proxy event", zap.String("proxy_id", m.ProxyID), zap.Error(err))
		}
	}

	p.logger.Info("Image proxy mapping resolved",
		zap.String("owner_id", ownerID),
		zap.String("proxy_id", m.ProxyID),
		zap.Int64("version", m.Version))
	return p.URLFor(m), nil
}

// ProxyURL returns the public link for the owner's mapping without changing
// it. Without a mapping the real URL is returned unchanged.
func (p *MediaProxy) ProxyURL(ctx context.Context, ownerID, realURL string) (string, error) {
	if realURL == "" {
		return "", nil
	}
	m, err := p.repo.FindByOwner(ctx, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		return realURL, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: find image proxy: %v", domain.ErrStorage, err)
	}
	return p.URLFor(m), nil
}

// Serve opens the current target of proxyID. Only the default placeholder is
// fetched remotely; any other target must resolve to a stored object. A
// mapping whose backing object is gone is deleted and reported as not found.
func (p *MediaProxy) Serve(ctx context.Context, proxyID string) (*MediaObject, error) {
	ctx, span := tracer.Start(ctx, "MediaProxy.Serve")
	defer span.End()
	span.SetAttributes(attribute.String("proxy.id", proxyID))

	m, err := p.repo.FindByProxyID(ctx, proxyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("%w: find image proxy: %v", domain.ErrStorage, err)
	}

	if m.OriginalURL == p.cfg.DefaultImageURL {
		return p.relay(ctx, m)
	}
	key, inStore := p.blobs.KeyFromURL(m.OriginalURL)
	if !inStore {
		p.logger.Warn("Image proxy target is not a stored object",
			zap.String("proxy_id", m.ProxyID), zap.String("original_url", m.OriginalURL))
		return nil, domain.ErrNotFound
	}

	exists, err := p.blobs.Exists(ctx, key)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrStorage, key, err)
	}
	if !exists {
		p.prune(ctx, m, key)
		return nil, domain.ErrNotFound
	}

	obj, err := p.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			p.prune(ctx, m, key)
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStorage, key, err)
	}

	return &MediaObject{
		Body:         obj.Body,
		Size:         obj.Size,
		ContentType:  m.ContentType,
		CacheControl: MediaCacheControl,
	}, nil
}

func (p *MediaProxy) relay(ctx context.Context, m *domain.ImageProxy) (*MediaObject, error) {
	obj, err := p.remote.Fetch(ctx, m.OriginalURL)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			return nil, domain.ErrNotFound
		}
		p.logger.Error("Failed to relay remote image", zap.String("proxy_id", m.ProxyID), zap.Error(err))
		return nil, fmt.Errorf("%w: relay %s: %v", domain.ErrStorage, m.OriginalURL, err)
	}
	contentType := m.ContentType
	if contentType == genericContentType && obj.ContentType != "" {
		contentType = obj.ContentType
	}
	return &MediaObject{
		Body:         obj.Body,
		Size:         obj.Size,
		ContentType:  contentType,
		CacheControl: MediaCacheControl,
	}, nil
}

func (p *MediaProxy) prune(ctx context.Context, m *domain.ImageProxy, key string) {
	p.logger.Warn("Backing object missing, deleting stale image proxy mapping",
		zap.String("proxy_id", m.ProxyID), zap.String("object_key", key))
	if err := p.repo.DeleteByProxyID(ctx, m.ProxyID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		p.logger.Error("Failed to delete stale image proxy mapping", zap.String("proxy_id", m.ProxyID), zap.Error(err))
	}
}

// Cleanup removes mappings whose owner account no longer exists. Only
// administrators may run it.
func (p *MediaProxy) Cleanup(ctx context.Context, actor domain.Actor) (int64, error) {
	ctx, span := tracer.Start(ctx, "MediaProxy.Cleanup")
	defer span.End()

	if !actor.IsAdmin() {
		p.logger.Warn("Non-admin attempted image proxy cleanup", zap.String("actor_id", actor.ID))
		return 0, domain.ErrForbidden
	}

	mappings, err := p.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list image proxies: %v", domain.ErrStorage, err)
	}
	if len(mappings) == 0 {
		return 0, nil
	}

	owners := make([]string, 0, len(mappings))
	for _, m := range mappings {
		owners = append(owners, m.OwnerID)
	}
	live, err := p.accounts.ExistingIDs(ctx, owners)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve owners: %v", domain.ErrStorage, err)
	}

	var orphaned []string
	for _, m := range mappings {
		if _, ok := live[m.OwnerID]; !ok {
			orphaned = append(orphaned, m.ProxyID)
		}
	}
	if len(orphaned) == 0 {
		return 0, nil
	}

	deleted, err := p.repo.DeleteByProxyIDs(ctx, orphaned)
	if err != nil {
		return 0, fmt.Errorf("%w: delete image proxies: %v", domain.ErrStorage, err)
	}
	p.logger.Info("Image proxy cleanup finished", zap.Int("scanned", len(mappings)), zap.Int64("deleted", deleted))
	return deleted, nil
}

// Forget drops the owner's mapping, if any.
func (p *MediaProxy) Forget(ctx context.Context, ownerID string) error {
	if err := p.repo.DeleteByOwner(ctx, ownerID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: delete image proxy: %v", domain.ErrStorage, err)
	}
	return nil
}
