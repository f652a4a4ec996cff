package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/usecase"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// HTTPFetcher relays media hosted outside the blob store.
type HTTPFetcher struct {
	client *http.Client
	logger *logger.Logger
}

// NewHTTPFetcher uses client, or a client with a fixed timeout when nil.
func NewHTTPFetcher(client *http.Client, log *logger.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPFetcher{client: client, logger: log.Named("HTTPFetcher")}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*usecase.BlobObject, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, domain.Invalid("unsupported media url %q", url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.Invalid("bad media url: %v", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Remote media fetch failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: fetch %s: %v", domain.ErrStorage, url, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		drain(resp.Body)
		return nil, domain.ErrObjectNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		drain(resp.Body)
		f.logger.Warn("Remote media fetch returned error status", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: fetch %s: status %d", domain.ErrStorage, url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &usecase.BlobObject{Body: resp.Body, Size: resp.ContentLength, ContentType: contentType}, nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

var _ usecase.RemoteFetcher = (*HTTPFetcher)(nil)
