package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/usecase"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type MediaService interface {
	Serve(ctx context.Context, proxyID string) (*usecase.MediaObject, error)
	Cleanup(ctx context.Context, actor domain.Actor) (int64, error)
}

// MediaHandler streams proxied images.
type MediaHandler struct {
	media   MediaService
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

func NewMediaHandler(media MediaService, m *metrics.MetricsManager, log *logger.Logger) *MediaHandler {
	return &MediaHandler{media: media, metrics: m, logger: log.Named("MediaHandler")}
}

func (h *MediaHandler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.MediaServedTotal.WithLabelValues(outcome).Inc()
	}
}

// HandleServe copies the object to the client without buffering it. A
// failure after the first byte aborts the connection, so a client never
// receives a silently truncated image as a success.
func (h *MediaHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	proxyID := chi.URLParam(r, "proxyId")
	obj, err := h.media.Serve(r.Context(), proxyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.observe("not_found")
		} else {
			h.observe("error")
		}
		writeError(w, r, h.logger, err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", obj.CacheControl)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.observe("aborted")
		h.logger.Error("Media stream interrupted", zap.String("proxy_id", proxyID), zap.Error(err))
		panic(http.ErrAbortHandler)
	}
	h.observe("ok")
}

type cleanupResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

func (h *MediaHandler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	n, err := h.media.Cleanup(r.Context(), actor)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, cleanupResponse{
		Message: "Deleted " + strconv.FormatInt(n, 10) + " orphaned mappings",
		Deleted: n,
	})
}
