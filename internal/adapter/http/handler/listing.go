package handler

import (
	"context"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/usecase"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ListingService interface {
	Get(ctx context.Context, h string) (*usecase.SafeListing, error)
	Create(ctx context.Context, actor domain.Actor, in usecase.ListingInput, files []usecase.UploadFile) (*usecase.SafeListing, error)
	Update(ctx context.Context, actor domain.Actor, h string, patch usecase.ListingPatch, files []usecase.UploadFile) (*usecase.SafeListing, error)
	Delete(ctx context.Context, actor domain.Actor, h string) error
	HomeTypes() []domain.HomeType
	Features() []domain.Feature
}

type Searcher interface {
	Search(ctx context.Context, p usecase.SearchParams) (*usecase.SearchEnvelope, error)
}

// ListingHandler serves the /houses routes.
type ListingHandler struct {
	listings  ListingService
	search    Searcher
	maxImages int
	metrics   *metrics.MetricsManager
	logger    *logger.Logger
}

func NewListingHandler(listings ListingService, search Searcher, maxImages int, m *metrics.MetricsManager, log *logger.Logger) *ListingHandler {
	if maxImages < 1 || maxImages > domain.MaxListingImages {
		maxImages = domain.MaxListingImages
	}
	return &ListingHandler{
		listings:  listings,
		search:    search,
		maxImages: maxImages,
		metrics:   m,
		logger:    log.Named("ListingHandler"),
	}
}

func (h *ListingHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := usecase.ParseSearchParams(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	env, err := h.search.Search(r.Context(), params)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SearchResultsServed.Observe(float64(env.TotalHouses))
	}
	w.Header().Set("Cache-Control", cacheSearch)
	writeJSON(w, h.logger, http.StatusOK, env)
}

func (h *ListingHandler) HandleHomeTypes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cacheConstants)
	writeJSON(w, h.logger, http.StatusOK, h.listings.HomeTypes())
}

func (h *ListingHandler) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cacheConstants)
	writeJSON(w, h.logger, http.StatusOK, h.listings.Features())
}

func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.Get(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, listing)
}

func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := parseForm(w, r, h.maxImages); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in, err := listingInput(r.Form)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	files, err := readFiles(r, "images", h.maxImages)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	listing, err := h.listings.Create(r.Context(), actor, in, files)
	h.countUploads("gallery", len(files), err)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ListingsCreated.Inc()
	}
	h.logger.Info("Listing created", zap.String("listing", listing.ID), zap.String("actor", actor.ID))
	writeJSON(w, h.logger, http.StatusCreated, listing)
}

func (h *ListingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := parseForm(w, r, h.maxImages); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	patch, err := listingPatch(r.Form)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	files, err := readFiles(r, "images", h.maxImages)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	listing, err := h.listings.Update(r.Context(), actor, chi.URLParam(r, "handle"), patch, files)
	h.countUploads("gallery", len(files), err)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, listing)
}

func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.listings.Delete(r.Context(), actor, chi.URLParam(r, "handle")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ListingsDeleted.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListingHandler) countUploads(kind string, n int, err error) {
	if h.metrics == nil || n == 0 {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	h.metrics.UploadsTotal.WithLabelValues(kind, outcome).Add(float64(n))
}
