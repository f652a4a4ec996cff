package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"go.uber.org/zap"
)

// Cache-Control values attached to responses.
const (
	cacheSearch    = "public, max-age=60"
	cacheConstants = "public, max-age=604800"
	cacheNone      = "no-store"
)

var errPayloadTooLarge = errors.New("payload too large")

type messageResponse struct {
	Message string `json:"message"`
}

type shortfallResponse struct {
	Message   string `json:"message"`
	Succeeded int    `json:"succeeded"`
	Attempted int    `json:"attempted"`
	Required  int    `json:"required"`
}

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", zap.Error(err))
	}
}

// statusFor classifies err. Server-side failures get a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrObjectNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var shortfall *domain.UploadShortfallError
	if errors.As(err, &shortfall) {
		log.Warn("Image upload shortfall",
			zap.String("path", r.URL.Path),
			zap.Int("succeeded", shortfall.Succeeded),
			zap.Int("attempted", shortfall.Attempted))
		writeJSON(w, log, http.StatusUnprocessableEntity, shortfallResponse{
			Message:   shortfall.Error(),
			Succeeded: shortfall.Succeeded,
			Attempted: shortfall.Attempted,
			Required:  shortfall.Required,
		})
		return
	}

	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, log, status, messageResponse{Message: message})
}

func actorOf(r *http.Request) (domain.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	return actor, nil
}
