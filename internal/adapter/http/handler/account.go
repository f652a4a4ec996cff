package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/usecase"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AccountService interface {
	Profile(ctx context.Context, actor domain.Actor) (*usecase.ProfileView, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*usecase.SafeAccount, error)
	UploadProfilePicture(ctx context.Context, actor domain.Actor, f usecase.UploadFile) (string, error)
	ResetProfilePicture(ctx context.Context, actor domain.Actor) (string, error)
	AddFavorite(ctx context.Context, actor domain.Actor, h string) error
	RemoveFavorite(ctx context.Context, actor domain.Actor, h string) error
	DeleteByHandle(ctx context.Context, actor domain.Actor, h string) error
	Delete(ctx context.Context, actor domain.Actor, accountID string) error
}

// AccountHandler serves the authenticated /auth routes.
type AccountHandler struct {
	accounts AccountService
	metrics  *metrics.MetricsManager
	logger   *logger.Logger
}

func NewAccountHandler(accounts AccountService, m *metrics.MetricsManager, log *logger.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, metrics: m, logger: log.Named("AccountHandler")}
}

func (h *AccountHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cacheNone)
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	view, err := h.accounts.Profile(r.Context(), actor)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

type profileRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Bio         *string `json:"bio"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (h *AccountHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cacheNone)
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req profileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, formOverhead)).Decode(&req); err != nil {
		writeError(w, r, h.logger, domain.Invalid("invalid request body: %v", err))
		return
	}
	account, err := h.accounts.UpdateProfile(r.Context(), actor, domain.ProfilePatch{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Bio:         req.Bio,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{"user": account})
}

type pictureResponse struct {
	ProfilePicture string `json:"profilePicture"`
}

func (h *AccountHandler) HandleUploadPicture(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := parseForm(w, r, 1); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	files, err := readFiles(r, "profilePicture", 1)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if len(files) == 0 {
		writeError(w, r, h.logger, domain.Invalid("profilePicture file is required"))
		return
	}

	link, err := h.accounts.UploadProfilePicture(r.Context(), actor, files[0])
	if h.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		h.metrics.UploadsTotal.WithLabelValues("profile", outcome).Inc()
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Profile picture updated", zap.String("actor", actor.ID))
	writeJSON(w, h.logger, http.StatusOK, pictureResponse{ProfilePicture: link})
}

func (h *AccountHandler) HandleResetPicture(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	link, err := h.accounts.ResetProfilePicture(r.Context(), actor)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, pictureResponse{ProfilePicture: link})
}

func (h *AccountHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	h.favorite(w, r, h.accounts.AddFavorite)
}

func (h *AccountHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.favorite(w, r, h.accounts.RemoveFavorite)
}

func (h *AccountHandler) favorite(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.Actor, string) error) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := op(r.Context(), actor, chi.URLParam(r, "handle")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) HandleDeleteSelf(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.accounts.Delete(r.Context(), actor, actor.ID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "User deleted"})
}

func (h *AccountHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.accounts.DeleteByHandle(r.Context(), actor, chi.URLParam(r, "handle")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, messageResponse{Message: "User deleted"})
}
