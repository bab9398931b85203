package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/medlink/internal/cache"
	"github.com/geocoder89/medlink/internal/config"
	"github.com/geocoder89/medlink/internal/domain/doctor"
	"github.com/geocoder89/medlink/internal/http/middlewares"
	"github.com/geocoder89/medlink/internal/utils"
	"github.com/gin-gonic/gin"
)

type DoctorsStore interface {
	Create(ctx context.Context, req doctor.CreateDoctorRequest, createdBy string) (doctor.Doctor, error)
	List(ctx context.Context) ([]doctor.Doctor, error)
	GetByID(ctx context.Context, id string) (doctor.Doctor, error)
	UpdateOwned(ctx context.Context, id, ownerID string, req doctor.UpdateDoctorRequest) (doctor.Doctor, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// Doctor reads are a public directory (no auth, no owner filter);
// writes stay owner-scoped like patients. The directory listing is
// served through a TTL cache that mutations invalidate.
type DoctorsHandler struct {
	repo  DoctorsStore
	cache cache.Store
}

func NewDoctorsHandler(repo DoctorsStore) *DoctorsHandler {
	return &DoctorsHandler{repo: repo}
}

func NewDoctorsHandlerWithCache(repo DoctorsStore, c cache.Store) *DoctorsHandler {
	return &DoctorsHandler{repo: repo, cache: c}
}

func (h *DoctorsHandler) CreateDoctor(ctx *gin.Context) {
	var req doctor.CreateDoctorRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	d, err := h.repo.Create(cctx, req, userID)

	if err != nil {
		RespondInternal(ctx, "Could not create doctor")
		return
	}

	h.invalidateDirectory(cctx)

	ctx.JSON(http.StatusCreated, d)
}

func (h *DoctorsHandler) ListDoctors(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	key := utils.BuildDoctorsListCacheKey()

	if h.cache != nil {
		if raw, ok := h.cache.Get(cctx, key); ok {
			var doctors []doctor.Doctor

			if err := json.Unmarshal(raw, &doctors); err == nil {
				RespondJSONWithETag(ctx, http.StatusOK, gin.H{
					"items": doctors,
					"count": len(doctors),
				})
				return
			}
			// corrupt entry: drop it and fall through to the repo
			h.cache.Delete(cctx, key)
		}
	}

	doctors, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list doctors")
		return
	}

	if h.cache != nil {
		if raw, err := json.Marshal(doctors); err == nil {
			h.cache.Set(cctx, key, raw)
		}
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": doctors,
		"count": len(doctors),
	})
}

func (h *DoctorsHandler) GetDoctorById(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "doctor id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	d, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			RespondNotFound(ctx, "Doctor not found")
			return
		}
		RespondInternal(ctx, "Could not fetch doctor")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, d)
}

func (h *DoctorsHandler) UpdateDoctor(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "doctor id must be a valid UUID", nil)
		return
	}

	var req doctor.UpdateDoctorRequest

	if !BindJSON(ctx, &req) {
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	d, err := h.repo.UpdateOwned(cctx, id, userID, req)

	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			RespondNotFound(ctx, "Doctor not found or not authorized")
			return
		}
		RespondInternal(ctx, "Could not update doctor")
		return
	}

	h.invalidateDirectory(cctx)

	ctx.JSON(http.StatusOK, d)
}

func (h *DoctorsHandler) DeleteDoctor(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "doctor id must be a valid UUID", nil)
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.DeleteOwned(cctx, id, userID)

	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			RespondNotFound(ctx, "Doctor not found or not authorized")
			return
		}
		RespondInternal(ctx, "Could not delete doctor")
		return
	}

	h.invalidateDirectory(cctx)

	ctx.JSON(http.StatusOK, gin.H{"msg": "Doctor deleted"})
}

func (h *DoctorsHandler) invalidateDirectory(ctx context.Context) {
	if h.cache == nil {
		return
	}

	h.cache.Delete(ctx, utils.BuildDoctorsListCacheKey())
}
