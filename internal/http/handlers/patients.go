package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/medlink/internal/config"
	"github.com/geocoder89/medlink/internal/domain/patient"
	"github.com/geocoder89/medlink/internal/http/middlewares"
	"github.com/geocoder89/medlink/internal/utils"
	"github.com/gin-gonic/gin"
)

type PatientsStore interface {
	Create(ctx context.Context, req patient.CreatePatientRequest, createdBy string) (patient.Patient, error)
	ListByOwner(ctx context.Context, ownerID string) ([]patient.Patient, error)
	GetOwned(ctx context.Context, id, ownerID string) (patient.Patient, error)
	UpdateOwned(ctx context.Context, id, ownerID string, req patient.UpdatePatientRequest) (patient.Patient, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// Every route here is owner-scoped: patients are only ever visible to
// the user that created them. A missing id and a foreign id produce the
// same 404.
type PatientsHandler struct {
	repo PatientsStore
}

func NewPatientsHandler(repo PatientsStore) *PatientsHandler {
	return &PatientsHandler{repo: repo}
}

func (h *PatientsHandler) CreatePatient(ctx *gin.Context) {
	var req patient.CreatePatientRequest

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

	p, err := h.repo.Create(cctx, req, userID)

	if err != nil {
		RespondInternal(ctx, "Could not create patient")
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

func (h *PatientsHandler) ListPatients(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	patients, err := h.repo.ListByOwner(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not list patients")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": patients,
		"count": len(patients),
	})
}

func (h *PatientsHandler) GetPatientById(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "patient id must be a valid UUID", nil)
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetOwned(cctx, id, userID)

	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			RespondNotFound(ctx, "Patient not found")
			return
		}
		RespondInternal(ctx, "Could not fetch patient")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *PatientsHandler) UpdatePatient(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "patient id must be a valid UUID", nil)
		return
	}

	var req patient.UpdatePatientRequest

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

	p, err := h.repo.UpdateOwned(cctx, id, userID, req)

	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			RespondNotFound(ctx, "Patient not found")
			return
		}
		RespondInternal(ctx, "Could not update patient")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *PatientsHandler) DeletePatient(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "patient id must be a valid UUID", nil)
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
		if errors.Is(err, patient.ErrNotFound) {
			RespondNotFound(ctx, "Patient not found")
			return
		}
		RespondInternal(ctx, "Could not delete patient")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"msg": "Patient deleted"})
}
