package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/medlink/internal/config"
	"github.com/geocoder89/medlink/internal/domain/doctor"
	"github.com/geocoder89/medlink/internal/domain/mapping"
	"github.com/geocoder89/medlink/internal/domain/patient"
	"github.com/geocoder89/medlink/internal/utils"
	"github.com/gin-gonic/gin"
)

type MappingsStore interface {
	Create(ctx context.Context, req mapping.CreateMappingRequest) (mapping.Mapping, error)
	ListResolved(ctx context.Context) ([]mapping.Resolved, error)
	ListForPatient(ctx context.Context, patientID string) ([]mapping.DoctorAssignment, error)
	Delete(ctx context.Context, id string) error
}

// Mappings only require authentication: any signed-in user may assign,
// list, or unassign any patient/doctor pair.
type MappingsHandler struct {
	repo MappingsStore
}

func NewMappingsHandler(repo MappingsStore) *MappingsHandler {
	return &MappingsHandler{repo: repo}
}

func (h *MappingsHandler) CreateMapping(ctx *gin.Context) {
	var req mapping.CreateMappingRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	m, err := h.repo.Create(cctx, req)

	if err != nil {
		switch {
		case errors.Is(err, mapping.ErrAlreadyAssigned):
			RespondConflict(ctx, "mapping_exists", "This doctor is already assigned to this patient.")
		case errors.Is(err, patient.ErrNotFound), errors.Is(err, doctor.ErrNotFound):
			RespondNotFound(ctx, "Patient or Doctor not found")
		default:
			RespondInternal(ctx, "Could not create mapping")
		}
		return
	}

	ctx.JSON(http.StatusCreated, m)
}

func (h *MappingsHandler) ListMappings(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	mappings, err := h.repo.ListResolved(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list mappings")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": mappings,
		"count": len(mappings),
	})
}

func (h *MappingsHandler) ListMappingsForPatient(ctx *gin.Context) {
	// the wildcard is named :id so the route can share its segment
	// with DELETE /mappings/:id; here it carries a patient id
	patientID := ctx.Param("id")

	if !utils.IsUUID(patientID) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "patient id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	assignments, err := h.repo.ListForPatient(cctx, patientID)

	if err != nil {
		RespondInternal(ctx, "Could not list mappings")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"patientId": patientID,
		"items":     assignments,
		"count":     len(assignments),
	})
}

func (h *MappingsHandler) DeleteMapping(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "mapping id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, mapping.ErrNotFound) {
			RespondNotFound(ctx, "Mapping not found")
			return
		}
		RespondInternal(ctx, "Could not delete mapping")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"msg": "Mapping deleted"})
}
