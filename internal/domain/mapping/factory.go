package mapping

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateMappingRequest) Mapping {
	now := time.Now().UTC()

	return Mapping{
		ID:        uuid.NewString(),
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
