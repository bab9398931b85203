package doctor

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateDoctorRequest, createdBy string) Doctor {
	now := time.Now().UTC()

	return Doctor{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Specialization: req.Specialization,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
