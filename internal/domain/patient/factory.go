package patient

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreatePatientRequest, createdBy string) Patient {
	now := time.Now().UTC()

	age := 0
	if req.Age != nil {
		age = *req.Age
	}

	return Patient{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Age:       age,
		Gender:    req.Gender,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
