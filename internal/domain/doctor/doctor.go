package doctor

import (
	"errors"
	"time"
)

type Doctor struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("doctor not found")

type CreateDoctorRequest struct {
	Name           string `json:"name" binding:"required,min=1,max=120"`
	Specialization string `json:"specialization" binding:"required,min=1,max=120"`
}

type UpdateDoctorRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1,max=120"`
	Specialization *string `json:"specialization" binding:"omitempty,min=1,max=120"`
}
