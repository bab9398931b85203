package patient

import (
	"errors"
	"time"
)

type Patient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Covers both "no such id" and "owned by someone else" so record
// existence is never leaked across users.
var ErrNotFound = errors.New("patient not found")

type CreatePatientRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=120"`
	Age    *int   `json:"age" binding:"required,min=0,max=150"`
	Gender string `json:"gender" binding:"required,oneof=male female other"`
}

// Partial update: nil means "leave unchanged", only present fields are
// validated and merged.
type UpdatePatientRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=120"`
	Age    *int    `json:"age" binding:"omitempty,min=0,max=150"`
	Gender *string `json:"gender" binding:"omitempty,oneof=male female other"`
}
