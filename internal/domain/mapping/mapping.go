package mapping

import (
	"errors"
	"time"

	"github.com/geocoder89/medlink/internal/domain/doctor"
	"github.com/geocoder89/medlink/internal/domain/patient"
)

// A Mapping assigns one doctor to one patient. At most one row may
// exist per (patient, doctor) pair.
type Mapping struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient"`
	DoctorID  string    `json:"doctor"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Resolved is the list shape: both sides embedded instead of bare ids.
type Resolved struct {
	ID        string          `json:"id"`
	Patient   patient.Patient `json:"patient"`
	Doctor    doctor.Doctor   `json:"doctor"`
	CreatedAt time.Time       `json:"createdAt"`
}

// DoctorAssignment is the per-patient list shape: only the doctor side
// is embedded.
type DoctorAssignment struct {
	ID        string        `json:"id"`
	PatientID string        `json:"patient"`
	Doctor    doctor.Doctor `json:"doctor"`
	CreatedAt time.Time     `json:"createdAt"`
}

var (
	ErrNotFound        = errors.New("mapping not found")
	ErrAlreadyAssigned = errors.New("mapping already exists for this patient and doctor")
)

type CreateMappingRequest struct {
	PatientID string `json:"patient" binding:"required,uuid"`
	DoctorID  string `json:"doctor" binding:"required,uuid"`
}
