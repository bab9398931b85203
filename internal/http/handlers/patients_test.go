package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/medlink/internal/domain/patient"
	"github.com/geocoder89/medlink/internal/http/handlers"
	"github.com/geocoder89/medlink/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// Fake repository implementation of the handlers.PatientsStore interface

type fakePatientsRepo struct {
	createFn func(ctx context.Context, req patient.CreatePatientRequest, createdBy string) (patient.Patient, error)
	listFn   func(ctx context.Context, ownerID string) ([]patient.Patient, error)
	getFn    func(ctx context.Context, id, ownerID string) (patient.Patient, error)
	updateFn func(ctx context.Context, id, ownerID string, req patient.UpdatePatientRequest) (patient.Patient, error)
	deleteFn func(ctx context.Context, id, ownerID string) error
}

func (f *fakePatientsRepo) Create(ctx context.Context, req patient.CreatePatientRequest, createdBy string) (patient.Patient, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, createdBy)
	}

	return patient.Patient{}, nil
}

func (f *fakePatientsRepo) ListByOwner(ctx context.Context, ownerID string) ([]patient.Patient, error) {
	if f.listFn != nil {
		return f.listFn(ctx, ownerID)
	}

	return nil, nil
}

func (f *fakePatientsRepo) GetOwned(ctx context.Context, id, ownerID string) (patient.Patient, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id, ownerID)
	}

	return patient.Patient{}, nil
}

func (f *fakePatientsRepo) UpdateOwned(ctx context.Context, id, ownerID string, req patient.UpdatePatientRequest) (patient.Patient, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, ownerID, req)
	}

	return patient.Patient{}, nil
}

func (f *fakePatientsRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, ownerID)
	}

	return nil
}

// small helper which mounts one handler behind a fixed identity

func setupRouterAs(userID, method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(ctx *gin.Context) {
		middlewares.SetIdentity(ctx, userID, "user@example.com")
		h(ctx)
	})

	return r
}

func TestCreatePatientHandler(t *testing.T) {
	now := time.Now().UTC()
	ownerID := newUUID()

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakePatientsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"name": "Jane Roe", "age": 34, "gender": "female"}`,
			repoSetUp: func(f *fakePatientsRepo) {
				f.createFn = func(ctx context.Context, req patient.CreatePatientRequest, createdBy string) (patient.Patient, error) {
					if createdBy != ownerID {
						t.Fatalf("createdBy = %q, want %q", createdBy, ownerID)
					}
					return patient.Patient{
						ID:        newUUID(),
						Name:      req.Name,
						Age:       *req.Age,
						Gender:    req.Gender,
						CreatedBy: createdBy,
						CreatedAt: now,
						UpdatedAt: now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			// age zero is a legal value and must survive binding
			name: "age_zero",
			body: `{"name": "Newborn", "age": 0, "gender": "other"}`,
			repoSetUp: func(f *fakePatientsRepo) {
				f.createFn = func(ctx context.Context, req patient.CreatePatientRequest, createdBy string) (patient.Patient, error) {
					if req.Age == nil || *req.Age != 0 {
						t.Fatalf("age not preserved: %+v", req.Age)
					}
					return patient.Patient{ID: newUUID(), Name: req.Name, Age: 0, Gender: req.Gender}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_fields",
			body:           `{"name": "Jane Roe"}`,
			repoSetUp:      func(f *fakePatientsRepo) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "negative_age",
			body:           `{"name": "Jane Roe", "age": -1, "gender": "female"}`,
			repoSetUp:      func(f *fakePatientsRepo) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown_gender",
			body:           `{"name": "Jane Roe", "age": 34, "gender": "robot"}`,
			repoSetUp:      func(f *fakePatientsRepo) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{"name": "Jane Roe", "age": 34, "gender": "female"}`,
			repoSetUp: func(f *fakePatientsRepo) {
				f.createFn = func(ctx context.Context, req patient.CreatePatientRequest, createdBy string) (patient.Patient, error) {
					return patient.Patient{}, errors.New("boom")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePatientsRepo{}
			tt.repoSetUp(repo)

			h := handlers.NewPatientsHandler(repo)
			r := setupRouterAs(ownerID, http.MethodPost, "/patients", h.CreatePatient)

			req := httptest.NewRequest(http.MethodPost, "/patients", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListPatientsScopedToOwner(t *testing.T) {
	ownerID := newUUID()

	repo := &fakePatientsRepo{
		listFn: func(ctx context.Context, gotOwner string) ([]patient.Patient, error) {
			if gotOwner != ownerID {
				t.Fatalf("list owner = %q, want %q", gotOwner, ownerID)
			}
			return []patient.Patient{
				{ID: newUUID(), Name: "A", Age: 20, Gender: "male", CreatedBy: ownerID},
				{ID: newUUID(), Name: "B", Age: 30, Gender: "female", CreatedBy: ownerID},
			}, nil
		},
	}

	h := handlers.NewPatientsHandler(repo)
	r := setupRouterAs(ownerID, http.MethodGet, "/patients", h.ListPatients)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patients", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Items []patient.Patient `json:"items"`
		Count int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}

	if resp.Count != 2 || len(resp.Items) != 2 {
		t.Fatalf("unexpected listing: %+v", resp)
	}
}

func TestGetPatientById(t *testing.T) {
	ownerID := newUUID()
	patientID := newUUID()

	tests := []struct {
		name           string
		id             string
		repoSetUp      func(*fakePatientsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			id:   patientID,
			repoSetUp: func(f *fakePatientsRepo) {
				f.getFn = func(ctx context.Context, id, gotOwner string) (patient.Patient, error) {
					return patient.Patient{ID: id, Name: "Jane", Age: 34, Gender: "female", CreatedBy: gotOwner}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_uuid",
			id:             "not-a-uuid",
			repoSetUp:      func(f *fakePatientsRepo) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// a record owned by someone else looks identical to a missing one
			name: "foreign_record",
			id:   patientID,
			repoSetUp: func(f *fakePatientsRepo) {
				f.getFn = func(ctx context.Context, id, gotOwner string) (patient.Patient, error) {
					return patient.Patient{}, patient.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePatientsRepo{}
			tt.repoSetUp(repo)

			h := handlers.NewPatientsHandler(repo)
			r := setupRouterAs(ownerID, http.MethodGet, "/patients/:id", h.GetPatientById)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patients/"+tt.id, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdatePatientPartial(t *testing.T) {
	ownerID := newUUID()
	patientID := newUUID()

	repo := &fakePatientsRepo{
		updateFn: func(ctx context.Context, id, gotOwner string, req patient.UpdatePatientRequest) (patient.Patient, error) {
			if req.Name != nil {
				t.Fatalf("name should be absent, got %q", *req.Name)
			}
			if req.Age == nil || *req.Age != 40 {
				t.Fatalf("age not carried: %+v", req.Age)
			}
			return patient.Patient{ID: id, Name: "Jane", Age: 40, Gender: "female", CreatedBy: gotOwner}, nil
		},
	}

	h := handlers.NewPatientsHandler(repo)
	r := setupRouterAs(ownerID, http.MethodPut, "/patients/:id", h.UpdatePatient)

	req := httptest.NewRequest(http.MethodPut, "/patients/"+patientID, bytes.NewBufferString(`{"age": 40}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestDeletePatient(t *testing.T) {
	ownerID := newUUID()
	patientID := newUUID()

	tests := []struct {
		name           string
		repoSetUp      func(*fakePatientsRepo)
		wantStatusCode int
		wantMsg        string
	}{
		{
			name:           "success",
			repoSetUp:      func(f *fakePatientsRepo) {},
			wantStatusCode: http.StatusOK,
			wantMsg:        "Patient deleted",
		},
		{
			name: "not_found",
			repoSetUp: func(f *fakePatientsRepo) {
				f.deleteFn = func(ctx context.Context, id, gotOwner string) error {
					return patient.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePatientsRepo{}
			tt.repoSetUp(repo)

			h := handlers.NewPatientsHandler(repo)
			r := setupRouterAs(ownerID, http.MethodDelete, "/patients/:id", h.DeletePatient)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/patients/"+patientID, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantMsg != "" {
				var resp map[string]string
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp["msg"] != tt.wantMsg {
					t.Fatalf("msg = %q, want %q", resp["msg"], tt.wantMsg)
				}
			}
		})
	}
}
