package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/medlink/internal/cache"
	"github.com/geocoder89/medlink/internal/domain/doctor"
	"github.com/geocoder89/medlink/internal/http/handlers"
	"github.com/geocoder89/medlink/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Fake repository implementation of the handlers.DoctorsStore interface

type fakeDoctorsRepo struct {
	createFn func(ctx context.Context, req doctor.CreateDoctorRequest, createdBy string) (doctor.Doctor, error)
	listFn   func(ctx context.Context) ([]doctor.Doctor, error)
	getFn    func(ctx context.Context, id string) (doctor.Doctor, error)
	updateFn func(ctx context.Context, id, ownerID string, req doctor.UpdateDoctorRequest) (doctor.Doctor, error)
	deleteFn func(ctx context.Context, id, ownerID string) error

	listCalls int
}

func (f *fakeDoctorsRepo) Create(ctx context.Context, req doctor.CreateDoctorRequest, createdBy string) (doctor.Doctor, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, createdBy)
	}

	return doctor.Doctor{}, nil
}

func (f *fakeDoctorsRepo) List(ctx context.Context) ([]doctor.Doctor, error) {
	f.listCalls++

	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return nil, nil
}

func (f *fakeDoctorsRepo) GetByID(ctx context.Context, id string) (doctor.Doctor, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return doctor.Doctor{}, nil
}

func (f *fakeDoctorsRepo) UpdateOwned(ctx context.Context, id, ownerID string, req doctor.UpdateDoctorRequest) (doctor.Doctor, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, ownerID, req)
	}

	return doctor.Doctor{}, nil
}

func (f *fakeDoctorsRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, ownerID)
	}

	return nil
}

func TestListDoctorsServesFromCache(t *testing.T) {
	repo := &fakeDoctorsRepo{
		listFn: func(ctx context.Context) ([]doctor.Doctor, error) {
			return []doctor.Doctor{
				{ID: newUUID(), Name: "Dr. Adams", Specialization: "cardiology"},
			}, nil
		},
	}

	h := handlers.NewDoctorsHandlerWithCache(repo, cache.NewMemory(time.Minute))

	r := gin.New()
	r.GET("/doctors", h.ListDoctors)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doctors", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, body=%s", i, w.Code, w.Body.String())
		}

		var resp struct {
			Items []doctor.Doctor `json:"items"`
			Count int             `json:"count"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Count != 1 {
			t.Fatalf("count = %d, want 1", resp.Count)
		}
	}

	if repo.listCalls != 1 {
		t.Fatalf("repo.List called %d times, want 1 (cache should serve repeats)", repo.listCalls)
	}
}

func TestCreateDoctorInvalidatesDirectoryCache(t *testing.T) {
	ownerID := newUUID()

	repo := &fakeDoctorsRepo{
		listFn: func(ctx context.Context) ([]doctor.Doctor, error) {
			return []doctor.Doctor{}, nil
		},
		createFn: func(ctx context.Context, req doctor.CreateDoctorRequest, createdBy string) (doctor.Doctor, error) {
			return doctor.Doctor{ID: newUUID(), Name: req.Name, Specialization: req.Specialization, CreatedBy: createdBy}, nil
		},
	}

	h := handlers.NewDoctorsHandlerWithCache(repo, cache.NewMemory(time.Minute))

	r := gin.New()
	r.GET("/doctors", h.ListDoctors)
	r.POST("/doctors", func(ctx *gin.Context) {
		middlewares.SetIdentity(ctx, ownerID, "user@example.com")
		h.CreateDoctor(ctx)
	})

	// warm the cache
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doctors", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("warmup failed: %d", w.Code)
	}

	// a write must drop the cached listing
	req := httptest.NewRequest(http.MethodPost, "/doctors", bytes.NewBufferString(`{"name": "Dr. Baker", "specialization": "oncology"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doctors", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("relist failed: %d", w.Code)
	}

	if repo.listCalls != 2 {
		t.Fatalf("repo.List called %d times, want 2 (write should invalidate)", repo.listCalls)
	}
}

func TestGetDoctorByIdETag(t *testing.T) {
	doctorID := newUUID()

	repo := &fakeDoctorsRepo{
		getFn: func(ctx context.Context, id string) (doctor.Doctor, error) {
			return doctor.Doctor{ID: id, Name: "Dr. Adams", Specialization: "cardiology"}, nil
		},
	}

	h := handlers.NewDoctorsHandler(repo)

	r := gin.New()
	r.GET("/doctors/:id", h.GetDoctorById)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doctors/"+doctorID, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag header on the first response")
	}

	req := httptest.NewRequest(http.MethodGet, "/doctors/"+doctorID, nil)
	req.Header.Set("If-None-Match", etag)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("304 must not carry a body, got %q", w.Body.String())
	}
}

func TestGetDoctorByIdNotFound(t *testing.T) {
	repo := &fakeDoctorsRepo{
		getFn: func(ctx context.Context, id string) (doctor.Doctor, error) {
			return doctor.Doctor{}, doctor.ErrNotFound
		},
	}

	h := handlers.NewDoctorsHandler(repo)

	r := gin.New()
	r.GET("/doctors/:id", h.GetDoctorById)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/doctors/"+newUUID(), nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateDoctorForeignRecordIs404(t *testing.T) {
	ownerID := newUUID()

	repo := &fakeDoctorsRepo{
		updateFn: func(ctx context.Context, id, gotOwner string, req doctor.UpdateDoctorRequest) (doctor.Doctor, error) {
			return doctor.Doctor{}, doctor.ErrNotFound
		},
	}

	h := handlers.NewDoctorsHandler(repo)
	r := setupRouterAs(ownerID, http.MethodPut, "/doctors/:id", h.UpdateDoctor)

	req := httptest.NewRequest(http.MethodPut, "/doctors/"+newUUID(), bytes.NewBufferString(`{"name": "Dr. New"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteDoctorResponseShape(t *testing.T) {
	ownerID := newUUID()

	repo := &fakeDoctorsRepo{}

	h := handlers.NewDoctorsHandler(repo)
	r := setupRouterAs(ownerID, http.MethodDelete, "/doctors/:id", h.DeleteDoctor)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/doctors/"+newUUID(), nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["msg"] != "Doctor deleted" {
		t.Fatalf("msg = %q", resp["msg"])
	}
}
