package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/medlink/internal/domain/patient"
	"github.com/geocoder89/medlink/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PatientsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPatientsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PatientsRepo {
	return &PatientsRepo{pool: pool, prom: prom}
}

func (r *PatientsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *PatientsRepo) Create(ctx context.Context, req patient.CreatePatientRequest, createdBy string) (patient.Patient, error) {
	p := patient.NewFromCreateRequest(req, createdBy)

	err := r.observe("patients.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO patients (id, name, age, gender, created_by, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.Name, p.Age, p.Gender, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return patient.Patient{}, err
	}

	return p, nil
}

// ListByOwner returns only the caller's own records.
func (r *PatientsRepo) ListByOwner(ctx context.Context, ownerID string) (patients []patient.Patient, err error) {
	var rows pgx.Rows

	err = r.observe("patients.list_by_owner", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT id, name, age, gender, created_by, created_at, updated_at
			 FROM patients
			 WHERE created_by = $1
			 ORDER BY created_at ASC, id ASC`,
			ownerID,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	patients = make([]patient.Patient, 0)

	for rows.Next() {
		var p patient.Patient

		e := rows.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)

		if e != nil {
			err = e
			return
		}
		patients = append(patients, p)
	}

	err = rows.Err()

	return
}

// GetOwned answers ErrNotFound for foreign records as well, so callers
// cannot tell "absent" from "someone else's".
func (r *PatientsRepo) GetOwned(ctx context.Context, id, ownerID string) (patient.Patient, error) {
	var p patient.Patient

	err := r.observe("patients.get_owned", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, age, gender, created_by, created_at, updated_at
			 FROM patients
			 WHERE id = $1 AND created_by = $2`,
			id, ownerID,
		).Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return patient.Patient{}, patient.ErrNotFound
		}
		return patient.Patient{}, err
	}

	return p, nil
}

// UpdateOwned merges only the fields present in the request.
func (r *PatientsRepo) UpdateOwned(ctx context.Context, id, ownerID string, req patient.UpdatePatientRequest) (patient.Patient, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, ownerID}

	argsPosition := 3

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argsPosition))
		args = append(args, *req.Name)
		argsPosition++
	}

	if req.Age != nil {
		sets = append(sets, fmt.Sprintf("age = $%d", argsPosition))
		args = append(args, *req.Age)
		argsPosition++
	}

	if req.Gender != nil {
		sets = append(sets, fmt.Sprintf("gender = $%d", argsPosition))
		args = append(args, *req.Gender)
		argsPosition++
	}

	query := `UPDATE patients
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND created_by = $2
		RETURNING id, name, age, gender, created_by, created_at, updated_at`

	var p patient.Patient

	err := r.observe("patients.update_owned", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(
			&p.ID, &p.Name, &p.Age, &p.Gender, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return patient.Patient{}, patient.ErrNotFound
		}
		return patient.Patient{}, err
	}

	return p, nil
}

func (r *PatientsRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	var tag pgconn.CommandTag

	err := r.observe("patients.delete_owned", func() error {
		var e error
		tag, e = r.pool.Exec(ctx,
			`DELETE FROM patients WHERE id = $1 AND created_by = $2`,
			id, ownerID,
		)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return patient.ErrNotFound
	}

	return nil
}
