package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/medlink/internal/domain/doctor"
	"github.com/geocoder89/medlink/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DoctorsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewDoctorsRepo(pool *pgxpool.Pool, prom *observability.Prom) *DoctorsRepo {
	return &DoctorsRepo{pool: pool, prom: prom}
}

func (r *DoctorsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *DoctorsRepo) Create(ctx context.Context, req doctor.CreateDoctorRequest, createdBy string) (doctor.Doctor, error) {
	d := doctor.NewFromCreateRequest(req, createdBy)

	err := r.observe("doctors.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO doctors (id, name, specialization, created_by, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			d.ID, d.Name, d.Specialization, d.CreatedBy, d.CreatedAt, d.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return doctor.Doctor{}, err
	}

	return d, nil
}

// List is deliberately unscoped: the doctor directory is readable by
// anyone, authenticated or not.
func (r *DoctorsRepo) List(ctx context.Context) (doctors []doctor.Doctor, err error) {
	var rows pgx.Rows

	err = r.observe("doctors.list", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT id, name, specialization, created_by, created_at, updated_at
			 FROM doctors
			 ORDER BY created_at ASC, id ASC`,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	doctors = make([]doctor.Doctor, 0)

	for rows.Next() {
		var d doctor.Doctor

		e := rows.Scan(&d.ID, &d.Name, &d.Specialization, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)

		if e != nil {
			err = e
			return
		}
		doctors = append(doctors, d)
	}

	err = rows.Err()

	return
}

func (r *DoctorsRepo) GetByID(ctx context.Context, id string) (doctor.Doctor, error) {
	var d doctor.Doctor

	err := r.observe("doctors.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, specialization, created_by, created_at, updated_at
			 FROM doctors
			 WHERE id = $1`,
			id,
		).Scan(&d.ID, &d.Name, &d.Specialization, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return doctor.Doctor{}, doctor.ErrNotFound
		}
		return doctor.Doctor{}, err
	}

	return d, nil
}

// Writes stay owner-scoped even though reads are public.
func (r *DoctorsRepo) UpdateOwned(ctx context.Context, id, ownerID string, req doctor.UpdateDoctorRequest) (doctor.Doctor, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, ownerID}

	argsPosition := 3

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argsPosition))
		args = append(args, *req.Name)
		argsPosition++
	}

	if req.Specialization != nil {
		sets = append(sets, fmt.Sprintf("specialization = $%d", argsPosition))
		args = append(args, *req.Specialization)
		argsPosition++
	}

	query := `UPDATE doctors
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 AND created_by = $2
		RETURNING id, name, specialization, created_by, created_at, updated_at`

	var d doctor.Doctor

	err := r.observe("doctors.update_owned", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(
			&d.ID, &d.Name, &d.Specialization, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return doctor.Doctor{}, doctor.ErrNotFound
		}
		return doctor.Doctor{}, err
	}

	return d, nil
}

func (r *DoctorsRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	var tag pgconn.CommandTag

	err := r.observe("doctors.delete_owned", func() error {
		var e error
		tag, e = r.pool.Exec(ctx,
			`DELETE FROM doctors WHERE id = $1 AND created_by = $2`,
			id, ownerID,
		)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return doctor.ErrNotFound
	}

	return nil
}
