package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/medlink/internal/domain/doctor"
	"github.com/geocoder89/medlink/internal/domain/mapping"
	"github.com/geocoder89/medlink/internal/domain/patient"
	"github.com/geocoder89/medlink/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MappingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewMappingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *MappingsRepo {
	return &MappingsRepo{pool: pool, prom: prom}
}

func (repo *MappingsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *MappingsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return repo.pool.BeginTx(ctx, pgx.TxOptions{})
}

// CreateTx runs the whole assign flow in one transaction: both ids must
// exist, and the pair must be new. The unique constraint is the real
// guarantee; the SELECTs just produce friendlier errors.
func (repo *MappingsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req mapping.CreateMappingRequest) (m mapping.Mapping, err error) {
	var patientExists bool

	err = repo.observe("mappings.create_tx.patient_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM patients WHERE id = $1
		)`, req.PatientID).Scan(&patientExists)
	})

	if err != nil {
		return
	}

	if !patientExists {
		err = patient.ErrNotFound
		return
	}

	var doctorExists bool

	err = repo.observe("mappings.create_tx.doctor_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM doctors WHERE id = $1
		)`, req.DoctorID).Scan(&doctorExists)
	})

	if err != nil {
		return
	}

	if !doctorExists {
		err = doctor.ErrNotFound
		return
	}

	var exists bool

	err = repo.observe("mappings.create_tx.duplicate_check", func() error {
		return tx.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM mappings
			WHERE patient_id = $1 AND doctor_id = $2
		)`, req.PatientID, req.DoctorID).Scan(&exists)
	})

	if err != nil {
		return
	}

	if exists {
		err = mapping.ErrAlreadyAssigned
		return
	}

	m = mapping.NewFromCreateRequest(req)

	err = repo.observe("mappings.create_tx.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO mappings (id, patient_id, doctor_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, m.ID, m.PatientID, m.DoctorID, m.CreatedAt, m.UpdatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "mappings_patient_doctor_uniq" {
			err = mapping.ErrAlreadyAssigned
			return
		}
		return
	}

	return
}

func (repo *MappingsRepo) Create(ctx context.Context, req mapping.CreateMappingRequest) (m mapping.Mapping, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	m, err = repo.CreateTx(ctx, tx, req)

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	return
}

// ListResolved returns every mapping system-wide with both sides
// embedded. The inner joins cannot drop rows: mappings cascade away
// with their patient/doctor.
func (repo *MappingsRepo) ListResolved(ctx context.Context) (out []mapping.Resolved, err error) {
	var rows pgx.Rows

	err = repo.observe("mappings.list_resolved", func() error {
		rows, err = repo.pool.Query(ctx, `
	SELECT m.id, m.created_at,
	       p.id, p.name, p.age, p.gender, p.created_by, p.created_at, p.updated_at,
	       d.id, d.name, d.specialization, d.created_by, d.created_at, d.updated_at
	FROM mappings m
	JOIN patients p ON p.id = m.patient_id
	JOIN doctors d ON d.id = m.doctor_id
	ORDER BY m.created_at ASC, m.id ASC
	`)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	out = make([]mapping.Resolved, 0)

	for rows.Next() {
		var r mapping.Resolved

		e := rows.Scan(
			&r.ID, &r.CreatedAt,
			&r.Patient.ID, &r.Patient.Name, &r.Patient.Age, &r.Patient.Gender, &r.Patient.CreatedBy, &r.Patient.CreatedAt, &r.Patient.UpdatedAt,
			&r.Doctor.ID, &r.Doctor.Name, &r.Doctor.Specialization, &r.Doctor.CreatedBy, &r.Doctor.CreatedAt, &r.Doctor.UpdatedAt,
		)

		if e != nil {
			err = e
			return
		}
		out = append(out, r)
	}

	err = rows.Err()

	return
}

func (repo *MappingsRepo) ListForPatient(ctx context.Context, patientID string) (out []mapping.DoctorAssignment, err error) {
	var rows pgx.Rows

	err = repo.observe("mappings.list_for_patient", func() error {
		rows, err = repo.pool.Query(ctx, `
	SELECT m.id, m.patient_id, m.created_at,
	       d.id, d.name, d.specialization, d.created_by, d.created_at, d.updated_at
	FROM mappings m
	JOIN doctors d ON d.id = m.doctor_id
	WHERE m.patient_id = $1
	ORDER BY m.created_at ASC, m.id ASC
	`, patientID)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	out = make([]mapping.DoctorAssignment, 0)

	for rows.Next() {
		var a mapping.DoctorAssignment

		e := rows.Scan(
			&a.ID, &a.PatientID, &a.CreatedAt,
			&a.Doctor.ID, &a.Doctor.Name, &a.Doctor.Specialization, &a.Doctor.CreatedBy, &a.Doctor.CreatedAt, &a.Doctor.UpdatedAt,
		)

		if e != nil {
			err = e
			return
		}
		out = append(out, a)
	}

	err = rows.Err()

	return
}

func (repo *MappingsRepo) Delete(ctx context.Context, id string) (err error) {
	var tag pgconn.CommandTag

	err = repo.observe("mappings.delete", func() error {
		var e error
		tag, e = repo.pool.Exec(ctx, `DELETE FROM mappings WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = mapping.ErrNotFound
		return
	}

	return
}
